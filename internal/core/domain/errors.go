package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound marks a lookup of a book, user or loan key that does not
	// exist. It is always raised before any mutation.
	ErrNotFound = errors.New("not found")

	// ErrNoCopiesAvailable is returned when a loan is requested for a book
	// with zero available copies.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrLoanLimitReached is returned when a user already holds the maximum
	// number of active loans.
	ErrLoanLimitReached = errors.New("borrowing limit reached")

	// ErrDuplicateActiveLoan is returned when a user already holds an active
	// loan of the same ISBN.
	ErrDuplicateActiveLoan = errors.New("user already holds an active loan of this book")

	// ErrAlreadyReturned is returned on a second return of the same loan.
	ErrAlreadyReturned = errors.New("loan already returned")
)

// ValidationError carries a human-readable reason for a malformed input or
// a blocked structural edit. The front-end surfaces the reason as-is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBusinessRule reports whether err is a failure the front-end should show
// to the user rather than treat as a system fault.
func IsBusinessRule(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrNoCopiesAvailable) ||
		errors.Is(err, ErrLoanLimitReached) ||
		errors.Is(err, ErrDuplicateActiveLoan) ||
		errors.Is(err, ErrAlreadyReturned)
}

var (
	matricolaPattern = regexp.MustCompile(`^\d{10}$`)
	isbnPattern      = regexp.MustCompile(`^\d{13}$`)
)

// ValidateMatricola checks the fixed 10-digit user identifier format.
func ValidateMatricola(matricola string) error {
	if matricola == "" {
		return Validationf("matricola must not be blank")
	}
	if !matricolaPattern.MatchString(matricola) {
		return Validationf("matricola must be exactly 10 digits")
	}
	return nil
}

// ValidateISBN checks the fixed 13-digit book identifier format.
func ValidateISBN(isbn string) error {
	if isbn == "" {
		return Validationf("isbn must not be blank")
	}
	if !isbnPattern.MatchString(isbn) {
		return Validationf("isbn must be exactly 13 digits")
	}
	return nil
}

// IsMatricola reports whether s looks like a matricola, without raising a
// validation failure. Used by keyword search to route the query.
func IsMatricola(s string) bool {
	return matricolaPattern.MatchString(s)
}
