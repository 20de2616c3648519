package domain

import "time"

// Loan binds a user to a book copy for a period of time. Identity is the
// triple (matricola, isbn, loan date): at most one ledger record can exist
// for the same user, book and day. The triple is rendered as a formatted
// key for map lookup only and is never stored on the entity.
type Loan struct {
	Matricola  string
	ISBN       string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// NewLoan creates an active loan (no return date) with normalized dates.
func NewLoan(matricola, isbn string, loanDate, dueDate time.Time) Loan {
	return Loan{
		Matricola: matricola,
		ISBN:      isbn,
		LoanDate:  DateOnly(loanDate),
		DueDate:   DateOnly(dueDate),
	}
}

// ID returns the composite ledger key for this loan.
func (l Loan) ID() string {
	return LoanKey(l.Matricola, l.ISBN, l.LoanDate)
}

// LoanKey builds the composite ledger key for a (user, book, day) triple.
func LoanKey(matricola, isbn string, loanDate time.Time) string {
	return matricola + ":" + isbn + ":" + DateOnly(loanDate).Format(time.DateOnly)
}

// IsActive reports whether the book has not been returned yet.
func (l Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// IsOverdue reports whether the loan is still active past its due date at
// the given reference date. Computed on demand, never persisted.
func (l Loan) IsOverdue(ref time.Time) bool {
	return l.IsActive() && DateOnly(ref).After(l.DueDate)
}

// WithReturnDate returns a closed copy of the loan.
func (l Loan) WithReturnDate(returnDate time.Time) Loan {
	d := DateOnly(returnDate)
	l.ReturnDate = &d
	return l
}

// DateOnly strips the time-of-day and location, leaving a calendar date at
// midnight UTC. All ledger dates are normalized through it so that key
// equality and date comparisons never depend on clock or zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
