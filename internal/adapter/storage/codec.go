package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// Wire format: one record per line, fields separated by '|', a fixed header
// line per entity type. Multi-valued fields use ';' inside a field. Optional
// fields round-trip through empty string <-> nil. A field value containing
// the primary separator would corrupt the file and is rejected at encode
// time.
const (
	fieldSeparator  = "|"
	authorSeparator = ";"

	booksHeader = "ISBN|Title|Authors|Year|TotalCopies|AvailableCopies"
	usersHeader = "Matricola|FirstName|LastName|Email"
	loansHeader = "Matricola|ISBN|LoanDate|DueDate|ReturnDate"
)

// LineCodec translates one entity to and from its wire line.
type LineCodec[T any] interface {
	Header() string
	Encode(entity T) (string, error)
	Decode(line string) (T, error)
}

type bookCodec struct{}

// BookCodec returns the codec for the books file.
func BookCodec() LineCodec[domain.Book] { return bookCodec{} }

func (bookCodec) Header() string { return booksHeader }

func (bookCodec) Encode(b domain.Book) (string, error) {
	fields := []string{
		b.ISBN,
		b.Title,
		strings.Join(b.Authors, authorSeparator),
		strconv.Itoa(b.Year),
		strconv.Itoa(b.TotalCopies),
		strconv.Itoa(b.AvailableCopies),
	}
	for _, author := range b.Authors {
		if strings.Contains(author, authorSeparator) {
			return "", fmt.Errorf("author %q contains the reserved separator %q", author, authorSeparator)
		}
	}
	if err := requireNoSeparator(fields); err != nil {
		return "", err
	}
	return strings.Join(fields, fieldSeparator), nil
}

func (bookCodec) Decode(line string) (domain.Book, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 6 {
		return domain.Book{}, fmt.Errorf("book record has %d fields, want 6: %q", len(fields), line)
	}
	year, err := strconv.Atoi(fields[3])
	if err != nil {
		return domain.Book{}, fmt.Errorf("book record %q: bad year: %w", line, err)
	}
	total, err := strconv.Atoi(fields[4])
	if err != nil {
		return domain.Book{}, fmt.Errorf("book record %q: bad total copies: %w", line, err)
	}
	available, err := strconv.Atoi(fields[5])
	if err != nil {
		return domain.Book{}, fmt.Errorf("book record %q: bad available copies: %w", line, err)
	}
	return domain.Book{
		ISBN:            fields[0],
		Title:           fields[1],
		Authors:         splitAuthors(fields[2]),
		Year:            year,
		TotalCopies:     total,
		AvailableCopies: available,
	}, nil
}

type userCodec struct{}

// UserCodec returns the codec for the users file.
func UserCodec() LineCodec[domain.User] { return userCodec{} }

func (userCodec) Header() string { return usersHeader }

func (userCodec) Encode(u domain.User) (string, error) {
	fields := []string{u.Matricola, u.FirstName, u.LastName, u.Email}
	if err := requireNoSeparator(fields); err != nil {
		return "", err
	}
	return strings.Join(fields, fieldSeparator), nil
}

func (userCodec) Decode(line string) (domain.User, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 4 {
		return domain.User{}, fmt.Errorf("user record has %d fields, want 4: %q", len(fields), line)
	}
	return domain.User{
		Matricola: fields[0],
		FirstName: fields[1],
		LastName:  fields[2],
		Email:     fields[3],
	}, nil
}

type loanCodec struct{}

// LoanCodec returns the codec for the loans file.
func LoanCodec() LineCodec[domain.Loan] { return loanCodec{} }

func (loanCodec) Header() string { return loansHeader }

func (loanCodec) Encode(l domain.Loan) (string, error) {
	returnDate := ""
	if l.ReturnDate != nil {
		returnDate = l.ReturnDate.Format(time.DateOnly)
	}
	fields := []string{
		l.Matricola,
		l.ISBN,
		l.LoanDate.Format(time.DateOnly),
		l.DueDate.Format(time.DateOnly),
		returnDate,
	}
	if err := requireNoSeparator(fields); err != nil {
		return "", err
	}
	return strings.Join(fields, fieldSeparator), nil
}

func (loanCodec) Decode(line string) (domain.Loan, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 5 {
		return domain.Loan{}, fmt.Errorf("loan record has %d fields, want 5: %q", len(fields), line)
	}
	loanDate, err := parseDate(fields[2])
	if err != nil {
		return domain.Loan{}, fmt.Errorf("loan record %q: bad loan date: %w", line, err)
	}
	dueDate, err := parseDate(fields[3])
	if err != nil {
		return domain.Loan{}, fmt.Errorf("loan record %q: bad due date: %w", line, err)
	}
	loan := domain.Loan{
		Matricola: fields[0],
		ISBN:      fields[1],
		LoanDate:  loanDate,
		DueDate:   dueDate,
	}
	if fields[4] != "" {
		returnDate, err := parseDate(fields[4])
		if err != nil {
			return domain.Loan{}, fmt.Errorf("loan record %q: bad return date: %w", line, err)
		}
		loan.ReturnDate = &returnDate
	}
	return loan, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.DateOnly(t), nil
}

func splitAuthors(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, authorSeparator)
}

func requireNoSeparator(fields []string) error {
	for _, f := range fields {
		if strings.Contains(f, fieldSeparator) {
			return fmt.Errorf("field %q contains the reserved separator %q", f, fieldSeparator)
		}
	}
	return nil
}
