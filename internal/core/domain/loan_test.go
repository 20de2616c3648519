package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanID_FormatsCompositeKey(t *testing.T) {
	loan := NewLoan("0612709530", "9781234567890", date(2024, 3, 1), date(2024, 3, 15))

	assert.Equal(t, "0612709530:9781234567890:2024-03-01", loan.ID())
}

func TestLoanKey_NormalizesTimeOfDay(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)

	assert.Equal(t, LoanKey("0612709530", "9781234567890", date(2024, 3, 1)),
		LoanKey("0612709530", "9781234567890", noon))
}

func TestLoanIsActive(t *testing.T) {
	loan := NewLoan("0612709530", "9781234567890", date(2024, 3, 1), date(2024, 3, 15))
	assert.True(t, loan.IsActive())

	closed := loan.WithReturnDate(date(2024, 3, 10))
	assert.False(t, closed.IsActive())
	assert.True(t, loan.IsActive(), "WithReturnDate must not mutate the receiver")
}

func TestLoanIsOverdue(t *testing.T) {
	loan := NewLoan("0612709530", "9781234567890", date(2024, 3, 1), date(2024, 3, 15))

	assert.False(t, loan.IsOverdue(date(2024, 3, 15)), "due day itself is not overdue")
	assert.True(t, loan.IsOverdue(date(2024, 3, 16)))

	closed := loan.WithReturnDate(date(2024, 3, 20))
	assert.False(t, closed.IsOverdue(date(2024, 3, 30)), "closed loans are never overdue")
}

func TestValidateMatricola(t *testing.T) {
	assert.NoError(t, ValidateMatricola("0612709530"))
	assert.Error(t, ValidateMatricola(""))
	assert.Error(t, ValidateMatricola("061270953"))
	assert.Error(t, ValidateMatricola("06127095301"))
	assert.Error(t, ValidateMatricola("06127o9530"))
}

func TestValidateISBN(t *testing.T) {
	assert.NoError(t, ValidateISBN("9781234567890"))
	assert.Error(t, ValidateISBN(""))
	assert.Error(t, ValidateISBN("978123456789"))
	assert.Error(t, ValidateISBN("97812345678901"))
	assert.Error(t, ValidateISBN("978-123456789"))
}

func TestIsBusinessRule(t *testing.T) {
	assert.True(t, IsBusinessRule(ErrNoCopiesAvailable))
	assert.True(t, IsBusinessRule(ErrLoanLimitReached))
	assert.True(t, IsBusinessRule(Validationf("bad input")))
	assert.False(t, IsBusinessRule(ErrNotFound))
}

func TestBookHasSameEdition(t *testing.T) {
	base := NewBook("9781234567890", "Clean Architecture", []string{"Robert Martin"}, 2017, 3, 3)

	sameEdition := NewBook("9780000000001", " clean architecture ", []string{"ROBERT MARTIN"}, 2017, 1, 1)
	assert.True(t, base.HasSameEdition(sameEdition))

	newEdition := NewBook("9780000000002", "Clean Architecture", []string{"Robert Martin"}, 2020, 1, 1)
	assert.False(t, base.HasSameEdition(newEdition), "different year is a new edition")

	otherAuthors := NewBook("9780000000003", "Clean Architecture", []string{"Robert Martin", "Someone Else"}, 2017, 1, 1)
	assert.False(t, base.HasSameEdition(otherAuthors))
}

func TestNewBookCopiesAuthors(t *testing.T) {
	authors := []string{"A", "B"}
	book := NewBook("9781234567890", "T", authors, 2020, 1, 1)
	authors[0] = "mutated"

	assert.Equal(t, []string{"A", "B"}, book.Authors)
}
