package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookCodecRoundTrip(t *testing.T) {
	cases := map[string]domain.Book{
		"no authors": {ISBN: "9781111111111", Title: "Anonymous", Year: 1999, TotalCopies: 1, AvailableCopies: 1},
		"one author": {ISBN: "9782222222222", Title: "Solo", Authors: []string{"Ada Lovelace"}, Year: 2001, TotalCopies: 2, AvailableCopies: 0},
		"many authors": {
			ISBN: "9783333333333", Title: "Ensemble",
			Authors: []string{"First Author", "Second Author", "Third Author"},
			Year:    2020, TotalCopies: 5, AvailableCopies: 3,
		},
	}

	for name, book := range cases {
		t.Run(name, func(t *testing.T) {
			line, err := BookCodec().Encode(book)
			require.NoError(t, err)

			decoded, err := BookCodec().Decode(line)
			require.NoError(t, err)
			assert.Equal(t, book, decoded)
		})
	}
}

func TestBookCodecEncode_RejectsSeparatorInField(t *testing.T) {
	book := domain.Book{ISBN: "9781111111111", Title: "bad|title", Year: 2000, TotalCopies: 1, AvailableCopies: 1}

	_, err := BookCodec().Encode(book)
	assert.Error(t, err)
}

func TestBookCodecEncode_RejectsAuthorSeparatorInAuthor(t *testing.T) {
	book := domain.Book{ISBN: "9781111111111", Title: "ok", Authors: []string{"A;B"}, Year: 2000, TotalCopies: 1, AvailableCopies: 1}

	_, err := BookCodec().Encode(book)
	assert.Error(t, err)
}

func TestBookCodecDecode_RejectsWrongFieldCount(t *testing.T) {
	_, err := BookCodec().Decode("9781111111111|only|three")
	assert.Error(t, err)
}

func TestUserCodecRoundTrip(t *testing.T) {
	user := domain.User{Matricola: "0612709530", FirstName: "Maria", LastName: "Rossi", Email: "m.rossi@studenti.unisa.it"}

	line, err := UserCodec().Encode(user)
	require.NoError(t, err)
	assert.Equal(t, "0612709530|Maria|Rossi|m.rossi@studenti.unisa.it", line)

	decoded, err := UserCodec().Decode(line)
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}

func TestLoanCodecRoundTrip_ActiveAndClosed(t *testing.T) {
	active := domain.NewLoan("0612709530", "9781234567890", date(2024, 3, 1), date(2024, 3, 15))
	closed := active.WithReturnDate(date(2024, 3, 10))

	for name, loan := range map[string]domain.Loan{"active": active, "closed": closed} {
		t.Run(name, func(t *testing.T) {
			line, err := LoanCodec().Encode(loan)
			require.NoError(t, err)

			decoded, err := LoanCodec().Decode(line)
			require.NoError(t, err)
			assert.Equal(t, loan, decoded)
		})
	}
}

func TestLoanCodec_EmptyReturnDateMeansActive(t *testing.T) {
	loan, err := LoanCodec().Decode("0612709530|9781234567890|2024-03-01|2024-03-15|")
	require.NoError(t, err)

	assert.Nil(t, loan.ReturnDate)
	assert.True(t, loan.IsActive())
}

func TestLoanCodec_EncodesActiveLoanWithEmptyLastField(t *testing.T) {
	loan := domain.NewLoan("0612709530", "9781234567890", date(2024, 3, 1), date(2024, 3, 15))

	line, err := LoanCodec().Encode(loan)
	require.NoError(t, err)
	assert.Equal(t, "0612709530|9781234567890|2024-03-01|2024-03-15|", line)
}
