package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

// MaxActiveLoans is the borrowing limit: the maximum number of loans a
// user may hold open at the same time.
const MaxActiveLoans = 3

// LoanService owns the loan lifecycle. It is the only component allowed to
// mutate a book's available-copy counter, which keeps the counter, the
// per-user active-loan count and the ledger mutually consistent.
type LoanService struct {
	loans port.LoanRepository
	books port.BookRepository
	users port.UserRepository
	audit port.AuditLogger
	now   func() time.Time
}

func NewLoanService(loans port.LoanRepository, books port.BookRepository, users port.UserRepository, audit port.AuditLogger) *LoanService {
	return &LoanService{
		loans: loans,
		books: books,
		users: users,
		audit: audit,
		now:   time.Now,
	}
}

// RegisterLoan opens a loan for the user and book, decrementing the book's
// available copies. Every rule is checked before the first write; the loan
// write precedes the inventory write and a failed inventory write surfaces
// to the caller.
func (s *LoanService) RegisterLoan(ctx context.Context, matricola, isbn string, loanDate, dueDate time.Time) (domain.Loan, error) {
	if err := domain.ValidateMatricola(matricola); err != nil {
		return domain.Loan{}, err
	}
	if err := domain.ValidateISBN(isbn); err != nil {
		return domain.Loan{}, err
	}
	if err := s.validateLoanDates(loanDate, dueDate); err != nil {
		return domain.Loan{}, err
	}

	userExists, err := s.users.ExistsByID(ctx, matricola)
	if err != nil {
		return domain.Loan{}, err
	}
	if !userExists {
		return domain.Loan{}, fmt.Errorf("user with matricola %s: %w", matricola, domain.ErrNotFound)
	}

	book, err := s.books.FindByID(ctx, isbn)
	if err != nil {
		return domain.Loan{}, err
	}
	if book == nil {
		return domain.Loan{}, fmt.Errorf("book with isbn %s: %w", isbn, domain.ErrNotFound)
	}

	if book.AvailableCopies <= 0 {
		return domain.Loan{}, fmt.Errorf("book %s: %w", isbn, domain.ErrNoCopiesAvailable)
	}

	activeLoans, err := s.loans.FindActiveByUser(ctx, matricola)
	if err != nil {
		return domain.Loan{}, err
	}
	if len(activeLoans) >= MaxActiveLoans {
		return domain.Loan{}, fmt.Errorf("user %s has %d active loans: %w", matricola, len(activeLoans), domain.ErrLoanLimitReached)
	}
	for _, active := range activeLoans {
		if active.ISBN == isbn {
			return domain.Loan{}, fmt.Errorf("user %s, book %q: %w", matricola, book.Title, domain.ErrDuplicateActiveLoan)
		}
	}

	loan := domain.NewLoan(matricola, isbn, loanDate, dueDate)
	saved, err := s.loans.Save(ctx, loan)
	if err != nil {
		return domain.Loan{}, err
	}

	book.AvailableCopies--
	if _, err := s.books.Save(ctx, *book); err != nil {
		return domain.Loan{}, fmt.Errorf("loan %s recorded but inventory update failed: %w", saved.ID(), err)
	}

	s.logAudit(ctx, "loan", "registered", saved)
	return saved, nil
}

// RegisterReturn closes the loan and restores one available copy of the
// referenced book. Calling it twice on the same loan fails the second time.
func (s *LoanService) RegisterReturn(ctx context.Context, loan domain.Loan, returnDate time.Time) (domain.Loan, error) {
	if loan.Matricola == "" || loan.ISBN == "" || loan.LoanDate.IsZero() {
		return domain.Loan{}, domain.Validationf("loan to return is incomplete")
	}
	if returnDate.IsZero() {
		return domain.Loan{}, domain.Validationf("return date must not be empty")
	}

	stored, err := s.loans.FindByID(ctx, loan.ID())
	if err != nil {
		return domain.Loan{}, err
	}
	if stored == nil {
		return domain.Loan{}, fmt.Errorf("loan %s: %w", loan.ID(), domain.ErrNotFound)
	}

	if domain.DateOnly(returnDate).Before(stored.LoanDate) {
		return domain.Loan{}, domain.Validationf("return date cannot be before the loan date")
	}
	if !stored.IsActive() {
		return domain.Loan{}, fmt.Errorf("loan %s: %w", stored.ID(), domain.ErrAlreadyReturned)
	}

	closed := stored.WithReturnDate(returnDate)
	saved, err := s.loans.Save(ctx, closed)
	if err != nil {
		return domain.Loan{}, err
	}

	book, err := s.books.FindByID(ctx, closed.ISBN)
	if err != nil {
		return domain.Loan{}, err
	}
	if book == nil {
		return domain.Loan{}, fmt.Errorf("book with isbn %s: %w", closed.ISBN, domain.ErrNotFound)
	}
	book.AvailableCopies++
	if _, err := s.books.Save(ctx, *book); err != nil {
		return domain.Loan{}, fmt.Errorf("return %s recorded but inventory update failed: %w", saved.ID(), err)
	}

	s.logAudit(ctx, "loan", "returned", saved)
	return saved, nil
}

// ActiveLoansOrderedByDueDate returns every open loan sorted by due date
// ascending, matricola and ISBN breaking ties.
func (s *LoanService) ActiveLoansOrderedByDueDate(ctx context.Context) ([]domain.Loan, error) {
	return s.loans.FindActiveOrderByDueDate(ctx)
}

// ActiveLoansByUser returns the user's open loans sorted by due date then ISBN.
func (s *LoanService) ActiveLoansByUser(ctx context.Context, matricola string) ([]domain.Loan, error) {
	return s.loans.FindActiveByUser(ctx, matricola)
}

// CountActiveLoansByUser returns how many loans the user holds open.
func (s *LoanService) CountActiveLoansByUser(ctx context.Context, matricola string) (int, error) {
	loans, err := s.loans.FindActiveByUser(ctx, matricola)
	if err != nil {
		return 0, err
	}
	return len(loans), nil
}

// CountActiveLoansByIsbn returns how many copies of the book are out on
// loan. The book service uses it to recompute available copies when
// catalog edits change the total.
func (s *LoanService) CountActiveLoansByIsbn(ctx context.Context, isbn string) (int, error) {
	if isbn == "" {
		return 0, nil
	}
	loans, err := s.loans.FindByBookIsbn(ctx, isbn)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, l := range loans {
		if l.IsActive() {
			count++
		}
	}
	return count, nil
}

// SearchUsers routes a raw keyword: empty shows everyone, a 10-digit string
// is an exact matricola lookup, anything else matches last names.
func (s *LoanService) SearchUsers(ctx context.Context, keyword string) ([]domain.User, error) {
	term := strings.TrimSpace(keyword)
	if term == "" {
		return s.users.FindAllOrderByName(ctx)
	}
	if domain.IsMatricola(term) {
		user, err := s.users.FindByID(ctx, term)
		if err != nil || user == nil {
			return nil, err
		}
		return []domain.User{*user}, nil
	}
	return s.users.FindByLastNameContaining(ctx, term)
}

// SearchBooks matches the keyword against ISBN, title and authors; any hit
// qualifies. An empty keyword shows the whole catalog ordered by title.
func (s *LoanService) SearchBooks(ctx context.Context, keyword string) ([]domain.Book, error) {
	term := strings.ToLower(strings.TrimSpace(keyword))
	if term == "" {
		return s.books.FindAllOrderByTitle(ctx)
	}

	all, err := s.books.FindAllOrderByTitle(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if bookMatches(b, term) {
			out = append(out, b)
		}
	}
	return out, nil
}

func bookMatches(b domain.Book, term string) bool {
	if strings.Contains(strings.ToLower(b.ISBN), term) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Title), term) {
		return true
	}
	for _, author := range b.Authors {
		if strings.Contains(strings.ToLower(author), term) {
			return true
		}
	}
	return false
}

func (s *LoanService) validateLoanDates(loanDate, dueDate time.Time) error {
	if loanDate.IsZero() {
		return domain.Validationf("loan date must not be empty")
	}
	if dueDate.IsZero() {
		return domain.Validationf("due date must not be empty")
	}
	if domain.DateOnly(dueDate).Before(domain.DateOnly(loanDate)) {
		return domain.Validationf("due date cannot be before the loan date")
	}
	if domain.DateOnly(loanDate).After(domain.DateOnly(s.now())) {
		return domain.Validationf("loan date cannot be in the future")
	}
	return nil
}

func (s *LoanService) logAudit(ctx context.Context, entity, action string, data any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, entity, action, data); err != nil {
		log.Printf("audit %s %s: %v", entity, action, err)
	}
}
