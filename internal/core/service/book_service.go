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

// BookService handles catalog edits. Destructive operations defer to the
// loan service so that a book with copies out on loan can never lose its
// identity or disappear from under the ledger.
type BookService struct {
	books port.BookRepository
	loans *LoanService
	audit port.AuditLogger
	now   func() time.Time
}

func NewBookService(books port.BookRepository, loans *LoanService, audit port.AuditLogger) *BookService {
	return &BookService{
		books: books,
		loans: loans,
		audit: audit,
		now:   time.Now,
	}
}

// AddBook registers a new catalog entry with all copies available.
// The same ISBN cannot be added twice, and neither can the same edition
// (normalized title, author set and year) under a different ISBN; the same
// title and authors with a different year is accepted as a new edition.
func (s *BookService) AddBook(ctx context.Context, isbn, title string, authors []string, year, totalCopies int) (domain.Book, error) {
	if err := domain.ValidateISBN(isbn); err != nil {
		return domain.Book{}, err
	}
	if err := validateTitle(title); err != nil {
		return domain.Book{}, err
	}
	if err := validateAuthors(authors); err != nil {
		return domain.Book{}, err
	}
	if err := s.validateYear(year); err != nil {
		return domain.Book{}, err
	}
	if err := validateTotalCopies(totalCopies); err != nil {
		return domain.Book{}, err
	}

	exists, err := s.books.ExistsByID(ctx, isbn)
	if err != nil {
		return domain.Book{}, err
	}
	if exists {
		return domain.Book{}, domain.Validationf("a book with isbn %s already exists", isbn)
	}

	candidate := domain.NewBook(isbn, strings.TrimSpace(title), trimAuthors(authors), year, totalCopies, totalCopies)

	all, err := s.books.FindAll(ctx)
	if err != nil {
		return domain.Book{}, err
	}
	for _, existing := range all {
		if existing.HasSameEdition(candidate) {
			return domain.Book{}, domain.Validationf("this edition already exists in the catalog (isbn %s)", existing.ISBN)
		}
	}

	saved, err := s.books.Save(ctx, candidate)
	if err != nil {
		return domain.Book{}, err
	}
	s.logAudit(ctx, "added", saved)
	return saved, nil
}

// UpdateBook edits a catalog entry. Available copies are recomputed as the
// new total minus the copies currently on loan, and the edit is rejected
// when that would go negative. Changing the ISBN is a delete-plus-insert
// and is blocked while any copy is out on loan.
func (s *BookService) UpdateBook(ctx context.Context, oldIsbn, newIsbn, title string, authors []string, year, totalCopies int) (domain.Book, error) {
	if err := domain.ValidateISBN(newIsbn); err != nil {
		return domain.Book{}, err
	}
	if err := validateTitle(title); err != nil {
		return domain.Book{}, err
	}
	if err := validateAuthors(authors); err != nil {
		return domain.Book{}, err
	}
	if err := s.validateYear(year); err != nil {
		return domain.Book{}, err
	}
	if err := validateTotalCopies(totalCopies); err != nil {
		return domain.Book{}, err
	}

	existing, err := s.books.FindByID(ctx, oldIsbn)
	if err != nil {
		return domain.Book{}, err
	}
	if existing == nil {
		return domain.Book{}, fmt.Errorf("book with isbn %s: %w", oldIsbn, domain.ErrNotFound)
	}

	onLoan, err := s.loans.CountActiveLoansByIsbn(ctx, oldIsbn)
	if err != nil {
		return domain.Book{}, err
	}
	newAvailable := totalCopies - onLoan
	if newAvailable < 0 {
		return domain.Book{}, domain.Validationf("total copies %d is below the %d copies currently on loan", totalCopies, onLoan)
	}

	if oldIsbn != newIsbn {
		if onLoan > 0 {
			return domain.Book{}, domain.Validationf("cannot change isbn: %d copies are still on loan", onLoan)
		}
		taken, err := s.books.ExistsByID(ctx, newIsbn)
		if err != nil {
			return domain.Book{}, err
		}
		if taken {
			return domain.Book{}, domain.Validationf("a book with isbn %s already exists", newIsbn)
		}
		if err := s.books.DeleteByID(ctx, oldIsbn); err != nil {
			return domain.Book{}, err
		}
		replacement := domain.NewBook(newIsbn, strings.TrimSpace(title), trimAuthors(authors), year, totalCopies, newAvailable)
		saved, err := s.books.Save(ctx, replacement)
		if err != nil {
			return domain.Book{}, err
		}
		s.logAudit(ctx, "updated", saved)
		return saved, nil
	}

	existing.Title = strings.TrimSpace(title)
	existing.Authors = trimAuthors(authors)
	existing.Year = year
	existing.TotalCopies = totalCopies
	existing.AvailableCopies = newAvailable
	saved, err := s.books.Save(ctx, *existing)
	if err != nil {
		return domain.Book{}, err
	}
	s.logAudit(ctx, "updated", saved)
	return saved, nil
}

// DeleteBook removes a catalog entry; blocked while any copy is on loan.
func (s *BookService) DeleteBook(ctx context.Context, isbn string) error {
	if err := domain.ValidateISBN(isbn); err != nil {
		return err
	}
	exists, err := s.books.ExistsByID(ctx, isbn)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("book with isbn %s: %w", isbn, domain.ErrNotFound)
	}

	onLoan, err := s.loans.CountActiveLoansByIsbn(ctx, isbn)
	if err != nil {
		return err
	}
	if onLoan > 0 {
		return domain.Validationf("cannot delete book %s: %d copies are still on loan", isbn, onLoan)
	}

	if err := s.books.DeleteByID(ctx, isbn); err != nil {
		return err
	}
	s.logAudit(ctx, "deleted", isbn)
	return nil
}

// BookByISBN returns the book, or nil for a blank or unknown ISBN.
func (s *BookService) BookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, nil
	}
	return s.books.FindByID(ctx, isbn)
}

func (s *BookService) SearchByTitle(ctx context.Context, keyword string) ([]domain.Book, error) {
	return s.books.FindByTitleContaining(ctx, keyword)
}

func (s *BookService) SearchByAuthor(ctx context.Context, keyword string) ([]domain.Book, error) {
	return s.books.FindByAuthorContaining(ctx, keyword)
}

func (s *BookService) AllBooksOrderedByTitle(ctx context.Context) ([]domain.Book, error) {
	return s.books.FindAllOrderByTitle(ctx)
}

func (s *BookService) validateYear(year int) error {
	current := s.now().Year()
	if year < 1 || year > current {
		return domain.Validationf("publication year must be between 1 and %d", current)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.Validationf("title must not be blank")
	}
	return nil
}

func validateAuthors(authors []string) error {
	if len(authors) == 0 {
		return domain.Validationf("at least one author is required")
	}
	for _, a := range authors {
		if strings.TrimSpace(a) == "" {
			return domain.Validationf("author names must not be blank")
		}
	}
	return nil
}

func validateTotalCopies(totalCopies int) error {
	if totalCopies < 1 {
		return domain.Validationf("total copies must be at least 1")
	}
	return nil
}

func trimAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		out = append(out, strings.TrimSpace(a))
	}
	return out
}

func (s *BookService) logAudit(ctx context.Context, action string, data any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, "book", action, data); err != nil {
		log.Printf("audit book %s: %v", action, err)
	}
}
