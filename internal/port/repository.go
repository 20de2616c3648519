package port

import (
	"context"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// Repository is the generic storage contract shared by all entity stores.
// Implementations key entities by their natural identifier; Save is
// insert-or-replace. Finders never expose internal storage: every returned
// slice is a fresh copy the caller may mutate freely.
type Repository[ID comparable, T any] interface {
	// Save inserts or replaces the entity under its natural key.
	Save(ctx context.Context, entity T) (T, error)

	// FindByID returns the entity, or nil when the key is absent.
	FindByID(ctx context.Context, id ID) (*T, error)

	// FindAll returns every stored entity in no guaranteed order.
	FindAll(ctx context.Context) ([]T, error)

	// DeleteByID removes the entity; it is a no-op when the key is absent.
	DeleteByID(ctx context.Context, id ID) error

	// DeleteAll removes every stored entity.
	DeleteAll(ctx context.Context) error

	// ExistsByID reports whether the key is present.
	ExistsByID(ctx context.Context, id ID) (bool, error)

	// Count returns the number of stored entities.
	Count(ctx context.Context) (int, error)
}

// BookRepository stores books keyed by ISBN.
type BookRepository interface {
	Repository[string, domain.Book]

	// FindByTitleContaining returns books whose title contains the keyword,
	// case-insensitive, ordered by title then ISBN.
	FindByTitleContaining(ctx context.Context, keyword string) ([]domain.Book, error)

	// FindByAuthorContaining returns books with at least one author name
	// containing the keyword, case-insensitive, ordered by title then ISBN.
	FindByAuthorContaining(ctx context.Context, keyword string) ([]domain.Book, error)

	// FindAllOrderByTitle returns every book ordered by title
	// (case-insensitive, empty titles last), ISBN breaking ties.
	FindAllOrderByTitle(ctx context.Context) ([]domain.Book, error)
}

// UserRepository stores users keyed by matricola.
type UserRepository interface {
	Repository[string, domain.User]

	// FindByLastNameContaining returns users whose last name contains the
	// keyword, case-insensitive, ordered like FindAllOrderByName.
	FindByLastNameContaining(ctx context.Context, keyword string) ([]domain.User, error)

	// FindAllOrderByName returns every user ordered by last name then first
	// name (case-insensitive, empty names last), matricola breaking ties.
	FindAllOrderByName(ctx context.Context) ([]domain.User, error)

	// FindByEmail returns the user holding the email (case-insensitive),
	// or nil when no user has it.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LoanRepository stores loans keyed by the composite (matricola, isbn,
// loan date) key built by domain.LoanKey.
type LoanRepository interface {
	Repository[string, domain.Loan]

	// FindByUserMatricola returns every loan of the user, active or closed.
	FindByUserMatricola(ctx context.Context, matricola string) ([]domain.Loan, error)

	// FindByBookIsbn returns every loan of the book, active or closed.
	FindByBookIsbn(ctx context.Context, isbn string) ([]domain.Loan, error)

	// FindActiveOrderByDueDate returns all active loans ordered by due date
	// ascending, then matricola, then ISBN.
	FindActiveOrderByDueDate(ctx context.Context) ([]domain.Loan, error)

	// FindActiveByUser returns the user's active loans ordered by due date
	// ascending, then ISBN.
	FindActiveByUser(ctx context.Context, matricola string) ([]domain.Loan, error)
}
