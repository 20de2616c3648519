package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

var ErrMissingKey = errors.New("entity has no identifier")

// MemoryStore is a mutex-guarded map keyed by the entity's natural
// identifier. It is the single source of truth between file writes; every
// value that crosses the boundary is cloned so callers can never mutate
// internal storage through a returned reference.
type MemoryStore[ID comparable, T any] struct {
	mu    sync.RWMutex
	keyOf func(T) (ID, error)
	clone func(T) T
	items map[ID]T
}

// NewMemoryStore builds an empty store. keyOf extracts the natural key and
// fails for entities without one; clone produces an independent copy.
func NewMemoryStore[ID comparable, T any](keyOf func(T) (ID, error), clone func(T) T) *MemoryStore[ID, T] {
	return &MemoryStore[ID, T]{
		keyOf: keyOf,
		clone: clone,
		items: make(map[ID]T),
	}
}

func (s *MemoryStore[ID, T]) Save(_ context.Context, entity T) (T, error) {
	id, err := s.keyOf(entity)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = s.clone(entity)
	return entity, nil
}

func (s *MemoryStore[ID, T]) FindByID(_ context.Context, id ID) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	out := s.clone(item)
	return &out, nil
}

func (s *MemoryStore[ID, T]) FindAll(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, s.clone(item))
	}
	return out, nil
}

func (s *MemoryStore[ID, T]) DeleteByID(_ context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryStore[ID, T]) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[ID]T)
	return nil
}

func (s *MemoryStore[ID, T]) ExistsByID(_ context.Context, id ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *MemoryStore[ID, T]) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// MemoryBookStore keeps books keyed by ISBN.
type MemoryBookStore struct {
	*MemoryStore[string, domain.Book]
}

func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{
		MemoryStore: NewMemoryStore(
			func(b domain.Book) (string, error) {
				if b.ISBN == "" {
					return "", ErrMissingKey
				}
				return b.ISBN, nil
			},
			cloneBook,
		),
	}
}

func cloneBook(b domain.Book) domain.Book {
	b.Authors = append([]string(nil), b.Authors...)
	return b
}

func (s *MemoryBookStore) FindByTitleContaining(ctx context.Context, keyword string) ([]domain.Book, error) {
	books, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := books[:0]
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			out = append(out, b)
		}
	}
	sortBooksByTitle(out)
	return out, nil
}

func (s *MemoryBookStore) FindByAuthorContaining(ctx context.Context, keyword string) ([]domain.Book, error) {
	books, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := books[:0]
	for _, b := range books {
		for _, author := range b.Authors {
			if strings.Contains(strings.ToLower(author), needle) {
				out = append(out, b)
				break
			}
		}
	}
	sortBooksByTitle(out)
	return out, nil
}

func (s *MemoryBookStore) FindAllOrderByTitle(ctx context.Context) ([]domain.Book, error) {
	books, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sortBooksByTitle(books)
	return books, nil
}

// MemoryUserStore keeps users keyed by matricola.
type MemoryUserStore struct {
	*MemoryStore[string, domain.User]
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		MemoryStore: NewMemoryStore(
			func(u domain.User) (string, error) {
				if u.Matricola == "" {
					return "", ErrMissingKey
				}
				return u.Matricola, nil
			},
			func(u domain.User) domain.User { return u },
		),
	}
}

func (s *MemoryUserStore) FindByLastNameContaining(ctx context.Context, keyword string) ([]domain.User, error) {
	users, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	out := users[:0]
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.LastName), needle) {
			out = append(out, u)
		}
	}
	sortUsersByName(out)
	return out, nil
}

func (s *MemoryUserStore) FindAllOrderByName(ctx context.Context) ([]domain.User, error) {
	users, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sortUsersByName(users)
	return users, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if strings.ToLower(strings.TrimSpace(u.Email)) == needle {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// MemoryLoanStore keeps loans keyed by the composite ledger key.
type MemoryLoanStore struct {
	*MemoryStore[string, domain.Loan]
}

func NewMemoryLoanStore() *MemoryLoanStore {
	return &MemoryLoanStore{
		MemoryStore: NewMemoryStore(
			func(l domain.Loan) (string, error) {
				if l.Matricola == "" || l.ISBN == "" || l.LoanDate.IsZero() {
					return "", ErrMissingKey
				}
				return l.ID(), nil
			},
			cloneLoan,
		),
	}
}

func cloneLoan(l domain.Loan) domain.Loan {
	if l.ReturnDate != nil {
		d := *l.ReturnDate
		l.ReturnDate = &d
	}
	return l
}

func (s *MemoryLoanStore) FindByUserMatricola(ctx context.Context, matricola string) ([]domain.Loan, error) {
	return s.filter(ctx, func(l domain.Loan) bool { return l.Matricola == matricola })
}

func (s *MemoryLoanStore) FindByBookIsbn(ctx context.Context, isbn string) ([]domain.Loan, error) {
	return s.filter(ctx, func(l domain.Loan) bool { return l.ISBN == isbn })
}

func (s *MemoryLoanStore) FindActiveOrderByDueDate(ctx context.Context) ([]domain.Loan, error) {
	loans, err := s.filter(ctx, domain.Loan.IsActive)
	if err != nil {
		return nil, err
	}
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].DueDate.Equal(loans[j].DueDate) {
			return loans[i].DueDate.Before(loans[j].DueDate)
		}
		if loans[i].Matricola != loans[j].Matricola {
			return loans[i].Matricola < loans[j].Matricola
		}
		return loans[i].ISBN < loans[j].ISBN
	})
	return loans, nil
}

func (s *MemoryLoanStore) FindActiveByUser(ctx context.Context, matricola string) ([]domain.Loan, error) {
	loans, err := s.filter(ctx, func(l domain.Loan) bool {
		return l.IsActive() && l.Matricola == matricola
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].DueDate.Equal(loans[j].DueDate) {
			return loans[i].DueDate.Before(loans[j].DueDate)
		}
		return loans[i].ISBN < loans[j].ISBN
	})
	return loans, nil
}

func (s *MemoryLoanStore) filter(ctx context.Context, keep func(domain.Loan) bool) ([]domain.Loan, error) {
	loans, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := loans[:0]
	for _, l := range loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func sortBooksByTitle(books []domain.Book) {
	sort.Slice(books, func(i, j int) bool {
		if less, done := lessFoldEmptyLast(books[i].Title, books[j].Title); done {
			return less
		}
		return books[i].ISBN < books[j].ISBN
	})
}

func sortUsersByName(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if less, done := lessFoldEmptyLast(users[i].LastName, users[j].LastName); done {
			return less
		}
		if less, done := lessFoldEmptyLast(users[i].FirstName, users[j].FirstName); done {
			return less
		}
		return users[i].Matricola < users[j].Matricola
	})
}

// lessFoldEmptyLast compares case-insensitively with empty values sorting
// last. done is false when the values tie and the next sort key decides.
func lessFoldEmptyLast(a, b string) (less, done bool) {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch {
	case la == lb:
		return false, false
	case la == "":
		return false, true
	case lb == "":
		return true, true
	default:
		return la < lb, true
	}
}
