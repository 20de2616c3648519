package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

// FileStore decorates an in-memory store with whole-file snapshot
// persistence. On construction it replaces the delegate's content with
// whatever the backing file holds (creating the file with just its header
// when absent); after every mutating call it re-serializes the delegate's
// entire collection. The delegate is the single source of truth between
// writes, so a FileStore must never share its file with another instance.
type FileStore[ID comparable, T any] struct {
	delegate port.Repository[ID, T]
	codec    LineCodec[T]
	path     string
}

// NewFileStore wires the decorator and synchronizes the delegate with the
// backing file.
func NewFileStore[ID comparable, T any](path string, codec LineCodec[T], delegate port.Repository[ID, T]) (*FileStore[ID, T], error) {
	s := &FileStore[ID, T]{
		delegate: delegate,
		codec:    codec,
		path:     path,
	}
	if err := s.loadFromFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore[ID, T]) loadFromFile() error {
	lines, err := readLines(s.path, s.codec.Header())
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := s.delegate.DeleteAll(ctx); err != nil {
		return err
	}
	for _, line := range lines {
		entity, err := s.codec.Decode(line)
		if err != nil {
			return errors.Wrapf(err, "loading %s", s.path)
		}
		if _, err := s.delegate.Save(ctx, entity); err != nil {
			return errors.Wrapf(err, "loading %s", s.path)
		}
	}
	return nil
}

// persistAll rewrites the whole backing file from the delegate's current
// content. Callers must not swallow its error: a failed write means the
// in-memory mutation is not on disk.
func (s *FileStore[ID, T]) persistAll(ctx context.Context) error {
	all, err := s.delegate.FindAll(ctx)
	if err != nil {
		return err
	}
	lines := make([]string, 0, len(all)+1)
	lines = append(lines, s.codec.Header())
	for _, entity := range all {
		line, err := s.codec.Encode(entity)
		if err != nil {
			return errors.Wrapf(err, "saving %s", s.path)
		}
		lines = append(lines, line)
	}
	return writeLines(s.path, lines)
}

func (s *FileStore[ID, T]) Save(ctx context.Context, entity T) (T, error) {
	saved, err := s.delegate.Save(ctx, entity)
	if err != nil {
		return saved, err
	}
	if err := s.persistAll(ctx); err != nil {
		var zero T
		return zero, err
	}
	return saved, nil
}

func (s *FileStore[ID, T]) FindByID(ctx context.Context, id ID) (*T, error) {
	return s.delegate.FindByID(ctx, id)
}

func (s *FileStore[ID, T]) FindAll(ctx context.Context) ([]T, error) {
	return s.delegate.FindAll(ctx)
}

func (s *FileStore[ID, T]) DeleteByID(ctx context.Context, id ID) error {
	if err := s.delegate.DeleteByID(ctx, id); err != nil {
		return err
	}
	return s.persistAll(ctx)
}

func (s *FileStore[ID, T]) DeleteAll(ctx context.Context) error {
	if err := s.delegate.DeleteAll(ctx); err != nil {
		return err
	}
	return s.persistAll(ctx)
}

func (s *FileStore[ID, T]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	return s.delegate.ExistsByID(ctx, id)
}

func (s *FileStore[ID, T]) Count(ctx context.Context) (int, error) {
	return s.delegate.Count(ctx)
}

// FileBookStore is the file-backed book repository.
type FileBookStore struct {
	*FileStore[string, domain.Book]
	mem *MemoryBookStore
}

func NewFileBookStore(path string, delegate *MemoryBookStore) (*FileBookStore, error) {
	fs, err := NewFileStore[string, domain.Book](path, BookCodec(), delegate)
	if err != nil {
		return nil, err
	}
	return &FileBookStore{FileStore: fs, mem: delegate}, nil
}

func (s *FileBookStore) FindByTitleContaining(ctx context.Context, keyword string) ([]domain.Book, error) {
	return s.mem.FindByTitleContaining(ctx, keyword)
}

func (s *FileBookStore) FindByAuthorContaining(ctx context.Context, keyword string) ([]domain.Book, error) {
	return s.mem.FindByAuthorContaining(ctx, keyword)
}

func (s *FileBookStore) FindAllOrderByTitle(ctx context.Context) ([]domain.Book, error) {
	return s.mem.FindAllOrderByTitle(ctx)
}

// FileUserStore is the file-backed user repository.
type FileUserStore struct {
	*FileStore[string, domain.User]
	mem *MemoryUserStore
}

func NewFileUserStore(path string, delegate *MemoryUserStore) (*FileUserStore, error) {
	fs, err := NewFileStore[string, domain.User](path, UserCodec(), delegate)
	if err != nil {
		return nil, err
	}
	return &FileUserStore{FileStore: fs, mem: delegate}, nil
}

func (s *FileUserStore) FindByLastNameContaining(ctx context.Context, keyword string) ([]domain.User, error) {
	return s.mem.FindByLastNameContaining(ctx, keyword)
}

func (s *FileUserStore) FindAllOrderByName(ctx context.Context) ([]domain.User, error) {
	return s.mem.FindAllOrderByName(ctx)
}

func (s *FileUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.mem.FindByEmail(ctx, email)
}

// FileLoanStore is the file-backed loan repository.
type FileLoanStore struct {
	*FileStore[string, domain.Loan]
	mem *MemoryLoanStore
}

func NewFileLoanStore(path string, delegate *MemoryLoanStore) (*FileLoanStore, error) {
	fs, err := NewFileStore[string, domain.Loan](path, LoanCodec(), delegate)
	if err != nil {
		return nil, err
	}
	return &FileLoanStore{FileStore: fs, mem: delegate}, nil
}

func (s *FileLoanStore) FindByUserMatricola(ctx context.Context, matricola string) ([]domain.Loan, error) {
	return s.mem.FindByUserMatricola(ctx, matricola)
}

func (s *FileLoanStore) FindByBookIsbn(ctx context.Context, isbn string) ([]domain.Loan, error) {
	return s.mem.FindByBookIsbn(ctx, isbn)
}

func (s *FileLoanStore) FindActiveOrderByDueDate(ctx context.Context) ([]domain.Loan, error) {
	return s.mem.FindActiveOrderByDueDate(ctx)
}

func (s *FileLoanStore) FindActiveByUser(ctx context.Context, matricola string) ([]domain.Loan, error) {
	return s.mem.FindActiveByUser(ctx, matricola)
}

// readLines returns the record lines of the backing file, header excluded.
// A missing file is created holding only the header.
func readLines(path, header string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := writeLines(path, []string{header}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	records := make([]string, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		if i == 0 && line == header {
			continue
		}
		records = append(records, line)
	}
	return records, nil
}

// writeLines writes the file through a temp file and a rename so a crashed
// write never leaves a half-written snapshot behind.
func writeLines(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", path)
		}
	}
	tmp := path + ".tmp"
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}
