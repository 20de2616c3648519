package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

func TestFileBookStore_CreatesFileWithHeaderWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")

	_, err := NewFileBookStore(path, NewMemoryBookStore())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, booksHeader+"\n", string(raw))
}

func TestFileBookStore_LoadsExistingFileOnConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	content := booksHeader + "\n" +
		"9781111111111|First|Ada Lovelace;Alan Turing|1999|3|2\n" +
		"9782222222222|Second||2005|1|1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mem := NewMemoryBookStore()
	// seed the delegate with stale content that the load must replace
	_, err := mem.Save(context.Background(), book("9789999999999", "Stale"))
	require.NoError(t, err)

	store, err := NewFileBookStore(path, mem)
	require.NoError(t, err)

	ctx := context.Background()
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stale, err := store.FindByID(ctx, "9789999999999")
	require.NoError(t, err)
	assert.Nil(t, stale, "construction replaces the delegate content wholesale")

	first, err := store.FindByID(ctx, "9781111111111")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Authors)
	assert.Equal(t, 2, first.AvailableCopies)
}

func TestFileBookStore_PersistsWholeSnapshotAfterEachMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	store, err := NewFileBookStore(path, NewMemoryBookStore())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Save(ctx, book("9781111111111", "One"))
	require.NoError(t, err)
	_, err = store.Save(ctx, book("9782222222222", "Two"))
	require.NoError(t, err)

	lines := readFileLines(t, path)
	assert.Len(t, lines, 3, "header plus both records")

	require.NoError(t, store.DeleteByID(ctx, "9781111111111"))
	lines = readFileLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, booksHeader, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "9782222222222|"))

	require.NoError(t, store.DeleteAll(ctx))
	lines = readFileLines(t, path)
	assert.Equal(t, []string{booksHeader}, lines)
}

func TestFileBookStore_ReloadSeesPreviousWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")

	store, err := NewFileBookStore(path, NewMemoryBookStore())
	require.NoError(t, err)
	_, err = store.Save(context.Background(), book("9781111111111", "Persisted", "Somebody"))
	require.NoError(t, err)

	reloaded, err := NewFileBookStore(path, NewMemoryBookStore())
	require.NoError(t, err)
	found, err := reloaded.FindByID(context.Background(), "9781111111111")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Persisted", found.Title)
}

func TestFileBookStore_SaveFailsOnUnencodableEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	store, err := NewFileBookStore(path, NewMemoryBookStore())
	require.NoError(t, err)

	bad := book("9781111111111", "contains|separator")
	_, err = store.Save(context.Background(), bad)
	assert.Error(t, err, "an unwritable mutation must surface, not vanish")
}

func TestFileBookStore_ConstructionFailsOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	require.NoError(t, os.WriteFile(path, []byte(booksHeader+"\nnot-a-record\n"), 0o644))

	_, err := NewFileBookStore(path, NewMemoryBookStore())
	assert.Error(t, err)
}

func TestFileLoanStore_RoundTripActiveAndClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.txt")
	store, err := NewFileLoanStore(path, NewMemoryLoanStore())
	require.NoError(t, err)

	ctx := context.Background()
	active := domain.NewLoan("0612709530", "9781111111111", date(2024, 3, 1), date(2024, 3, 15))
	closed := domain.NewLoan("0612709530", "9782222222222", date(2024, 2, 1), date(2024, 2, 15)).
		WithReturnDate(date(2024, 2, 10))
	_, err = store.Save(ctx, active)
	require.NoError(t, err)
	_, err = store.Save(ctx, closed)
	require.NoError(t, err)

	reloaded, err := NewFileLoanStore(path, NewMemoryLoanStore())
	require.NoError(t, err)

	gotActive, err := reloaded.FindByID(ctx, active.ID())
	require.NoError(t, err)
	require.NotNil(t, gotActive)
	assert.Equal(t, active, *gotActive)

	gotClosed, err := reloaded.FindByID(ctx, closed.ID())
	require.NoError(t, err)
	require.NotNil(t, gotClosed)
	assert.Equal(t, closed, *gotClosed)
}

func TestFileUserStore_FindersDelegateToMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	store, err := NewFileUserStore(path, NewMemoryUserStore())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Save(ctx, domain.User{Matricola: "0000000002", FirstName: "Anna", LastName: "Bianchi", Email: "a@studenti.unisa.it"})
	require.NoError(t, err)
	_, err = store.Save(ctx, domain.User{Matricola: "0000000001", FirstName: "Bruno", LastName: "Albano", Email: "b@studenti.unisa.it"})
	require.NoError(t, err)

	users, err := store.FindAllOrderByName(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Albano", users[0].LastName)
	assert.Equal(t, "Bianchi", users[1].LastName)
}

func readFileLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}
