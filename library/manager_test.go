package library

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...Option) *LibraryManager {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewLibraryManager(filepath.Join(dir, "lib.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestEndToEndBorrowAndReturn(t *testing.T) {
	mgr := newManager(t)

	bookID, err := mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)
	assert.Equal(t, BookID(1), bookID)

	userID, err := mgr.AddUser("Alice")
	require.NoError(t, err)
	assert.Equal(t, UserID(1), userID)

	borrowID, err := mgr.BorrowBook(userID, "ISBN1")
	require.NoError(t, err)
	assert.Equal(t, BorrowID(1), borrowID)

	book, err := mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.True(t, book.Borrowed)

	_, err = mgr.BorrowBook(userID, "ISBN1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mgr.ReturnBook(borrowID))

	book, err = mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, book.Borrowed)

	open, err := mgr.ListOpenBorrows()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestListProjectionsReflectCurrentState(t *testing.T) {
	mgr := newManager(t)

	_, _ = mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	_, _ = mgr.AddBook("Emma", "Austen", "ISBN2", "Romance")
	alice, _ := mgr.AddUser("Alice")

	available, err := mgr.ListAvailableBooks()
	require.NoError(t, err)
	assert.Len(t, available, 2)

	borrowID, err := mgr.BorrowBook(alice, "ISBN2")
	require.NoError(t, err)

	available, err = mgr.ListAvailableBooks()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "ISBN1", available[0].ISBN)

	open, err := mgr.ListOpenBorrows()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, OpenBorrow{BorrowID: borrowID, BookID: 2, UserID: alice, Title: "Emma"}, *open[0])

	users, err := mgr.ListUsers()
	require.NoError(t, err)
	assert.Equal(t, []*User{{ID: alice, Name: "Alice"}}, users)

	all, err := mgr.ListBooks()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepairOnDelete(t *testing.T) {
	mgr := newManager(t, WithRepairOnDelete(true))

	bookID, _ := mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	alice, _ := mgr.AddUser("Alice")
	_, err := mgr.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteUser(alice))

	book, err := mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, book.Borrowed)

	bob, _ := mgr.AddUser("Bob")
	_, err = mgr.BorrowBook(bob, "ISBN1")
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteBook(bookID))
	rows, err := mgr.BorrowsByBook(bookID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDefectsPreservedByDefault(t *testing.T) {
	mgr := newManager(t)

	bookID, _ := mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	alice, _ := mgr.AddUser("Alice")
	_, err := mgr.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteUser(alice))

	book, err := mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.True(t, book.Borrowed, "book stays stranded as borrowed")

	rows, err := mgr.BorrowsByUser(alice)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestManagerLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mgr := newManager(t, WithLogger(logger))

	bookID, err := mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="book added" book_id=1 isbn=ISBN1`)

	buf.Reset()
	_, err = mgr.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="add book rejected"`)

	alice, _ := mgr.AddUser("Alice")
	_, err = mgr.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, mgr.DeleteBook(bookID))
	assert.Contains(t, buf.String(), `msg="deleted book still has open borrows"`)

	buf.Reset()
	_, err = mgr.SearchBooks("dune")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(&Book{ID: 3, Title: "Dune", Author: "Herbert", ISBN: "ISBN1", Genre: "SciFi", Borrowed: true})
	assert.Contains(t, line, "Dune")
	assert.Contains(t, line, "borrowed")
}
