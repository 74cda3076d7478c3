package library

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddBookThenSearchByISBN(t *testing.T) {
	db := tempDB(t)

	id, err := db.AddBook("Dune", "Frank Herbert", "978-0441013593", "SciFi")
	require.NoError(t, err)

	res, err := db.SearchBooks("978-0441013593")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, &Book{
		ID:     id,
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "978-0441013593",
		Genre:  "SciFi",
	}, res[0])
}

func TestAddBookDuplicateISBN(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)

	_, err = db.AddBook("Other", "Someone", "ISBN1", "Drama")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	books, err := db.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestAddBookValidation(t *testing.T) {
	cases := []struct {
		name                       string
		title, author, isbn, genre string
	}{
		{"missing title", "", "Herbert", "ISBN1", "SciFi"},
		{"missing author", "Dune", "", "ISBN1", "SciFi"},
		{"missing isbn", "Dune", "Herbert", "", "SciFi"},
		{"missing genre", "Dune", "Herbert", "ISBN1", ""},
		{"blank title", "   ", "Herbert", "ISBN1", "SciFi"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := tempDB(t)
			_, err := db.AddBook(tc.title, tc.author, tc.isbn, tc.genre)
			assert.ErrorIs(t, err, ErrValidation)

			books, err := db.GetAllBooks()
			require.NoError(t, err)
			assert.Empty(t, books)
		})
	}
}

func TestAddUserValidation(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddUser("")
	assert.ErrorIs(t, err, ErrValidation)

	users, err := db.GetAllUsers()
	require.NoError(t, err)
	assert.Empty(t, users)

	// Names need not be unique.
	a, err := db.AddUser("Alice")
	require.NoError(t, err)
	b, err := db.AddUser("Alice")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBorrowFlow(t *testing.T) {
	db := tempDB(t)

	bookID, err := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)
	userID, err := db.AddUser("Alice")
	require.NoError(t, err)

	borrowID, gotBookID, err := db.BorrowBook(userID, "ISBN1")
	require.NoError(t, err)
	assert.Equal(t, bookID, gotBookID)

	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.True(t, book.Borrowed)

	_, _, err = db.BorrowBook(userID, "ISBN1")
	assert.ErrorIs(t, err, ErrNotFound)

	available, err := db.GetAvailableBooks()
	require.NoError(t, err)
	assert.Empty(t, available)

	returned, err := db.ReturnBook(borrowID)
	require.NoError(t, err)
	assert.Equal(t, bookID, returned)

	book, err = db.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, book.Borrowed)

	// Borrowable again after the return.
	_, _, err = db.BorrowBook(userID, "ISBN1")
	assert.NoError(t, err)
}

func TestBorrowUnknownBookOrUser(t *testing.T) {
	db := tempDB(t)

	userID, err := db.AddUser("Alice")
	require.NoError(t, err)
	_, err = db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)

	_, _, err = db.BorrowBook(userID, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = db.BorrowBook(userID+100, "ISBN1")
	assert.ErrorIs(t, err, ErrNotFound)

	borrows, err := db.GetOpenBorrows()
	require.NoError(t, err)
	assert.Empty(t, borrows)
}

func TestReturnUnknownBorrow(t *testing.T) {
	db := tempDB(t)

	_, err := db.ReturnBook(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnDeletesOnlyThatBorrow(t *testing.T) {
	db := tempDB(t)

	book1, _ := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	book2, _ := db.AddBook("Emma", "Austen", "ISBN2", "Romance")
	alice, _ := db.AddUser("Alice")

	b1, _, err := db.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)
	_, _, err = db.BorrowBook(alice, "ISBN2")
	require.NoError(t, err)

	_, err = db.ReturnBook(b1)
	require.NoError(t, err)

	open, err := db.GetOpenBorrows()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, book2, open[0].BookID)
	assert.Equal(t, alice, open[0].UserID)
	assert.Equal(t, "Emma", open[0].Title)

	b, _ := db.GetBook(book1)
	assert.False(t, b.Borrowed)
	b, _ = db.GetBook(book2)
	assert.True(t, b.Borrowed)
}

func TestSearchBooks(t *testing.T) {
	db := tempDB(t)

	_, _ = db.AddBook("Dune", "Frank Herbert", "ISBN-001", "SciFi")
	_, _ = db.AddBook("Emma", "Jane Austen", "ISBN-002", "Romance")
	_, _ = db.AddBook("Édes Anna", "Kosztolányi Dezső", "ISBN-003", "Regény")

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"Dune", "Emma", "Édes Anna"}},
		{"dune", []string{"Dune"}},
		{"HERBERT", []string{"Dune"}},
		{"isbn-00", []string{"Dune", "Emma", "Édes Anna"}},
		{"romance", []string{"Emma"}},
		{"ÉDES", []string{"Édes Anna"}},
		{"dezső", []string{"Édes Anna"}},
		{"an", []string{"Dune", "Emma", "Édes Anna"}},
		{"%", nil},
		{"nothing-matches", nil},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			res, err := db.SearchBooks(tc.query)
			require.NoError(t, err)
			titles := make([]string, 0, len(res))
			for _, b := range res {
				titles = append(titles, b.Title)
			}
			if tc.want == nil {
				assert.Empty(t, titles)
				return
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestSearchBooksStableOrder(t *testing.T) {
	db := tempDB(t)

	for _, isbn := range []string{"C", "A", "B"} {
		_, err := db.AddBook("Title "+isbn, "Author", isbn, "Genre")
		require.NoError(t, err)
	}

	first, err := db.SearchBooks("title")
	require.NoError(t, err)
	second, err := db.SearchBooks("title")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "C", first[0].ISBN)
}

func TestDeleteBook(t *testing.T) {
	db := tempDB(t)

	_, err := db.DeleteBook(7, false)
	assert.ErrorIs(t, err, ErrNotFound)

	bookID, _ := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	userID, _ := db.AddUser("Alice")
	borrowID, _, err := db.BorrowBook(userID, "ISBN1")
	require.NoError(t, err)

	dangling, err := db.DeleteBook(bookID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dangling)

	_, err = db.GetBook(bookID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The borrow row survives but no longer shows up in the open list.
	rows, err := db.GetBorrowsByBook(bookID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, borrowID, rows[0].ID)

	open, err := db.GetOpenBorrows()
	require.NoError(t, err)
	assert.Empty(t, open)

	// Returning the dangling borrow still removes it.
	_, err = db.ReturnBook(borrowID)
	require.NoError(t, err)
	rows, err = db.GetBorrowsByBook(bookID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteBookWithRepair(t *testing.T) {
	db := tempDB(t)

	bookID, _ := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	userID, _ := db.AddUser("Alice")
	_, _, err := db.BorrowBook(userID, "ISBN1")
	require.NoError(t, err)

	removed, err := db.DeleteBook(bookID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err := db.GetBorrowsByBook(bookID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteUserCascadesBorrows(t *testing.T) {
	db := tempDB(t)

	_, err := db.DeleteUser(3, false)
	assert.ErrorIs(t, err, ErrNotFound)

	bookID, _ := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	_, _ = db.AddBook("Emma", "Austen", "ISBN2", "Romance")
	alice, _ := db.AddUser("Alice")
	bob, _ := db.AddUser("Bob")

	_, _, err = db.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)
	_, _, err = db.BorrowBook(bob, "ISBN2")
	require.NoError(t, err)

	deleted, err := db.DeleteUser(alice, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = db.GetUser(alice)
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err := db.GetBorrowsByUser(alice)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = db.GetBorrowsByUser(bob)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// The book Alice had stays flagged as borrowed with no borrow row.
	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.True(t, book.Borrowed)
	_, _, err = db.BorrowBook(bob, "ISBN1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserWithRepair(t *testing.T) {
	db := tempDB(t)

	bookID, _ := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	alice, _ := db.AddUser("Alice")
	_, _, err := db.BorrowBook(alice, "ISBN1")
	require.NoError(t, err)

	_, err = db.DeleteUser(alice, true)
	require.NoError(t, err)

	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.False(t, book.Borrowed)
}

func TestConcurrentBorrowSingleWinner(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)

	const borrowers = 8
	users := make([]UserID, borrowers)
	for i := range users {
		users[i], err = db.AddUser("reader")
		require.NoError(t, err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		notFound int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u UserID) {
			defer wg.Done()
			_, _, err := db.BorrowBook(u, "ISBN1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrNotFound):
				notFound++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, borrowers-1, notFound)

	open, err := db.GetOpenBorrows()
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lib.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	_, err = db.AddBook("Dune", "Herbert", "ISBN1", "SciFi")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	books, err := db.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, books, 1)
}
