package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

const (
	driverName = "sqlite3_library"
	fnCaseFold = "casefold"
)

func init() {
	// casefold gives search Unicode-aware case-insensitivity; SQLite's
	// built-in LIKE and lower() only fold ASCII.
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(fnCaseFold, foldCase, true)
		},
	})
}

func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db *sql.DB

	addBookStmt *sql.Stmt
	addUserStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, creates the
// schema if absent, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Foreign keys stay unenforced: deleting a borrowed book must succeed and
	// leave its borrow row behind. _txlock=immediate takes the write lock at
	// BEGIN so check-then-set sequences cannot interleave.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=0&_txlock=immediate", dbPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addUserStmt != nil {
		d.addUserStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func applySchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            genre TEXT NOT NULL,
            is_borrowed INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS borrows (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            book_id INTEGER NOT NULL REFERENCES books(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_user ON borrows(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_book ON borrows(book_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author,isbn,genre) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addUserStmt, err = d.db.Prepare(`INSERT INTO users(name) VALUES(?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// CRUD helpers
// ---------------------------------------------------------------------------

// AddBook inserts a book with borrowed=false. Every field is required and the
// ISBN must not already be in the catalog.
func (d *Database) AddBook(title, author, isbn, genre string) (BookID, error) {
	title, author, isbn, genre = strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(isbn), strings.TrimSpace(genre)
	if err := requireFields("title", title, "author", author, "isbn", isbn, "genre", genre); err != nil {
		return 0, err
	}

	res, err := d.addBookStmt.Exec(title, author, isbn, genre)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: isbn %q already exists", ErrDuplicateKey, isbn)
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return BookID(id), err
}

// AddUser inserts a user. Names are not unique.
func (d *Database) AddUser(name string) (UserID, error) {
	name = strings.TrimSpace(name)
	if err := requireFields("name", name); err != nil {
		return 0, err
	}

	res, err := d.addUserStmt.Exec(name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return UserID(id), err
}

func (d *Database) GetBook(id BookID) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,isbn,genre,is_borrowed FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.Borrowed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: book %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetUser fetches a single user.
func (d *Database) GetUser(id UserID) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id,name FROM users WHERE id=?`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BorrowBook records a loan of the available book with the given ISBN and
// flips its borrowed flag in one transaction. Availability is read inside the
// transaction, never taken from an earlier listing.
func (d *Database) BorrowBook(userID UserID, isbn string) (BorrowID, BookID, error) {
	isbn = strings.TrimSpace(isbn)

	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return 0, 0, err
	}
	if !exists {
		return 0, 0, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	var bookID BookID
	err = tx.QueryRow(`SELECT id FROM books WHERE isbn=? AND is_borrowed=0`, isbn).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: no available book with isbn %q", ErrNotFound, isbn)
	}
	if err != nil {
		return 0, 0, err
	}

	res, err := tx.Exec(`UPDATE books SET is_borrowed=1 WHERE id=? AND is_borrowed=0`, bookID)
	if err != nil {
		return 0, 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, 0, err
	} else if n == 0 {
		return 0, 0, fmt.Errorf("%w: book %d already borrowed", ErrNotFound, bookID)
	}

	res, err = tx.Exec(`INSERT INTO borrows(user_id,book_id) VALUES(?,?)`, userID, bookID)
	if err != nil {
		return 0, 0, err
	}
	borrowID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	return BorrowID(borrowID), bookID, tx.Commit()
}

// ReturnBook closes the loan and makes the book available again. The book is
// looked up from the borrow row itself. Returns the id of the returned book.
func (d *Database) ReturnBook(borrowID BorrowID) (BookID, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bookID BookID
	err = tx.QueryRow(`SELECT book_id FROM borrows WHERE id=?`, borrowID).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: borrow %d", ErrNotFound, borrowID)
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`DELETE FROM borrows WHERE id=?`, borrowID); err != nil {
		return 0, err
	}
	// The book may already be gone (deleted mid-loan); that is not an error.
	if _, err := tx.Exec(`UPDATE books SET is_borrowed=0 WHERE id=?`, bookID); err != nil {
		return 0, err
	}

	return bookID, tx.Commit()
}

// DeleteBook removes the book even while it is borrowed. With repair=false any
// borrow rows pointing at it are left dangling; with repair=true they are
// removed too. The returned count is the number of such borrow rows.
func (d *Database) DeleteBook(id BookID, repair bool) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, fmt.Errorf("%w: book %d", ErrNotFound, id)
	}

	var borrows int64
	if repair {
		res, err := tx.Exec(`DELETE FROM borrows WHERE book_id=?`, id)
		if err != nil {
			return 0, err
		}
		if borrows, err = res.RowsAffected(); err != nil {
			return 0, err
		}
	} else if err := tx.QueryRow(`SELECT COUNT(*) FROM borrows WHERE book_id=?`, id).Scan(&borrows); err != nil {
		return 0, err
	}

	return borrows, tx.Commit()
}

// DeleteUser removes the user and every borrow row referencing them. With
// repair=false the affected books keep borrowed=true; with repair=true their
// flag is cleared. The returned count is the number of borrow rows deleted.
func (d *Database) DeleteUser(id UserID, repair bool) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}

	if repair {
		if _, err := tx.Exec(`UPDATE books SET is_borrowed=0 WHERE id IN (SELECT book_id FROM borrows WHERE user_id=?)`, id); err != nil {
			return 0, err
		}
	}

	res, err = tx.Exec(`DELETE FROM borrows WHERE user_id=?`, id)
	if err != nil {
		return 0, err
	}
	borrows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return borrows, tx.Commit()
}

// ---------------------------------------------------------------------------
// Read projections
// ---------------------------------------------------------------------------

// SearchBooks returns books whose title, author, isbn or genre contains q,
// ignoring case. An empty query returns every book.
func (d *Database) SearchBooks(q string) ([]*Book, error) {
	query, args, err := buildSearchBooksQuery(q)
	if err != nil {
		return nil, err
	}
	return d.queryBooks(query, args...)
}

// GetAllBooks returns every book in id order.
func (d *Database) GetAllBooks() ([]*Book, error) {
	query, args, err := buildListBooksQuery(false)
	if err != nil {
		return nil, err
	}
	return d.queryBooks(query, args...)
}

// GetAvailableBooks returns books that are not borrowed, in id order.
func (d *Database) GetAvailableBooks() ([]*Book, error) {
	query, args, err := buildListBooksQuery(true)
	if err != nil {
		return nil, err
	}
	return d.queryBooks(query, args...)
}

// GetAllUsers returns all users.
func (d *Database) GetAllUsers() ([]*User, error) {
	query, args, err := buildListUsersQuery()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// GetOpenBorrows returns open loans joined with their book title. Borrow rows
// whose book has been deleted are not listed.
func (d *Database) GetOpenBorrows() ([]*OpenBorrow, error) {
	query, args, err := buildOpenBorrowsQuery()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	borrows := []*OpenBorrow{}
	for rows.Next() {
		var b OpenBorrow
		if err := rows.Scan(&b.BorrowID, &b.BookID, &b.UserID, &b.Title); err != nil {
			return nil, err
		}
		borrows = append(borrows, &b)
	}
	return borrows, rows.Err()
}

// GetBorrowsByUser returns every borrow row for the user, including rows whose
// book no longer exists.
func (d *Database) GetBorrowsByUser(id UserID) ([]*Borrow, error) {
	return d.queryBorrows(`SELECT id,user_id,book_id FROM borrows WHERE user_id=? ORDER BY id`, id)
}

// GetBorrowsByBook returns every borrow row for the book.
func (d *Database) GetBorrowsByBook(id BookID) ([]*Borrow, error) {
	return d.queryBorrows(`SELECT id,user_id,book_id FROM borrows WHERE book_id=? ORDER BY id`, id)
}

func (d *Database) queryBooks(query string, args ...any) ([]*Book, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.Borrowed); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

func (d *Database) queryBorrows(query string, args ...any) ([]*Borrow, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	borrows := []*Borrow{}
	for rows.Next() {
		var b Borrow
		if err := rows.Scan(&b.ID, &b.UserID, &b.BookID); err != nil {
			return nil, err
		}
		borrows = append(borrows, &b)
	}
	return borrows, rows.Err()
}

// requireFields takes name/value pairs and reports every empty value.
func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
