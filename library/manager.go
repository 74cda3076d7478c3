package library

import (
	"fmt"
	"io"
	"log/slog"
)

const (
	logAttrError    = "error"
	logAttrBookID   = "book_id"
	logAttrUserID   = "user_id"
	logAttrBorrowID = "borrow_id"
	logAttrISBN     = "isbn"
	logAttrBorrows  = "borrows"
	logAttrCount    = "count"
	logAttrQuery    = "query"
)

// LibraryManager is the catalog store used by the presentation layer. It is a
// thin façade over the Database that adds logging and the delete policy.
type LibraryManager struct {
	db             *Database
	logger         *slog.Logger
	repairOnDelete bool
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithLogger sets the logger. Mutations are logged at Info, rejected
// operations at Warn, infrastructure failures at Error.
func WithLogger(logger *slog.Logger) Option {
	return func(lm *LibraryManager) {
		if logger != nil {
			lm.logger = logger
		}
	}
}

// WithRepairOnDelete makes DeleteBook drop the deleted book's borrow rows and
// DeleteUser clear the borrowed flag of the user's books. Off by default, in
// which case both deletes leave the catalog inconsistent exactly as described
// on DeleteBook and DeleteUser.
func WithRepairOnDelete(on bool) Option {
	return func(lm *LibraryManager) {
		lm.repairOnDelete = on
	}
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	lm := &LibraryManager{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Book helpers ------------------

// AddBook adds a book to the catalog. Fails with ErrValidation when a field is
// empty and ErrDuplicateKey when the ISBN is taken.
func (lm *LibraryManager) AddBook(title, author, isbn, genre string) (BookID, error) {
	id, err := lm.db.AddBook(title, author, isbn, genre)
	if err != nil {
		lm.logFailure("add book", err, logAttrISBN, isbn)
		return 0, err
	}
	lm.logger.Info("book added", logAttrBookID, id, logAttrISBN, isbn)
	return id, nil
}

// DeleteBook removes a book, borrowed or not. Unless repair on delete is
// enabled, an open borrow of the book is left pointing at nothing.
func (lm *LibraryManager) DeleteBook(id BookID) error {
	borrows, err := lm.db.DeleteBook(id, lm.repairOnDelete)
	if err != nil {
		lm.logFailure("delete book", err, logAttrBookID, id)
		return err
	}
	lm.logger.Info("book deleted", logAttrBookID, id)
	if borrows > 0 {
		if lm.repairOnDelete {
			lm.logger.Info("removed borrows of deleted book", logAttrBookID, id, logAttrBorrows, borrows)
		} else {
			lm.logger.Warn("deleted book still has open borrows", logAttrBookID, id, logAttrBorrows, borrows)
		}
	}
	return nil
}

func (lm *LibraryManager) GetBook(id BookID) (*Book, error) { return lm.db.GetBook(id) }
func (lm *LibraryManager) ListBooks() ([]*Book, error)      { return lm.db.GetAllBooks() }

// ListAvailableBooks returns the books that can be borrowed right now.
func (lm *LibraryManager) ListAvailableBooks() ([]*Book, error) { return lm.db.GetAvailableBooks() }

// ------------------ User helpers ------------------

// AddUser registers a user. Fails with ErrValidation when name is empty.
func (lm *LibraryManager) AddUser(name string) (UserID, error) {
	id, err := lm.db.AddUser(name)
	if err != nil {
		lm.logFailure("add user", err)
		return 0, err
	}
	lm.logger.Info("user added", logAttrUserID, id)
	return id, nil
}

// DeleteUser removes a user and their borrow rows. Unless repair on delete is
// enabled, the books they had out stay marked as borrowed.
func (lm *LibraryManager) DeleteUser(id UserID) error {
	borrows, err := lm.db.DeleteUser(id, lm.repairOnDelete)
	if err != nil {
		lm.logFailure("delete user", err, logAttrUserID, id)
		return err
	}
	lm.logger.Info("user deleted", logAttrUserID, id, logAttrBorrows, borrows)
	if borrows > 0 && !lm.repairOnDelete {
		lm.logger.Warn("books of deleted user remain marked as borrowed", logAttrUserID, id, logAttrBorrows, borrows)
	}
	return nil
}

func (lm *LibraryManager) GetUser(id UserID) (*User, error) { return lm.db.GetUser(id) }
func (lm *LibraryManager) ListUsers() ([]*User, error)      { return lm.db.GetAllUsers() }

// ------------------ Search ------------------

func (lm *LibraryManager) SearchBooks(q string) ([]*Book, error) {
	books, err := lm.db.SearchBooks(q)
	if err != nil {
		lm.logFailure("search books", err, logAttrQuery, q)
		return nil, err
	}
	lm.logger.Debug("books searched", logAttrQuery, q, logAttrCount, len(books))
	return books, nil
}

// ------------------ Circulation ------------------

// BorrowBook lends the book with the given ISBN to the user. Fails with
// ErrNotFound when the user is unknown or no such book is available.
func (lm *LibraryManager) BorrowBook(userID UserID, isbn string) (BorrowID, error) {
	borrowID, bookID, err := lm.db.BorrowBook(userID, isbn)
	if err != nil {
		lm.logFailure("borrow book", err, logAttrUserID, userID, logAttrISBN, isbn)
		return 0, err
	}
	lm.logger.Info("book borrowed",
		logAttrBorrowID, borrowID,
		logAttrBookID, bookID,
		logAttrUserID, userID,
	)
	return borrowID, nil
}

// ReturnBook closes the loan and makes its book available again.
func (lm *LibraryManager) ReturnBook(borrowID BorrowID) error {
	bookID, err := lm.db.ReturnBook(borrowID)
	if err != nil {
		lm.logFailure("return book", err, logAttrBorrowID, borrowID)
		return err
	}
	lm.logger.Info("book returned", logAttrBorrowID, borrowID, logAttrBookID, bookID)
	return nil
}

// ListOpenBorrows returns the loans that can be returned.
func (lm *LibraryManager) ListOpenBorrows() ([]*OpenBorrow, error) { return lm.db.GetOpenBorrows() }

func (lm *LibraryManager) BorrowsByUser(id UserID) ([]*Borrow, error) {
	return lm.db.GetBorrowsByUser(id)
}

func (lm *LibraryManager) BorrowsByBook(id BookID) ([]*Borrow, error) {
	return lm.db.GetBorrowsByBook(id)
}

// ------------------ Utilities ------------------

// logFailure logs rejected requests at Warn and anything else at Error.
func (lm *LibraryManager) logFailure(op string, err error, args ...any) {
	args = append(args, logAttrError, err.Error())
	if IsUserError(err) {
		lm.logger.Warn(op+" rejected", args...)
		return
	}
	lm.logger.Error(op+" failed", args...)
}

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	status := "available"
	if b.Borrowed {
		status = "borrowed"
	}
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-12s %s", b.ID, b.Title, b.Author, b.ISBN, b.Genre, status)
}
