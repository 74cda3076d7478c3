package library

// BookID, UserID and BorrowID are opaque store identifiers. Callers pass them
// back as-is instead of deriving them from display text.
type (
	BookID   int64
	UserID   int64
	BorrowID int64
)

// Book represents catalog metadata and current availability of a book.
type Book struct {
	ID       BookID `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Genre    string `json:"genre"`
	Borrowed bool   `json:"borrowed"`
}

// User represents a registered library user.
type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// Borrow is an open loan of one book to one user.
type Borrow struct {
	ID     BorrowID `json:"id"`
	UserID UserID   `json:"user_id"`
	BookID BookID   `json:"book_id"`
}

// OpenBorrow is the projection used to populate return selections.
type OpenBorrow struct {
	BorrowID BorrowID `json:"borrow_id"`
	BookID   BookID   `json:"book_id"`
	UserID   UserID   `json:"user_id"`
	Title    string   `json:"title"`
}
