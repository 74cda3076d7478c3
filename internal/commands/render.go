package commands

import (
	"fmt"
	"strconv"

	"library-catalog/internal/output"
	"library-catalog/library"
)

func renderBooks(p *output.Printer, books []*library.Book, empty string) {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		status := "available"
		if b.Borrowed {
			status = "borrowed"
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(b.ID), 10),
			output.Truncate(b.Title, 30),
			output.Truncate(b.Author, 25),
			b.ISBN,
			output.Truncate(b.Genre, 15),
			status,
		})
	}
	p.Table([]string{"ID", "Title", "Author", "ISBN", "Genre", "Status"}, rows, empty)
}

func renderUsers(p *output.Printer, users []*library.User) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{strconv.FormatInt(int64(u.ID), 10), output.Truncate(u.Name, 40)})
	}
	p.Table([]string{"ID", "Name"}, rows, "No users registered.")
}

func renderOpenBorrows(p *output.Printer, borrows []*library.OpenBorrow) {
	rows := make([][]string, 0, len(borrows))
	for _, b := range borrows {
		rows = append(rows, []string{
			strconv.FormatInt(int64(b.BorrowID), 10),
			strconv.FormatInt(int64(b.BookID), 10),
			strconv.FormatInt(int64(b.UserID), 10),
			output.Truncate(b.Title, 40),
		})
	}
	p.Table([]string{"Borrow", "Book", "User", "Title"}, rows, "No open borrows.")
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, s)
	}
	return id, nil
}
