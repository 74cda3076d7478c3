package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func newBookCommand(a *app) *cobra.Command {
	bookCmd := &cobra.Command{
		Use:   "book",
		Short: "Add, list, search and delete books",
	}
	bookCmd.AddCommand(
		newBookAddCommand(a),
		newBookListCommand(a),
		newBookSearchCommand(a),
		newBookDeleteCommand(a),
	)
	return bookCmd
}

func newBookAddCommand(a *app) *cobra.Command {
	var title, author, isbn, genre string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Long: `Add a book. Title, author, ISBN and genre are all required and the
ISBN must not already be in the catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			id, err := mgr.AddBook(title, author, isbn, genre)
			if err != nil {
				return err
			}
			printer(cmd).Success("Book added with ID %d.", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Book title")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author")
	cmd.Flags().StringVarP(&isbn, "isbn", "i", "", "ISBN (unique)")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Genre")

	return cmd
}

func newBookListCommand(a *app) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			var books []*library.Book
			if availableOnly {
				books, err = mgr.ListAvailableBooks()
			} else {
				books, err = mgr.ListBooks()
			}
			if err != nil {
				return err
			}
			renderBooks(printer(cmd), books, "No books in the catalog.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&availableOnly, "available", false, "Only books that can be borrowed")

	return cmd
}

func newBookSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search books by title, author, ISBN or genre",
		Long: `Case-insensitive substring search over title, author, ISBN and genre.
Without a query every book is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			books, err := mgr.SearchBooks(query)
			if err != nil {
				return err
			}
			renderBooks(printer(cmd), books, "No matches.")
			return nil
		},
	}
}

func newBookDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book",
		Long: `Delete a book, even while it is borrowed. Unless --repair-on-delete is
set, an open borrow of the book is left in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			if err := mgr.DeleteBook(library.BookID(id)); err != nil {
				return err
			}
			printer(cmd).Success("Book %d deleted.", id)
			return nil
		},
	}
}
