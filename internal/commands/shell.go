package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-catalog/internal/output"
	"library-catalog/library"
)

var _ Catalog = (*library.LibraryManager)(nil)

const shellHelp = `Available commands:
  Books: add book, list books, search, delete book
  Users: add user, list users, delete user
  Circulation: borrow, return, list borrows
  System: info, help, exit`

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt over the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			s := &shell{
				sc:      bufio.NewScanner(cmd.InOrStdin()),
				w:       cmd.OutOrStdout(),
				p:       printer(cmd),
				catalog: mgr,
				info:    a.infoLines(),
			}
			return s.run(isTerminal(cmd.InOrStdin()))
		},
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) infoLines() []string {
	lines := []string{"Library catalog " + a.version}
	if a.cfg != nil {
		lines = append(lines,
			"Database: "+a.cfg.Database.Path,
			fmt.Sprintf("Repair on delete: %t", a.cfg.Catalog.RepairOnDelete),
		)
	}
	return lines
}

type shell struct {
	sc      *bufio.Scanner
	w       io.Writer
	p       *output.Printer
	catalog Catalog
	info    []string
}

func (s *shell) run(interactive bool) error {
	if interactive {
		fmt.Fprintln(s.w, "Welcome to the library catalog.")
	}
	fmt.Fprintln(s.w, shellHelp)

	for {
		fmt.Fprint(s.w, "\n> ")
		if !s.sc.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))

		switch cmd {
		case "":
			continue
		case "add book":
			s.addBook()
		case "add user":
			s.addUser()
		case "list books":
			s.listBooks()
		case "list users":
			s.listUsers()
		case "list borrows":
			s.listBorrows()
		case "search":
			s.search()
		case "borrow":
			s.borrow()
		case "return":
			s.returnBook()
		case "delete book":
			s.deleteBook()
		case "delete user":
			s.deleteUser()
		case "info":
			for _, line := range s.info {
				fmt.Fprintln(s.w, line)
			}
		case "help":
			fmt.Fprintln(s.w, shellHelp)
		case "exit", "quit":
			fmt.Fprintln(s.w, "Goodbye!")
			return nil
		default:
			s.p.Warning("Unknown command %q. Type help for the list.", cmd)
		}
	}
	return s.sc.Err()
}

// prompt reads one trimmed line. ok is false when input is exhausted.
func (s *shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.w, label+": ")
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) promptID(label, kind string) (int64, bool) {
	raw, ok := s.prompt(label)
	if !ok {
		return 0, false
	}
	id, err := parseID(kind, raw)
	if err != nil {
		s.p.Error("%v", err)
		return 0, false
	}
	return id, true
}

func (s *shell) report(err error) {
	s.p.Error("%s", describe(err))
}

// refresh re-reads the selection lists after a mutation.
func (s *shell) refresh() {
	available, err := s.catalog.ListAvailableBooks()
	if err != nil {
		s.report(err)
		return
	}
	users, err := s.catalog.ListUsers()
	if err != nil {
		s.report(err)
		return
	}
	borrows, err := s.catalog.ListOpenBorrows()
	if err != nil {
		s.report(err)
		return
	}
	s.p.Muted("%d available book(s), %d user(s), %d open borrow(s)", len(available), len(users), len(borrows))
}

func (s *shell) addBook() {
	var fields [4]string
	for i, label := range []string{"Title", "Author", "ISBN", "Genre"} {
		v, ok := s.prompt(label)
		if !ok {
			return
		}
		fields[i] = v
	}
	id, err := s.catalog.AddBook(fields[0], fields[1], fields[2], fields[3])
	if err != nil {
		s.report(err)
		return
	}
	s.p.Success("Book added with ID %d.", id)
	s.refresh()
}

func (s *shell) addUser() {
	name, ok := s.prompt("Name")
	if !ok {
		return
	}
	id, err := s.catalog.AddUser(name)
	if err != nil {
		s.report(err)
		return
	}
	s.p.Success("User added with ID %d.", id)
	s.refresh()
}

func (s *shell) listBooks() {
	books, err := s.catalog.ListBooks()
	if err != nil {
		s.report(err)
		return
	}
	renderBooks(s.p, books, "No books in the catalog.")
}

func (s *shell) listUsers() {
	users, err := s.catalog.ListUsers()
	if err != nil {
		s.report(err)
		return
	}
	renderUsers(s.p, users)
}

func (s *shell) listBorrows() {
	borrows, err := s.catalog.ListOpenBorrows()
	if err != nil {
		s.report(err)
		return
	}
	renderOpenBorrows(s.p, borrows)
}

func (s *shell) search() {
	q, ok := s.prompt("Query")
	if !ok {
		return
	}
	books, err := s.catalog.SearchBooks(q)
	if err != nil {
		s.report(err)
		return
	}
	renderBooks(s.p, books, fmt.Sprintf("No books found matching %q.", q))
}

func (s *shell) borrow() {
	available, err := s.catalog.ListAvailableBooks()
	if err != nil {
		s.report(err)
		return
	}
	renderBooks(s.p, available, "No books available.")
	s.listUsers()

	userID, ok := s.promptID("User ID", "user")
	if !ok {
		return
	}
	isbn, ok := s.prompt("ISBN")
	if !ok {
		return
	}
	borrowID, err := s.catalog.BorrowBook(library.UserID(userID), isbn)
	if err != nil {
		s.report(err)
		return
	}
	s.p.Success("Borrow recorded with ID %d.", borrowID)
	s.refresh()
}

func (s *shell) returnBook() {
	s.listBorrows()
	borrowID, ok := s.promptID("Borrow ID", "borrow")
	if !ok {
		return
	}
	if err := s.catalog.ReturnBook(library.BorrowID(borrowID)); err != nil {
		s.report(err)
		return
	}
	s.p.Success("Borrow %d returned.", borrowID)
	s.refresh()
}

func (s *shell) deleteBook() {
	s.listBooks()
	id, ok := s.promptID("Book ID", "book")
	if !ok {
		return
	}
	if err := s.catalog.DeleteBook(library.BookID(id)); err != nil {
		s.report(err)
		return
	}
	s.p.Success("Book %d deleted.", id)
	s.refresh()
}

func (s *shell) deleteUser() {
	s.listUsers()
	id, ok := s.promptID("User ID", "user")
	if !ok {
		return
	}
	if err := s.catalog.DeleteUser(library.UserID(id)); err != nil {
		s.report(err)
		return
	}
	s.p.Success("User %d deleted.", id)
	s.refresh()
}
