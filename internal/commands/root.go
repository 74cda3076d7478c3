package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"library-catalog/internal/config"
	"library-catalog/internal/output"
	"library-catalog/library"
)

// Catalog is the part of the store the commands drive.
type Catalog interface {
	AddBook(title, author, isbn, genre string) (library.BookID, error)
	AddUser(name string) (library.UserID, error)
	BorrowBook(userID library.UserID, isbn string) (library.BorrowID, error)
	ReturnBook(borrowID library.BorrowID) error
	SearchBooks(q string) ([]*library.Book, error)
	DeleteBook(id library.BookID) error
	DeleteUser(id library.UserID) error
	ListBooks() ([]*library.Book, error)
	ListAvailableBooks() ([]*library.Book, error)
	ListUsers() ([]*library.User, error)
	ListOpenBorrows() ([]*library.OpenBorrow, error)
}

// app holds state shared by every command of one invocation. The store is
// opened on first use so help and completion never touch the database.
type app struct {
	version    string
	configFile string

	cfg *config.Config
	mgr *library.LibraryManager
}

func (a *app) catalog(cmd *cobra.Command) (*library.LibraryManager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	mgr, err := library.NewLibraryManager(cfg.Database.Path,
		library.WithLogger(cfg.NewLogger(cmd.ErrOrStderr())),
		library.WithRepairOnDelete(cfg.Catalog.RepairOnDelete),
	)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", cfg.Database.Path, err)
	}
	a.cfg, a.mgr = cfg, mgr
	return mgr, nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}

func printer(cmd *cobra.Command) *output.Printer {
	return output.New(cmd.OutOrStdout())
}

func newRootCommand(version string) (*cobra.Command, *app) {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:   "library",
		Short: "Library catalog - books, users and borrow records",
		Long: `Manage a small library's book catalog, user registry and loans,
stored in a local SQLite database that is created on first use.

Examples:
  library book add --title Dune --author Herbert --isbn ISBN1 --genre SciFi
  library user add Alice
  library borrow 1 ISBN1
  library borrows
  library return 1
  library shell                 # interactive prompt
  library browse                # tabbed terminal browser`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (default ./library.yaml when present)")
	pf.String(config.FlagDatabasePath, config.DefaultDatabasePath, "SQLite database file")
	pf.String(config.FlagLogLevel, "info", "Log level: debug, info, warn, error")
	pf.String(config.FlagLogFormat, string(config.LogFormatText), "Log format: text or json")
	pf.Bool(config.FlagRepairOnDelete, false, "Clean up borrows and borrowed flags when deleting books or users")

	rootCmd.AddCommand(
		newBookCommand(a),
		newUserCommand(a),
		newBorrowCommand(a),
		newReturnCommand(a),
		newBorrowsCommand(a),
		newShellCommand(a),
		newBrowseCommand(a),
	)

	return rootCmd, a
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	return run(version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd, a := newRootCommand(version)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		output.New(stderr).Error("%s", describe(err))
		return 1
	}
	return 0
}

// describe turns store errors into messages for the person at the keyboard.
func describe(err error) string {
	switch {
	case errors.Is(err, library.ErrValidation):
		return "Every field must be filled in (" + err.Error() + ")"
	case errors.Is(err, library.ErrDuplicateKey):
		return "This ISBN is already in the catalog (" + err.Error() + ")"
	case errors.Is(err, library.ErrNotFound):
		return "Not found or no longer available (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
