package commands

import (
	"github.com/spf13/cobra"

	"library-catalog/library"
)

func newBorrowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <user-id> <isbn>",
		Short: "Lend an available book to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			borrowID, err := mgr.BorrowBook(library.UserID(userID), args[1])
			if err != nil {
				return err
			}
			printer(cmd).Success("Borrow recorded with ID %d.", borrowID)
			return nil
		},
	}
}

func newReturnCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <borrow-id>",
		Short: "Close a borrow and make its book available again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrowID, err := parseID("borrow", args[0])
			if err != nil {
				return err
			}
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			if err := mgr.ReturnBook(library.BorrowID(borrowID)); err != nil {
				return err
			}
			printer(cmd).Success("Borrow %d returned.", borrowID)
			return nil
		},
	}
}

func newBorrowsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrows",
		Short: "List open borrows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			borrows, err := mgr.ListOpenBorrows()
			if err != nil {
				return err
			}
			renderOpenBorrows(printer(cmd), borrows)
			return nil
		},
	}
}
