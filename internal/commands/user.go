package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

func newUserCommand(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Add, list and delete users",
	}
	userCmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Register a user",
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.catalog(cmd)
				if err != nil {
					return err
				}
				id, err := mgr.AddUser(strings.Join(args, " "))
				if err != nil {
					return err
				}
				printer(cmd).Success("User added with ID %d.", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.catalog(cmd)
				if err != nil {
					return err
				}
				users, err := mgr.ListUsers()
				if err != nil {
					return err
				}
				renderUsers(printer(cmd), users)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <user-id>",
			Short: "Delete a user and their borrow records",
			Long: `Delete a user together with their borrow records. Unless
--repair-on-delete is set, the books they had out stay marked as borrowed.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				mgr, err := a.catalog(cmd)
				if err != nil {
					return err
				}
				if err := mgr.DeleteUser(library.UserID(id)); err != nil {
					return err
				}
				printer(cmd).Success("User %d deleted.", id)
				return nil
			},
		},
	)
	return userCmd
}
