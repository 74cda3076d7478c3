package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"library-catalog/internal/tui"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Tabbed terminal browser over books, users and open borrows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.InOrStdin()) {
				return errors.New("browse needs an interactive terminal; use the list commands instead")
			}
			mgr, err := a.catalog(cmd)
			if err != nil {
				return err
			}
			return tui.Run(mgr, a.infoLines())
		},
	}
}
