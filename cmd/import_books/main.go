package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-catalog/internal/config"
	"library-catalog/internal/output"
	"library-catalog/library"
)

func main() {
	if err := newImportCommand().Execute(); err != nil {
		output.New(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}

func newImportCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "import_books <file.csv>",
		Short:         "Bulk import books from a CSV file of title,author,isbn,genre",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			manager, err := library.NewLibraryManager(cfg.Database.Path,
				library.WithLogger(cfg.NewLogger(cmd.ErrOrStderr())),
			)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer manager.Close()

			p := output.New(cmd.OutOrStdout())
			p.Muted("Importing books from %s into %s...", args[0], cfg.Database.Path)

			sum, err := importBooks(f, manager, p)
			if err != nil {
				return err
			}
			printSummary(p, sum)
			if sum.failed > 0 {
				return fmt.Errorf("%d line(s) could not be imported", sum.failed)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default ./library.yaml when present)")
	flags.String(config.FlagDatabasePath, config.DefaultDatabasePath, "path to the catalog database")
	flags.String(config.FlagLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(config.FlagLogFormat, string(config.LogFormatText), "log format (text, json)")
	return cmd
}

func printSummary(p *output.Printer, sum summary) {
	p.Success("Imported: %d book(s)", len(sum.imported))
	if sum.duplicates > 0 {
		p.Warning("Skipped duplicates: %d", sum.duplicates)
	}
	if sum.failed > 0 {
		p.Error("Errors: %d", sum.failed)
	}

	rows := make([][]string, 0, len(sum.imported))
	for _, b := range sum.imported {
		rows = append(rows, []string{
			fmt.Sprint(b.ID),
			output.Truncate(b.Title, 50),
			output.Truncate(b.Author, 30),
			b.ISBN,
		})
	}
	p.Table([]string{"ID", "Title", "Author", "ISBN"}, rows, "Nothing was imported.")
}
