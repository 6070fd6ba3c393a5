package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lwgate/internal/catalog"
)

// CatalogValidation holds catalog validate results.
type CatalogValidation struct {
	Valid  bool                      `json:"valid"`
	Items  int                       `json:"items"`
	Errors []catalog.ValidationError `json:"errors,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect macro catalogs",
	}
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	return cmd
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	var unlocked bool

	cmd := &cobra.Command{
		Use:   "list <source>",
		Short: "List catalog entries as cards",
		Long: `List the entries of a catalog as the site would show them.

<source> is an http(s) URL, a file:// URL or a local path. --unlocked shows
the affordances of an authorized session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			formatter.VerboseLog("Fetching catalog from %s", args[0])

			fetcher := catalog.NewFetcher(catalog.WithLogger(newLogger(rootOpts, cmd.ErrOrStderr(), slog.LevelWarn)))
			items, err := fetcher.FetchErr(cmd.Context(), args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, "catalog unavailable", err.Error())
			}

			cards := catalog.Cards(items, unlocked, catalog.DefaultPromptForm)
			if formatter.Format == "json" {
				return formatter.Success(cards)
			}
			if len(cards) == 0 {
				return formatter.Success(catalog.Placeholder)
			}

			rows := make([][]string, 0, len(cards))
			for _, c := range cards {
				rows = append(rows, []string{c.Name, c.Version, c.Category, actionLabels(c.Actions)})
			}
			formatter.Table([]string{"name", "version", "category", "actions"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unlocked, "unlocked", false, "show affordances for an authorized session")
	return cmd
}

func actionLabels(actions []catalog.Action) string {
	labels := make([]string, 0, len(actions))
	for _, a := range actions {
		labels = append(labels, a.Label)
	}
	return strings.Join(labels, ", ")
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog file against the catalog schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			data, err := os.ReadFile(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("reading %s", args[0]), err.Error())
			}

			if errs := catalog.Validate(args[0], data); len(errs) > 0 {
				if formatter.Format == "json" {
					_ = formatter.Success(CatalogValidation{Valid: false, Errors: errs})
				} else {
					for _, e := range errs {
						fmt.Fprintf(formatter.Writer, "✗ %s\n", e)
					}
				}
				return NewExitError(ExitFailure, fmt.Sprintf("%s: %d validation error(s)", ErrCodeInvalid, len(errs)))
			}

			items, err := catalog.Decode(data)
			if err != nil {
				return formatter.Fail(ExitFailure, ErrCodeInvalid, "catalog does not decode", err.Error())
			}
			if formatter.Format == "json" {
				return formatter.Success(CatalogValidation{Valid: true, Items: len(items)})
			}
			fmt.Fprintf(formatter.Writer, "✓ catalog valid (%d items)\n", len(items))
			return nil
		},
	}
}
