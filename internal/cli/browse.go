package cli

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/transfer"
)

// BrowseOptions holds the category filter shared by list, random and stats.
type BrowseOptions struct {
	*RootOptions
	Category string
}

func (o *BrowseOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Category, "category", "c", transfer.AllCategories, "only quotes in this category")
}

// ListResult is the output of the list command.
type ListResult struct {
	Quotes []model.Record `json:"quotes"`
	transfer.Stats
}

func (r ListResult) WriteText(w io.Writer) error {
	if len(r.Quotes) == 0 {
		_, err := fmt.Fprintln(w, "No quotes.")
		return err
	}
	for i, q := range r.Quotes {
		fmt.Fprintf(w, "%3d. %s [%s]\n", i+1, q.Key(), q.Category)
	}
	return writeStats(w, r.Stats)
}

// StatsResult is the output of the stats command.
type StatsResult struct {
	transfer.Stats
}

func (r StatsResult) WriteText(w io.Writer) error {
	return writeStats(w, r.Stats)
}

// QuoteResult is the output of the random command.
type QuoteResult struct {
	model.Record
	Favorite bool `json:"favorite"`
}

func (r QuoteResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%q\n", r.Text)
	fmt.Fprintf(w, "  - %s\n", r.Author)
	tag := r.Category
	if r.Favorite {
		tag += ", favorite"
	}
	_, err := fmt.Fprintf(w, "  [%s]\n", tag)
	return err
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, optionally filtered by category",
		Long: `List quotes in collection order followed by the collection statistics.

Examples:
  quotesync list
  quotesync list --category wisdom --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runList(app, opts, cmd)
		}),
	}
	opts.addFlags(cmd)

	return cmd
}

func runList(app *App, opts *BrowseOptions, cmd *cobra.Command) error {
	records, stats, err := browse(app, opts, cmd)
	if err != nil {
		return err
	}
	return app.Out.Success(ListResult{
		Quotes: transfer.Filter(records, opts.Category),
		Stats:  stats,
	})
}

// NewRandomCommand creates the random command.
func NewRandomCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Long: `Show one quote picked at random, optionally from a single category.

Exit codes:
  0 - Quote shown
  1 - No quote to show (empty collection or category)
  2 - Command error

Examples:
  quotesync random
  quotesync random --category philosophy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runRandom(app, opts, cmd)
		}),
	}
	opts.addFlags(cmd)

	return cmd
}

func runRandom(app *App, opts *BrowseOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	records, err := app.Store.ReadAll(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to read quotes", err)
	}
	q, err := transfer.Random(records, opts.Category, rand.Intn)
	if err != nil {
		return app.Out.Fail(ExitFailure, "no quote to show", err)
	}

	favs, err := app.Store.Favorites(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to list favorites", err)
	}
	return app.Out.Success(QuoteResult{Record: q, Favorite: transfer.IsFavorite(favs, q.Key())})
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count quotes, favorites and the quotes a filter shows",
		Long: `Print the total number of quotes, the number of favorites and how many
quotes the category filter shows.

Examples:
  quotesync stats
  quotesync stats --category wisdom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			_, stats, err := browse(app, opts, cmd)
			if err != nil {
				return err
			}
			return app.Out.Success(StatsResult{Stats: stats})
		}),
	}
	opts.addFlags(cmd)

	return cmd
}

// browse reads the collection and the favorites count behind list and stats.
func browse(app *App, opts *BrowseOptions, cmd *cobra.Command) ([]model.Record, transfer.Stats, error) {
	ctx := commandContext(cmd)

	records, err := app.Store.ReadAll(ctx)
	if err != nil {
		return nil, transfer.Stats{}, app.Out.Fail(ExitCommandError, "failed to read quotes", err)
	}
	favs, err := app.Store.Favorites(ctx)
	if err != nil {
		return nil, transfer.Stats{}, app.Out.Fail(ExitCommandError, "failed to list favorites", err)
	}
	return records, transfer.Summarize(records, len(favs), opts.Category), nil
}

func writeStats(w io.Writer, s transfer.Stats) error {
	line := fmt.Sprintf("Total Quotes: %d | Favorites: %d | Showing: %d", s.Total, s.Favorites, s.Showing)
	if s.Filter != transfer.AllCategories {
		line += fmt.Sprintf(" (Filtered: %s)", s.Filter)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
