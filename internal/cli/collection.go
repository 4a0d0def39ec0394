package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/transfer"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// ClearResult is the output of the clear command.
type ClearResult struct {
	Removed  int `json:"removed"`
	Restored int `json:"restored"`
}

func (r ClearResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Cleared %d quotes. Restored %d sample quotes.\n", r.Removed, r.Restored)
	return err
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear --yes",
		Short: "Replace the collection with the sample quotes",
		Long: `Delete every quote and restore the built-in samples. The category list is
rebuilt from the samples. The conflict ledger and favorites are kept.

This cannot be undone, so --yes is required.

Examples:
  quotesync export backup.json && quotesync clear --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runClear(app, opts, cmd)
		}),
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deleting every quote")

	return cmd
}

func runClear(app *App, opts *ClearOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return app.Out.Fail(ExitCommandError, "refusing to clear",
			errors.New("pass --yes to delete every quote"))
	}

	removed, err := transfer.Reset(commandContext(cmd), app.Store, app.Store)
	switch {
	case errors.Is(err, transfer.ErrNothingToClear):
		return app.Out.Fail(ExitFailure, "nothing to clear", err)
	case err != nil:
		return app.Out.Fail(ExitCommandError, "clear failed", err)
	}
	return app.Out.Success(ClearResult{Removed: removed, Restored: len(transfer.Samples())})
}

// DeleteCategoryResult is the output of categories delete.
type DeleteCategoryResult struct {
	Category      string `json:"category"`
	RemovedQuotes int    `json:"removed_quotes"`
}

func (r DeleteCategoryResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Deleted category %q and %d quotes\n", r.Category, r.RemovedQuotes)
	return err
}

// NewDeleteCategoryCommand creates the categories delete subcommand.
func NewDeleteCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category and every quote in it",
		Long: `Remove every quote filed under the category, then drop the category from
the list. Matching is exact.

Exit codes:
  0 - Category deleted
  1 - Unknown category
  2 - Command error

Examples:
  quotesync categories delete humor`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			removed, err := transfer.DeleteCategory(commandContext(cmd), app.Store, app.Store, args[0])
			switch {
			case errors.Is(err, transfer.ErrUnknownCategory):
				return app.Out.Fail(ExitFailure, "delete rejected", err)
			case err != nil:
				return app.Out.Fail(ExitCommandError, "delete failed", err)
			}
			return app.Out.Success(DeleteCategoryResult{Category: args[0], RemovedQuotes: removed})
		}),
	}
}

// FavoritesResult is the output of favorites and favorites clear.
type FavoritesResult struct {
	Favorites []model.Record `json:"favorites"`
	Cleared   int            `json:"cleared,omitempty"`
}

func (r FavoritesResult) WriteText(w io.Writer) error {
	if r.Cleared > 0 {
		_, err := fmt.Fprintf(w, "Cleared %d favorites\n", r.Cleared)
		return err
	}
	if len(r.Favorites) == 0 {
		_, err := fmt.Fprintln(w, "No favorites.")
		return err
	}
	for _, f := range r.Favorites {
		fmt.Fprintf(w, "%s [%s]\n", f.Key(), f.Category)
	}
	return nil
}

// FavoriteResult is the output of favorites add and favorites remove.
type FavoriteResult struct {
	Quote   model.Record `json:"quote"`
	Changed bool         `json:"changed"`
	Action  string       `json:"action"`
}

func (r FavoriteResult) WriteText(w io.Writer) error {
	var msg string
	switch {
	case r.Action == "add" && r.Changed:
		msg = "Added to favorites"
	case r.Action == "add":
		msg = "Already a favorite"
	case r.Changed:
		msg = "Removed from favorites"
	default:
		msg = "Not a favorite"
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", msg, r.Quote.Key())
	return err
}

// FavoriteOptions identifies a quote by text and author.
type FavoriteOptions struct {
	*RootOptions
	Text   string
	Author string
}

func (o *FavoriteOptions) key() model.Key {
	return model.Record{Text: o.Text, Author: o.Author}.Normalize().Key()
}

// NewFavoritesCommand creates the favorites command and its subcommands.
func NewFavoritesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite quotes",
		Long: `List favorite quotes in the order they were marked.

Favorites keep a copy of the quote as it was when marked, so they survive
clear and category deletion.

Examples:
  quotesync favorites
  quotesync favorites add --text "Well done is better than well said." --author "Benjamin Franklin"
  quotesync favorites clear`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			favs, err := app.Store.Favorites(commandContext(cmd))
			if err != nil {
				return app.Out.Fail(ExitCommandError, "failed to list favorites", err)
			}
			return app.Out.Success(FavoritesResult{Favorites: favs})
		}),
	}

	cmd.AddCommand(newFavoriteAddCommand(rootOpts))
	cmd.AddCommand(newFavoriteRemoveCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove every favorite",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			n, err := app.Store.ClearFavorites(commandContext(cmd))
			if err != nil {
				return app.Out.Fail(ExitCommandError, "failed to clear favorites", err)
			}
			return app.Out.Success(FavoritesResult{Favorites: []model.Record{}, Cleared: n})
		}),
	})

	return cmd
}

func favoriteFlags(cmd *cobra.Command, opts *FavoriteOptions) {
	cmd.Flags().StringVar(&opts.Text, "text", "", "quote text (required)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "quote author")
	_ = cmd.MarkFlagRequired("text")
}

func newFavoriteAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FavoriteOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Mark a quote as favorite",
		Long: `Mark the quote with the given text and author as a favorite. Matching is
exact, the same as sync. An empty author means "unknown".

Exit codes:
  0 - Marked (or already a favorite)
  1 - No such quote
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			q, added, err := transfer.Favorite(commandContext(cmd), app.Store, app.Store, opts.key())
			switch {
			case errors.Is(err, transfer.ErrNotInCollection):
				return app.Out.Fail(ExitFailure, "favorite rejected", err)
			case err != nil:
				return app.Out.Fail(ExitCommandError, "failed to add favorite", err)
			}
			return app.Out.Success(FavoriteResult{Quote: q, Changed: added, Action: "add"})
		}),
	}
	favoriteFlags(cmd, opts)
	return cmd
}

func newFavoriteRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FavoriteOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "remove",
		Short:         "Unmark a favorite quote",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			key := opts.key()
			removed, err := app.Store.RemoveFavorite(commandContext(cmd), key)
			if err != nil {
				return app.Out.Fail(ExitCommandError, "failed to remove favorite", err)
			}
			return app.Out.Success(FavoriteResult{
				Quote:   model.Record{Text: key.Text, Author: key.Author},
				Changed: removed,
				Action:  "remove",
			})
		}),
	}
	favoriteFlags(cmd, opts)
	return cmd
}
