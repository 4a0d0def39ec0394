package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/quotesync/internal/category"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/transfer"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Stdout bool

	// Now allows overriding the export timestamp (for testing).
	Now func() time.Time
}

// ExportResult is the output of the export command.
type ExportResult struct {
	File            string `json:"file"`
	TotalQuotes     int    `json:"total_quotes"`
	TotalCategories int    `json:"total_categories"`
}

func (r ExportResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Exported %d quotes in %d categories to %s\n",
		r.TotalQuotes, r.TotalCategories, r.File)
	return err
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the collection to a JSON file",
		Long: `Export every quote and category to a JSON document that import accepts.

Without a file argument the document is written to quotes_YYYY-MM-DD.json
in the current directory. With --stdout it is written to standard output
and no summary is printed.

Examples:
  quotesync export
  quotesync export backup.json
  quotesync export --stdout | jq '.totalQuotes'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runExport(app, opts, args, cmd)
		}),
	}

	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "write the document to stdout")

	return cmd
}

func runExport(app *App, opts *ExportOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	now := time.Now()
	if opts.Now != nil {
		now = opts.Now()
	}

	if opts.Stdout {
		if _, err := transfer.Export(ctx, cmd.OutOrStdout(), app.Store, app.Store, now); err != nil {
			return exportError(app, err)
		}
		return nil
	}

	path := transfer.ExportFileName(now)
	if len(args) == 1 {
		path = args[0]
	}

	// Render first so an empty collection never leaves an empty file behind.
	var buf bytes.Buffer
	doc, err := transfer.Export(ctx, &buf, app.Store, app.Store, now)
	if err != nil {
		return exportError(app, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return app.Out.Fail(ExitCommandError, "failed to write export", err)
	}

	return app.Out.Success(ExportResult{
		File:            path,
		TotalQuotes:     doc.TotalQuotes,
		TotalCategories: doc.TotalCategories,
	})
}

func exportError(app *App, err error) error {
	if errors.Is(err, transfer.ErrEmptyCollection) {
		return app.Out.Fail(ExitFailure, "nothing to export", err)
	}
	return app.Out.Fail(ExitCommandError, "export failed", err)
}

// ImportCommandResult is the output of the import command.
type ImportCommandResult struct {
	File string `json:"file"`
	transfer.ImportResult
}

func (r ImportCommandResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Imported %d quotes from %s\n", r.Imported, r.File)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  skipped %d already present\n", r.Skipped)
	}
	if r.Dropped > 0 {
		fmt.Fprintf(w, "  dropped %d invalid\n", r.Dropped)
	}
	if len(r.NewCategories) > 0 {
		fmt.Fprintf(w, "  new categories: %v\n", r.NewCategories)
	}
	return nil
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append quotes from a JSON or YAML file",
		Long: `Import quotes from a file produced by export, or from a bare array of
quotes. Files ending in .yaml or .yml are read as YAML.

Quotes already in the collection with the same text and author are
skipped. Elements that are not valid quotes are dropped and counted.

Examples:
  quotesync import backup.json
  quotesync import extra.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runImport(app, args[0], cmd)
		}),
	}
}

func runImport(app *App, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to read import file", err)
	}

	res, err := transfer.Import(commandContext(cmd), path, data, app.Store, app.Store)
	if err != nil {
		return app.Out.Fail(ExitFailure, "import failed", err)
	}

	return app.Out.Success(ImportCommandResult{File: path, ImportResult: res})
}

// CountResult reports how many quotes a command added.
type CountResult struct {
	Added int `json:"added"`
}

func (r CountResult) WriteText(w io.Writer) error {
	if r.Added == 0 {
		_, err := fmt.Fprintln(w, "Sample quotes already loaded.")
		return err
	}
	_, err := fmt.Fprintf(w, "Loaded %d sample quotes\n", r.Added)
	return err
}

// NewSamplesCommand creates the samples command.
func NewSamplesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Load the built-in sample quotes",
		Long: `Append the built-in sample quotes that are not already present.

Examples:
  quotesync samples`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			added, err := transfer.LoadSamples(commandContext(cmd), app.Store, app.Store)
			if err != nil {
				return app.Out.Fail(ExitCommandError, "failed to load samples", err)
			}
			return app.Out.Success(CountResult{Added: added})
		}),
	}
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Text     string
	Author   string
	Category string
}

// addResult renders an added quote.
type addResult struct {
	model.Record
}

func (r addResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Added %s [%s]\n", r.Key(), r.Category)
	return err
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a quote by hand",
		Long: `Add one quote to the local collection.

All three fields are required. A quote whose text and author match an
existing quote, ignoring case, is rejected.

Examples:
  quotesync add --text "Stay hungry, stay foolish." --author "Steve Jobs" --category Inspiration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runAdd(app, opts, cmd)
		}),
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "quote text (required)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "quote author (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "quote category (required)")

	return cmd
}

func runAdd(app *App, opts *AddOptions, cmd *cobra.Command) error {
	rec, err := transfer.Add(commandContext(cmd), app.Store, app.Store, model.Record{
		Text:     opts.Text,
		Author:   opts.Author,
		Category: opts.Category,
	})
	switch {
	case errors.Is(err, transfer.ErrMissingField):
		return app.Out.Fail(ExitCommandError, "invalid quote", err)
	case err != nil:
		return app.Out.Fail(ExitFailure, "add failed", err)
	}
	return app.Out.Success(addResult{rec})
}

// CategoriesOptions holds flags for the categories command.
type CategoriesOptions struct {
	*RootOptions
	Lang string
}

// CategoriesResult is the output of the categories command.
type CategoriesResult struct {
	Categories []string `json:"categories"`
}

func (r CategoriesResult) WriteText(w io.Writer) error {
	if len(r.Categories) == 0 {
		_, err := fmt.Fprintln(w, "No categories.")
		return err
	}
	for _, c := range r.Categories {
		if _, err := fmt.Fprintln(w, c); err != nil {
			return err
		}
	}
	return nil
}

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CategoriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List known categories in alphabetical order",
		Long: `List every registered category, plus any category used by a quote,
sorted alphabetically for the given language.

Examples:
  quotesync categories
  quotesync categories --lang sv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runCategories(app, opts, cmd)
		}),
	}

	cmd.Flags().StringVar(&opts.Lang, "lang", "en", "BCP 47 language tag used for sorting")
	cmd.AddCommand(NewDeleteCategoryCommand(rootOpts))

	return cmd
}

func runCategories(app *App, opts *CategoriesOptions, cmd *cobra.Command) error {
	tag, err := language.Parse(opts.Lang)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "invalid language tag", err)
	}

	ctx := commandContext(cmd)
	known, err := app.Store.Known(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to list categories", err)
	}
	records, err := app.Store.ReadAll(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to read quotes", err)
	}

	set := model.NewCategorySet(known...)
	names := append([]string{}, known...)
	for _, c := range model.Categories(records) {
		if set.Add(c) {
			names = append(names, c)
		}
	}

	return app.Out.Success(CategoriesResult{Categories: category.Sorted(tag, names)})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
