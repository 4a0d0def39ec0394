package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// ConflictsOptions holds flags for the conflicts command.
type ConflictsOptions struct {
	*RootOptions
	Pending bool
	Cycle   string
}

// ConflictEntry is a ledger entry together with the index override expects.
type ConflictEntry struct {
	Index int `json:"index"`
	model.Conflict
}

// ConflictsResult is the output of the conflicts command.
type ConflictsResult struct {
	Conflicts []ConflictEntry `json:"conflicts"`
	Total     int             `json:"total"`
}

func (r ConflictsResult) WriteText(w io.Writer) error {
	if len(r.Conflicts) == 0 {
		_, err := fmt.Fprintln(w, "No conflicts recorded.")
		return err
	}
	for _, e := range r.Conflicts {
		state := "auto"
		if e.Overridden {
			state = "overridden"
		}
		fmt.Fprintf(w, "[%d] %s\n", e.Index, e.Key)
		fmt.Fprintf(w, "    local=%q remote=%q -> %s (%s)\n",
			e.LocalCategory, e.RemoteCategory, e.Resolution, state)
		fmt.Fprintf(w, "    cycle %s at %s\n", e.CycleID, e.DetectedAt.Format("2006-01-02 15:04:05"))
	}
	_, err := fmt.Fprintf(w, "%d of %d conflicts shown\n", len(r.Conflicts), r.Total)
	return err
}

// NewConflictsCommand creates the conflicts command.
func NewConflictsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List the conflict ledger",
		Long: `List category conflicts detected by sync cycles, oldest first.

The index printed with each entry is the one to pass to override.

Examples:
  quotesync conflicts
  quotesync conflicts --pending
  quotesync conflicts --cycle 01920000-0000-7000-8000-000000000000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runConflicts(app, opts, cmd)
		}),
	}

	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "only show entries that have not been overridden")
	cmd.Flags().StringVar(&opts.Cycle, "cycle", "", "only show entries detected by this cycle")

	return cmd
}

func runConflicts(app *App, opts *ConflictsOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	all, err := app.Store.List(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to list conflicts", err)
	}

	result := ConflictsResult{Conflicts: []ConflictEntry{}, Total: len(all)}
	for i, c := range all {
		if opts.Pending && c.Overridden {
			continue
		}
		if opts.Cycle != "" && c.CycleID != opts.Cycle {
			continue
		}
		result.Conflicts = append(result.Conflicts, ConflictEntry{Index: i, Conflict: c})
	}

	return app.Out.Success(result)
}

// OverrideResult is the output of the override command.
type OverrideResult struct {
	Index    int            `json:"index"`
	Choice   model.Choice   `json:"choice"`
	Category string         `json:"category"`
	Conflict model.Conflict `json:"conflict"`
}

func (r OverrideResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Conflict %d resolved %s: %s is now %q\n",
		r.Index, r.Conflict.Resolution, r.Conflict.Key, r.Category)
	return err
}

// NewOverrideCommand creates the override command.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "override <index> local|remote",
		Short: "Resolve a recorded conflict by hand",
		Long: `Override the automatic remote-wins resolution of a ledger entry.

Choosing local restores the category the quote had before the sync that
detected the conflict. Choosing remote keeps the merged category and only
marks the entry as reviewed. Each entry can be overridden once.

Exit codes:
  0 - Override applied
  1 - Override rejected (NOT_FOUND, ALREADY_RESOLVED, ENTITY_MISSING)
  2 - Command error (bad arguments, database error, etc.)

Examples:
  quotesync override 0 local
  quotesync override 3 remote --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runOverride(app, args[0], args[1], cmd)
		}),
	}
}

func runOverride(app *App, indexArg, choiceArg string, cmd *cobra.Command) error {
	index, err := strconv.Atoi(indexArg)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "invalid index", fmt.Errorf("%q is not an integer", indexArg))
	}
	choice, err := model.ParseChoice(choiceArg)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "invalid choice", err)
	}

	ctx := commandContext(cmd)

	overrider := engine.NewOverrider(app.Store, app.Store, nil)
	updated, err := overrider.Apply(ctx, index, choice)
	if err != nil {
		return app.Out.Fail(ExitFailure, "override rejected", err)
	}

	return app.Out.Success(OverrideResult{
		Index:    index,
		Choice:   choice,
		Category: updated.Winner(),
		Conflict: updated,
	})
}
