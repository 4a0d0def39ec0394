package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/model"
)

// StatusResult summarizes the local store and sync bookkeeping.
type StatusResult struct {
	Database         string     `json:"database"`
	Remote           string     `json:"remote,omitempty"`
	Interval         string     `json:"interval"`
	Records          int        `json:"records"`
	Fingerprint      string     `json:"fingerprint"`
	Categories       int        `json:"categories"`
	Conflicts        int        `json:"conflicts"`
	PendingConflicts int        `json:"pending_conflicts"`
	LastAttempt      *time.Time `json:"last_attempt,omitempty"`
}

func (r StatusResult) WriteText(w io.Writer) error {
	remote := r.Remote
	if remote == "" {
		remote = "(none)"
	}
	last := "never"
	if r.LastAttempt != nil {
		last = r.LastAttempt.Format(time.RFC3339)
	}
	fmt.Fprintf(w, "Database:     %s\n", r.Database)
	fmt.Fprintf(w, "Remote:       %s\n", remote)
	fmt.Fprintf(w, "Interval:     %s\n", r.Interval)
	fmt.Fprintf(w, "Quotes:       %d\n", r.Records)
	fmt.Fprintf(w, "Fingerprint:  %s\n", r.Fingerprint)
	fmt.Fprintf(w, "Categories:   %d\n", r.Categories)
	fmt.Fprintf(w, "Conflicts:    %d (%d not overridden)\n", r.Conflicts, r.PendingConflicts)
	_, err := fmt.Fprintf(w, "Last attempt: %s\n", last)
	return err
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store size, ledger size and the last sync attempt",
		Long: `Show the configured remote, the number of quotes and categories in the
local store, the size of the conflict ledger and when a sync cycle last
finished.

Examples:
  quotesync status
  quotesync status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runStatus(app, cmd)
		}),
	}
}

func runStatus(app *App, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	result := StatusResult{
		Database: app.Config.DBPath,
		Remote:   app.Config.RemoteURL,
		Interval: app.Config.Interval.String(),
	}
	if result.Remote == "" {
		result.Remote = app.Config.RemoteFile
	}

	records, err := app.Store.ReadAll(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to read quotes", err)
	}
	result.Records = len(records)
	if result.Fingerprint, err = model.Fingerprint(records); err != nil {
		return app.Out.Fail(ExitCommandError, "failed to fingerprint quotes", err)
	}

	categories, err := app.Store.Known(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to list categories", err)
	}
	result.Categories = len(categories)

	conflicts, err := app.Store.List(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to list conflicts", err)
	}
	result.Conflicts = len(conflicts)
	for _, c := range conflicts {
		if !c.Overridden {
			result.PendingConflicts++
		}
	}

	last, err := app.Store.LastAttempt(ctx)
	if err != nil {
		return app.Out.Fail(ExitCommandError, "failed to read last attempt", err)
	}
	if !last.IsZero() {
		result.LastAttempt = &last
	}

	return app.Out.Success(result)
}
