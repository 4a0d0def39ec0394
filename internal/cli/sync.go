package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions

	// CycleIDs allows overriding the cycle ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CycleIDs engine.CycleIDGenerator
}

// reportView renders a cycle report.
type reportView struct {
	engine.Report
}

func (v reportView) WriteText(w io.Writer) error {
	if v.Phase == model.PhaseFailed {
		_, err := fmt.Fprintf(w, "Sync failed: %s\n", v.Message)
		return err
	}
	fmt.Fprintf(w, "Sync complete (cycle %s)\n", v.CycleID)
	fmt.Fprintf(w, "  added:     %d\n", v.Added)
	fmt.Fprintf(w, "  updated:   %d\n", v.Updated)
	fmt.Fprintf(w, "  conflicts: %d\n", len(v.Conflicts))
	if v.Dropped > 0 {
		fmt.Fprintf(w, "  dropped:   %d\n", v.Dropped)
	}
	for _, c := range v.Conflicts {
		fmt.Fprintf(w, "    %s: %q -> %q\n", c.Key, c.LocalCategory, c.RemoteCategory)
	}
	if len(v.NewCategories) > 0 {
		fmt.Fprintf(w, "  new categories: %v\n", v.NewCategories)
	}
	return nil
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Long: `Fetch the remote collection once and merge it into the local store.

New quotes are added. Quotes whose category differs from the remote copy
take the remote category, and each such divergence is appended to the
conflict ledger.

Exit codes:
  0 - Cycle succeeded
  1 - Cycle failed (fetch failure or malformed payload)
  2 - Command error (no remote configured, database error, etc.)

Examples:
  quotesync sync
  QUOTESYNC_REMOTE_URL=https://example.com/quotes.json quotesync sync
  quotesync sync --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runSync(app, opts, cmd)
		}),
	}

	return cmd
}

func runSync(app *App, opts *SyncOptions, cmd *cobra.Command) error {
	sched, err := app.Scheduler(schedulerOptions(opts.CycleIDs)...)
	if err != nil {
		return schedulerError(app, err)
	}

	ctx := commandContext(cmd)

	report, _ := sched.TriggerNow(ctx)
	if report.Phase == model.PhaseFailed {
		if app.Out.Format == "json" {
			if err := app.Out.Error(CodeSyncFailed, report.Message, report); err != nil {
				return err
			}
		}
		return NewExitError(ExitFailure, report.Message)
	}
	return app.Out.Success(reportView{report})
}

func schedulerOptions(ids engine.CycleIDGenerator) []engine.Option {
	if ids == nil {
		return nil
	}
	return []engine.Option{engine.WithCycleIDs(ids)}
}

func schedulerError(app *App, err error) error {
	if errors.Is(err, ErrNoRemote) {
		return app.Out.Fail(ExitCommandError, "cannot sync", err)
	}
	return app.Out.Fail(ExitCommandError, "failed to create scheduler", err)
}
