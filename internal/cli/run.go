package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/remote"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Interval time.Duration
	Watch    bool

	// CycleIDs allows overriding the cycle ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CycleIDs engine.CycleIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync on a fixed interval until interrupted",
		Long: `Run a sync cycle immediately and then on every interval until the
process receives SIGINT or SIGTERM.

A tick that arrives while a cycle is still running is skipped. A failed
cycle leaves the local store untouched and is retried on the next tick.

With --watch, a remote_file source is also watched and a cycle runs after
each change to the file.

Examples:
  quotesync run
  quotesync run --interval 5m
  QUOTESYNC_REMOTE_FILE=./quotes.yaml quotesync run --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withApp(rootOpts, func(app *App, cmd *cobra.Command, args []string) error {
			return runDaemon(app, opts, cmd)
		}),
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "time between sync cycles (defaults to config interval)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "also sync when remote_file changes")

	return cmd
}

func runDaemon(app *App, opts *RunOptions, cmd *cobra.Command) error {
	interval := opts.Interval
	if interval == 0 {
		interval = app.Config.Interval
	}
	if interval <= 0 {
		return app.Out.Fail(ExitCommandError, "invalid interval", fmt.Errorf("interval must be positive (got %s)", interval))
	}
	if opts.Watch && app.Config.RemoteFile == "" {
		return app.Out.Fail(ExitCommandError, "cannot watch", fmt.Errorf("--watch requires remote_file"))
	}

	sched, err := app.Scheduler(schedulerOptions(opts.CycleIDs)...)
	if err != nil {
		return schedulerError(app, err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	if app.Out.Format != "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "Sync running every %s. Press Ctrl-C to stop.\n", interval)
	}

	// Cycles run detached from ctx so shutdown never aborts one mid-write.
	if report, _ := sched.TriggerNow(context.Background()); report.Phase == model.PhaseFailed {
		app.Out.VerboseLog("initial sync failed: %s", report.Message)
	}

	if err := sched.Start(interval); err != nil {
		return app.Out.Fail(ExitCommandError, "failed to start scheduler", err)
	}

	// Stays nil without --watch so the select below only waits on ctx.
	var watchDone chan error
	if opts.Watch {
		watchDone = make(chan error, 1)
		go func() {
			watchDone <- remote.Watch(ctx, app.Config.RemoteFile, remote.DefaultDebounce, func() {
				if _, ran := sched.TriggerNow(context.Background()); !ran {
					slog.Debug("file change skipped: cycle in flight")
				}
			})
		}()
	}

	var watchErr error
	select {
	case <-ctx.Done():
		if watchDone != nil {
			watchErr = <-watchDone
		}
	case watchErr = <-watchDone:
		// Watch only returns early when the watch could not be established.
		cancel()
	}

	sched.Stop()
	if watchErr != nil {
		return app.Out.Fail(ExitFailure, "file watch failed", watchErr)
	}

	slog.Info("sync stopped gracefully")
	if app.Out.Format == "json" {
		return app.Out.Success(sched.Status())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
	return nil
}
