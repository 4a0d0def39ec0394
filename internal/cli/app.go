package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/quotesync/internal/config"
	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/remote"
	"github.com/roach88/quotesync/internal/store"
)

// ErrNoRemote is returned when a command needs a remote source and none is
// configured.
var ErrNoRemote = errors.New("no remote configured: set remote_url or remote_file")

// App holds the shared context for one command invocation.
type App struct {
	// Config is the loaded configuration with flag overrides applied.
	Config *config.Config

	// Store is the opened database.
	Store *store.Store

	// Out writes command results in the selected format.
	Out *OutputFormatter

	closeLog func() error
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
		a.Store = nil
	}
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// withApp wraps a command's run function with shared bootstrap logic.
// The App is closed when the wrapped function returns.
func withApp(opts *RootOptions, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(opts, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap loads config, applies flag overrides, installs the slog handler
// and opens the database. Callers are responsible for calling App.Close.
func Bootstrap(opts *RootOptions, cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	format := opts.Format
	if format == "" {
		format = cfg.Output
	}

	app := &App{
		Config: cfg,
		Out: &OutputFormatter{
			Format:    format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}

	closeLog, err := setupLogging(cfg, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	app.closeLog = closeLog

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			app.Close()
			return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}

	slog.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	app.Store = st

	return app, nil
}

// setupLogging installs the default slog logger. Logs go to stderr unless a
// log file is configured, in which case they go to a rotating file.
func setupLogging(cfg *config.Config, verbose bool, stderr io.Writer) (func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	if verbose {
		level = slog.LevelDebug
	}

	w := stderr
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}
		w = rotating
		closeFn = rotating.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}

// Fetcher builds the configured remote fetcher.
func (a *App) Fetcher() (engine.Fetcher, error) {
	switch {
	case a.Config.RemoteURL != "":
		return &remote.HTTPFetcher{
			URL:    a.Config.RemoteURL,
			Client: &http.Client{Timeout: a.Config.FetchTimeout},
		}, nil
	case a.Config.RemoteFile != "":
		return &remote.FileFetcher{Path: a.Config.RemoteFile}, nil
	default:
		return nil, ErrNoRemote
	}
}

// Scheduler wires the store as local store, ledger, category registry and
// attempt recorder behind a scheduler for the configured remote.
func (a *App) Scheduler(opts ...engine.Option) (*engine.Scheduler, error) {
	fetcher, err := a.Fetcher()
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithFetchTimeout(a.Config.FetchTimeout)}, opts...)
	return engine.NewScheduler(engine.Deps{
		Store:      a.Store,
		Fetcher:    fetcher,
		Ledger:     a.Store,
		Categories: a.Store,
		Attempts:   a.Store,
	}, opts...)
}
