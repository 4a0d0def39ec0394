package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/quotesync/internal/model"
)

// Notifier receives status transitions and, after each cycle, the report and
// the full conflict ledger. The engine does not care how or whether these are
// displayed.
type Notifier interface {
	StatusChanged(status model.Status)
	CycleCompleted(report Report, conflicts []model.Conflict)
}

// LogNotifier writes notifications to the default slog logger.
type LogNotifier struct{}

// StatusChanged implements Notifier.
func (LogNotifier) StatusChanged(status model.Status) {
	slog.Debug("sync status",
		"phase", status.Phase,
		"message", status.Message,
		"cycle", status.CycleID,
	)
}

// CycleCompleted implements Notifier.
func (LogNotifier) CycleCompleted(report Report, conflicts []model.Conflict) {
	level := slog.LevelInfo
	if report.Phase == model.PhaseFailed {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "sync cycle completed",
		"cycle", report.CycleID,
		"phase", report.Phase,
		"added", report.Added,
		"updated", report.Updated,
		"conflicts", len(report.Conflicts),
		"dropped", report.Dropped,
		"ledger_size", len(conflicts),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
}

// MultiNotifier fans notifications out in order.
type MultiNotifier []Notifier

// StatusChanged implements Notifier.
func (m MultiNotifier) StatusChanged(status model.Status) {
	for _, n := range m {
		n.StatusChanged(status)
	}
}

// CycleCompleted implements Notifier.
func (m MultiNotifier) CycleCompleted(report Report, conflicts []model.Conflict) {
	for _, n := range m {
		n.CycleCompleted(report, conflicts)
	}
}
