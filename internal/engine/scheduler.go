package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/quotesync/internal/model"
)

// DefaultFetchTimeout bounds a single fetch when no option overrides it.
const DefaultFetchTimeout = 30 * time.Second

// Report summarizes one finished cycle.
type Report struct {
	Seq           int64            `json:"seq"`
	CycleID       string           `json:"cycle_id"`
	Phase         model.Phase      `json:"phase"`
	Message       string           `json:"message"`
	Added         int              `json:"added"`
	Updated       int              `json:"updated"`
	Conflicts     []model.Conflict `json:"conflicts"`
	Dropped       int              `json:"dropped"`
	Collapsed     int              `json:"collapsed"`
	NewCategories []string         `json:"new_categories"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
}

// Deps are the collaborators a Scheduler drives. Store, Fetcher and Ledger
// are required.
type Deps struct {
	Store      LocalStore
	Fetcher    Fetcher
	Ledger     Ledger
	Categories CategoryRegistry
	Notifier   Notifier
	Attempts   AttemptRecorder
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFetchTimeout bounds each fetch. A fetch that outlives it fails the
// cycle as FETCH_FAILURE. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.fetchTimeout = d
	}
}

// WithWallClock sets the timestamp source.
func WithWallClock(c WallClock) Option {
	return func(s *Scheduler) {
		s.wall = c
	}
}

// WithCycleIDs sets the cycle ID generator.
func WithCycleIDs(g CycleIDGenerator) Option {
	return func(s *Scheduler) {
		s.ids = g
	}
}

// WithClock sets the logical clock used to number cycles.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// Scheduler runs sync cycles on a fixed interval and on demand.
//
// At most one cycle is in flight at any time. A timer tick or TriggerNow that
// arrives while a cycle runs is dropped, not queued; in particular a failed
// cycle is retried only by the next tick.
//
// States move idle -> syncing -> success|failed. Success and failed are idle
// states that carry the last outcome, so any phase except syncing accepts a
// trigger.
type Scheduler struct {
	deps         Deps
	fetchTimeout time.Duration
	wall         WallClock
	ids          CycleIDGenerator
	clock        *Clock
	committer    Committer

	mu          sync.Mutex
	busy        bool
	status      model.Status
	lastAttempt time.Time

	loopMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// NewScheduler creates a scheduler. It does not start ticking; call Start.
func NewScheduler(deps Deps, opts ...Option) (*Scheduler, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}

	s := &Scheduler{
		deps:         deps,
		fetchTimeout: DefaultFetchTimeout,
		wall:         SystemClock{},
		ids:          UUIDv7Generator{},
		clock:        NewClock(),
		committer:    committerFor(deps.Store, deps.Ledger),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.status = model.Status{Phase: model.PhaseIdle, Timestamp: s.wall.Now()}
	return s, nil
}

// Start begins running a cycle every interval.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive (got %s)", interval)
	}

	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.stop != nil {
		return errors.New("scheduler already started")
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(interval, s.stop, s.done)

	slog.Info("scheduler started", "interval", interval)
	return nil
}

// Stop prevents future ticks and waits for the tick goroutine to exit.
// A cycle already in flight runs to completion first; Stop never aborts it.
func (s *Scheduler) Stop() {
	s.loopMu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.loopMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop(interval time.Duration, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			// Detached from Stop so an in-flight cycle is never cancelled.
			if _, ran := s.TriggerNow(context.Background()); !ran {
				slog.Debug("tick skipped: cycle in flight")
			}
		}
	}
}

// TriggerNow runs one cycle in the calling goroutine and returns its report.
// If a cycle is already in flight it returns immediately with ran=false and
// does not fetch.
func (s *Scheduler) TriggerNow(ctx context.Context) (report Report, ran bool) {
	if !s.acquire() {
		return Report{}, false
	}
	defer s.release()

	return s.runCycle(ctx), true
}

// Status returns the most recent status.
func (s *Scheduler) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastAttempt returns when the last cycle finished, zero if none has.
func (s *Scheduler) LastAttempt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAttempt
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Scheduler) setStatus(st model.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()

	s.deps.Notifier.StatusChanged(st)
}

// runCycle performs fetch -> merge -> commit -> category registration -> report.
// The caller holds the busy flag.
func (s *Scheduler) runCycle(ctx context.Context) Report {
	rep := Report{
		Seq:       s.clock.Next(),
		CycleID:   s.ids.Generate(),
		StartedAt: s.wall.Now(),
	}
	s.setStatus(model.Status{
		Phase:     model.PhaseSyncing,
		Message:   "fetching remote records",
		Timestamp: rep.StartedAt,
		CycleID:   rep.CycleID,
	})
	slog.Debug("sync cycle started", "cycle", rep.CycleID, "seq", rep.Seq)

	res := s.fetch(ctx)
	if !res.Success {
		if res.Malformed {
			return s.finish(ctx, rep, NewMalformedError(res.Error, nil))
		}
		return s.finish(ctx, rep, NewFetchError(res.Error))
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = s.wall.Now()
	}

	known, err := s.knownCategories(ctx)
	if err != nil {
		return s.finish(ctx, rep, fmt.Errorf("read categories: %w", err))
	}

	var plan Plan
	stored, err := s.commit(ctx, func(local []model.Record) ([]model.Record, []model.Conflict, error) {
		p, err := Merge(local, res, known)
		if err != nil {
			return nil, nil, err
		}
		for i := range p.Conflicts {
			p.Conflicts[i].CycleID = rep.CycleID
		}
		plan = p
		return Apply(local, p), p.Conflicts, nil
	})
	if err != nil {
		return s.finish(ctx, rep, err)
	}

	rep.Added = len(plan.Additions)
	rep.Updated = len(plan.Overwrites)
	rep.Dropped = plan.Dropped
	rep.Collapsed = plan.Collapsed
	rep.NewCategories = plan.NewCategories
	rep.Conflicts = stored

	if s.deps.Categories != nil && len(plan.NewCategories) > 0 {
		if err := s.deps.Categories.Register(ctx, plan.NewCategories...); err != nil {
			// The registry is a display collaborator; the store is already correct.
			slog.Warn("failed to register categories",
				"cycle", rep.CycleID,
				"categories", plan.NewCategories,
				"error", err,
			)
		}
	}

	return s.finish(ctx, rep, nil)
}

// commit writes the merged collection and its conflicts as one unit. With a
// Committer both land in one transaction. Otherwise the conflicts are
// appended inside the store's Update, so a ledger failure aborts the record
// write and the store is left as it was.
func (s *Scheduler) commit(ctx context.Context, merge func([]model.Record) ([]model.Record, []model.Conflict, error)) ([]model.Conflict, error) {
	if s.committer != nil {
		stored, err := s.committer.Commit(ctx, merge)
		if err != nil {
			return nil, fmt.Errorf("commit cycle: %w", err)
		}
		return stored, nil
	}

	var stored []model.Conflict
	err := s.deps.Store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		next, conflicts, err := merge(local)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			stored, err = s.deps.Ledger.Append(ctx, conflicts)
			if err != nil {
				return nil, fmt.Errorf("append conflicts: %w", err)
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update local store: %w", err)
	}
	return stored, nil
}

// fetch calls the fetcher, bounded by the configured timeout.
func (s *Scheduler) fetch(ctx context.Context) model.RemoteResult {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	ch := make(chan model.RemoteResult, 1)
	go func() {
		ch <- s.deps.Fetcher.Fetch(ctx)
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return model.Failed(s.wall.Now(), "fetch aborted", ctx.Err())
	}
}

func (s *Scheduler) knownCategories(ctx context.Context) (model.CategorySet, error) {
	if s.deps.Categories == nil {
		return nil, nil
	}
	names, err := s.deps.Categories.Known(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewCategorySet(names...), nil
}

// finish records the outcome, persists the attempt time and notifies.
func (s *Scheduler) finish(ctx context.Context, rep Report, cause error) Report {
	rep.FinishedAt = s.wall.Now()
	if cause != nil {
		rep.Phase = model.PhaseFailed
		rep.Message = cause.Error()
	} else {
		rep.Phase = model.PhaseSuccess
		rep.Message = fmt.Sprintf("synced: %d added, %d updated, %d conflicts, %d dropped",
			rep.Added, rep.Updated, len(rep.Conflicts), rep.Dropped)
	}

	s.mu.Lock()
	s.lastAttempt = rep.FinishedAt
	s.mu.Unlock()
	if s.deps.Attempts != nil {
		if err := s.deps.Attempts.RecordAttempt(ctx, rep.FinishedAt); err != nil {
			slog.Warn("failed to record sync attempt", "cycle", rep.CycleID, "error", err)
		}
	}

	s.setStatus(model.Status{
		Phase:     rep.Phase,
		Message:   rep.Message,
		Timestamp: rep.FinishedAt,
		CycleID:   rep.CycleID,
	})

	conflicts, err := s.deps.Ledger.List(ctx)
	if err != nil {
		slog.Warn("failed to list conflicts for notification", "cycle", rep.CycleID, "error", err)
	}
	s.deps.Notifier.CycleCompleted(rep, conflicts)

	if cause != nil {
		slog.Warn("sync cycle failed", "cycle", rep.CycleID, "error", cause)
	} else {
		slog.Info("sync cycle succeeded",
			"cycle", rep.CycleID,
			"added", rep.Added,
			"updated", rep.Updated,
			"conflicts", len(rep.Conflicts),
			"dropped", rep.Dropped,
		)
	}
	return rep
}
