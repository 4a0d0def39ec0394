package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/quotesync/internal/category"
	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/ledger"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/store"
	"github.com/roach88/quotesync/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives a real Scheduler and Overrider over in-memory collaborators with
// a deterministic clock and cycle IDs.
type Harness struct {
	store     *store.Memory
	ledger    *ledger.Memory
	cats      *category.Memory
	scheduler *engine.Scheduler
	overrider *engine.Overrider
}

// New builds a harness seeded from the scenario.
func New(scenario *Scenario) (*Harness, error) {
	st := store.NewMemory(scenario.Local...)
	led := ledger.NewMemory()
	cats := category.NewMemory(scenario.Categories...)
	clock := testutil.NewStepClock(time.Time{}, time.Second)

	var results []model.RemoteResult
	for _, step := range scenario.Steps {
		if step.Sync != nil {
			results = append(results, remoteResult(step.Sync))
		}
	}

	sched, err := engine.NewScheduler(engine.Deps{
		Store:      st,
		Fetcher:    testutil.NewScriptedFetcher(results...),
		Ledger:     led,
		Categories: cats,
		Attempts:   st,
	},
		engine.WithWallClock(clock),
		engine.WithCycleIDs(testutil.NewSequentialIDs(scenario.CyclePrefix)),
		engine.WithFetchTimeout(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Harness{
		store:     st,
		ledger:    led,
		cats:      cats,
		scheduler: sched,
		overrider: engine.NewOverrider(st, led, clock),
	}, nil
}

// remoteResult turns a scripted sync step into what the fetcher returns.
// Timestamps stay zero so the scheduler stamps them from its clock.
func remoteResult(s *SyncStep) model.RemoteResult {
	switch {
	case s.Fail != "":
		return model.Failed(time.Time{}, s.Fail, nil)
	case s.Malformed != "":
		return model.Malformed(time.Time{}, errors.New(s.Malformed))
	default:
		return model.RemoteResult{Success: true, Records: s.Records, Dropped: s.Dropped}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against fresh collaborators. Execution flow:
// 1. Seed the store and category registry
// 2. Execute steps in order, checking expectations and sync properties
// 3. Capture final state
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		seq := int64(i + 1)
		var err error
		switch {
		case step.Sync != nil:
			err = h.runSync(ctx, seq, step, result)
		case step.Override != nil:
			err = h.runOverride(ctx, seq, step, result)
		case step.Remove != nil:
			err = h.runRemove(ctx, seq, step, result)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", seq, err)
		}
	}

	final, err := h.finalState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture final state: %w", err)
	}
	result.Final = final

	for _, msg := range EvaluateAssertions(final, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) runSync(ctx context.Context, seq int64, step Step, result *Result) error {
	before, err := h.store.ReadAll(ctx)
	if err != nil {
		return err
	}
	ledgerBefore := h.ledger.Len()

	rep, ran := h.scheduler.TriggerNow(ctx)
	if !ran {
		return fmt.Errorf("cycle did not run")
	}

	after, err := h.store.ReadAll(ctx)
	if err != nil {
		return err
	}

	trace := &SyncTrace{
		CycleID:       rep.CycleID,
		Phase:         rep.Phase,
		Message:       rep.Message,
		Added:         rep.Added,
		Updated:       rep.Updated,
		Dropped:       rep.Dropped,
		Collapsed:     rep.Collapsed,
		NewCategories: rep.NewCategories,
	}
	for _, c := range rep.Conflicts {
		trace.Conflicts = append(trace.Conflicts, conflictTrace(c))
	}
	result.Trace = append(result.Trace, TraceEvent{Seq: seq, Type: StepSync, Sync: trace})

	var violations []string
	if rep.Phase == model.PhaseSuccess {
		violations = CheckSync(before, after, remoteResult(step.Sync), rep)
	} else {
		violations = CheckUnchanged(before, after, ledgerBefore, h.ledger.Len())
	}
	for _, v := range violations {
		result.AddError(fmt.Sprintf("step %d: %s", seq, v))
	}

	if step.Expect != nil {
		for _, msg := range checkSyncExpect(step.Expect, rep) {
			result.AddError(fmt.Sprintf("step %d: %s", seq, msg))
		}
	}
	return nil
}

func (h *Harness) runOverride(ctx context.Context, seq int64, step Step, result *Result) error {
	choice := model.Choice(step.Override.Choice)
	trace := &OverrideTrace{Index: step.Override.Index, Choice: choice}

	updated, err := h.overrider.Apply(ctx, step.Override.Index, choice)
	if err != nil {
		var engErr *engine.Error
		if !errors.As(err, &engErr) {
			return err
		}
		trace.Error = string(engErr.Code)
	} else {
		trace.Category = updated.Winner()
	}
	result.Trace = append(result.Trace, TraceEvent{Seq: seq, Type: StepOverride, Override: trace})

	want := ""
	if step.Expect != nil && step.Expect.Error != "none" {
		want = step.Expect.Error
	}
	if trace.Error != want {
		result.AddError(fmt.Sprintf("step %d: override error: expected %q, got %q", seq, want, trace.Error))
	}
	if step.Expect != nil && step.Expect.Category != "" && step.Expect.Category != trace.Category {
		result.AddError(fmt.Sprintf("step %d: override category: expected %q, got %q",
			seq, step.Expect.Category, trace.Category))
	}
	return nil
}

func (h *Harness) runRemove(ctx context.Context, seq int64, step Step, result *Result) error {
	key := *step.Remove
	removed := false
	err := h.store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		out := local[:0]
		for _, r := range local {
			if r.Key() == key {
				removed = true
				continue
			}
			out = append(out, r)
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	result.Trace = append(result.Trace, TraceEvent{
		Seq:    seq,
		Type:   StepRemove,
		Remove: &RemoveTrace{Key: key, Removed: removed},
	})
	return nil
}

func (h *Harness) finalState(ctx context.Context) (FinalState, error) {
	records, err := h.store.ReadAll(ctx)
	if err != nil {
		return FinalState{}, err
	}
	entries, err := h.ledger.List(ctx)
	if err != nil {
		return FinalState{}, err
	}
	names, err := h.cats.Known(ctx)
	if err != nil {
		return FinalState{}, err
	}

	final := FinalState{
		Records:    records,
		Ledger:     make([]ConflictTrace, 0, len(entries)),
		Categories: names,
	}
	for _, c := range entries {
		final.Ledger = append(final.Ledger, conflictTrace(c))
	}
	return final, nil
}

func checkSyncExpect(want *StepExpect, rep engine.Report) []string {
	var errs []string
	if want.Phase != "" && want.Phase != string(rep.Phase) {
		errs = append(errs, fmt.Sprintf("phase: expected %s, got %s (%s)", want.Phase, rep.Phase, rep.Message))
	}
	counts := []struct {
		name string
		want *int
		got  int
	}{
		{"added", want.Added, rep.Added},
		{"updated", want.Updated, rep.Updated},
		{"conflicts", want.Conflicts, len(rep.Conflicts)},
		{"dropped", want.Dropped, rep.Dropped},
		{"collapsed", want.Collapsed, rep.Collapsed},
	}
	for _, c := range counts {
		if c.want != nil && *c.want != c.got {
			errs = append(errs, fmt.Sprintf("%s: expected %d, got %d", c.name, *c.want, c.got))
		}
	}
	return errs
}
