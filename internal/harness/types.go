package harness

import "github.com/roach88/quotesync/internal/model"

// Step types recorded in the trace.
const (
	StepSync     = "sync"
	StepOverride = "override"
	StepRemove   = "remove"
)

// TraceEvent records what one scenario step did.
// Exactly one of Sync, Override and Remove is set, matching Type.
type TraceEvent struct {
	Seq      int64          `json:"seq"`
	Type     string         `json:"type"`
	Sync     *SyncTrace     `json:"sync,omitempty"`
	Override *OverrideTrace `json:"override,omitempty"`
	Remove   *RemoveTrace   `json:"remove,omitempty"`
}

// SyncTrace is the outcome of one sync cycle.
type SyncTrace struct {
	CycleID       string          `json:"cycle_id"`
	Phase         model.Phase     `json:"phase"`
	Message       string          `json:"message"`
	Added         int             `json:"added"`
	Updated       int             `json:"updated"`
	Dropped       int             `json:"dropped"`
	Collapsed     int             `json:"collapsed"`
	Conflicts     []ConflictTrace `json:"conflicts,omitempty"`
	NewCategories []string        `json:"new_categories,omitempty"`
}

// ConflictTrace is a conflict without its timestamps.
type ConflictTrace struct {
	Seq            int64            `json:"seq"`
	CycleID        string           `json:"cycle_id"`
	Key            model.Key        `json:"key"`
	LocalCategory  string           `json:"local_category"`
	RemoteCategory string           `json:"remote_category"`
	Resolution     model.Resolution `json:"resolution"`
	Overridden     bool             `json:"overridden"`
}

func conflictTrace(c model.Conflict) ConflictTrace {
	return ConflictTrace{
		Seq:            c.Seq,
		CycleID:        c.CycleID,
		Key:            c.Key,
		LocalCategory:  c.LocalCategory,
		RemoteCategory: c.RemoteCategory,
		Resolution:     c.Resolution,
		Overridden:     c.Overridden,
	}
}

// OverrideTrace is the outcome of one override call.
type OverrideTrace struct {
	Index    int          `json:"index"`
	Choice   model.Choice `json:"choice"`
	Error    string       `json:"error,omitempty"` // engine error code
	Category string       `json:"category,omitempty"`
}

// RemoveTrace records a record deleted from the local store outside sync.
type RemoveTrace struct {
	Key     model.Key `json:"key"`
	Removed bool      `json:"removed"`
}

// FinalState is the collaborator state after the last step.
type FinalState struct {
	Records    []model.Record  `json:"records"`
	Ledger     []ConflictTrace `json:"ledger"`
	Categories []string        `json:"categories"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation, property check and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state of the store, ledger and registry after the run.
	Final FinalState `json:"final"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
