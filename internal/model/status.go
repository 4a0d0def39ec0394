package model

import "time"

// Phase is the scheduler state reported in a Status.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseSyncing Phase = "syncing"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Busy reports whether a cycle is in flight. Success and failed are idle
// states that carry the outcome of the last cycle.
func (p Phase) Busy() bool {
	return p == PhaseSyncing
}

// Status describes the most recent cycle. It is overwritten on every cycle.
type Status struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	CycleID   string    `json:"cycle_id,omitempty"`
}

// RemoteResult is what one fetch produced. Fetchers never return errors;
// failures arrive here with Success false and Error set.
type RemoteResult struct {
	Success   bool      `json:"success"`
	Records   []Record  `json:"records"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Dropped counts payload elements the fetcher discarded during
	// shape validation.
	Dropped int `json:"dropped,omitempty"`

	// Malformed marks a failure where the payload arrived but could not be
	// read as a record collection at all.
	Malformed bool `json:"malformed,omitempty"`
}

// Failed builds an unsuccessful result.
func Failed(at time.Time, msg string, err error) RemoteResult {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return RemoteResult{Success: false, Error: msg, Timestamp: at}
}

// Malformed builds an unsuccessful result for a payload that failed
// structural validation.
func Malformed(at time.Time, err error) RemoteResult {
	res := Failed(at, "malformed payload", err)
	res.Malformed = true
	return res
}
