package model

import (
	"fmt"
	"time"
)

// Resolution names which side's category survived a conflict.
type Resolution string

const (
	// RemoteWins is the automatic policy applied by every merge.
	RemoteWins Resolution = "remote-wins"
	// LocalWins is only reachable through an explicit override.
	LocalWins Resolution = "local-wins"
)

// Valid reports whether r is a known resolution.
func (r Resolution) Valid() bool {
	return r == RemoteWins || r == LocalWins
}

// Choice is the side picked by a human override.
type Choice string

const (
	ChooseLocal  Choice = "local"
	ChooseRemote Choice = "remote"
)

// ParseChoice parses "local" or "remote".
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case ChooseLocal, ChooseRemote:
		return Choice(s), nil
	default:
		return "", fmt.Errorf("invalid choice %q: must be %q or %q", s, ChooseLocal, ChooseRemote)
	}
}

// Resolution maps the choice onto the ledger resolution it produces.
func (c Choice) Resolution() Resolution {
	if c == ChooseLocal {
		return LocalWins
	}
	return RemoteWins
}

// Conflict is one ledger entry: a category divergence detected by a single
// sync cycle for a single entity.
//
// Everything except Resolution, Overridden and OverriddenAt is fixed at
// creation. Those three change together, at most once, through an override.
type Conflict struct {
	Seq            int64      `json:"seq"`
	CycleID        string     `json:"cycle_id"`
	Key            Key        `json:"key"`
	LocalCategory  string     `json:"local_category"`
	RemoteCategory string     `json:"remote_category"`
	Resolution     Resolution `json:"resolution"`
	Overridden     bool       `json:"overridden"`
	DetectedAt     time.Time  `json:"detected_at"`
	OverriddenAt   *time.Time `json:"overridden_at,omitempty"`
}

// WithOverride returns the conflict as it reads after choice was applied at t.
func (c Conflict) WithOverride(choice Choice, t time.Time) Conflict {
	c.Resolution = choice.Resolution()
	c.Overridden = true
	at := t
	c.OverriddenAt = &at
	return c
}

// Winner returns the category that the resolution keeps.
func (c Conflict) Winner() string {
	if c.Resolution == LocalWins {
		return c.LocalCategory
	}
	return c.RemoteCategory
}
