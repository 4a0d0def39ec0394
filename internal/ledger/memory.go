// Package ledger provides an in-memory conflict ledger.
//
// The SQLite store in internal/store is the durable implementation; Memory
// backs tests, the scenario harness and short-lived runs.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// Memory is an append-only conflict ledger held in memory.
// Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries []model.Conflict
	clock   *engine.Clock
}

var _ engine.Ledger = (*Memory)(nil)

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{clock: engine.NewClock()}
}

// Append stores conflicts in order, assigning each a sequence number.
func (m *Memory) Append(_ context.Context, conflicts []model.Conflict) ([]model.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Conflict, len(conflicts))
	for i, c := range conflicts {
		c.Seq = m.clock.Next()
		m.entries = append(m.entries, c)
		out[i] = c
	}
	return out, nil
}

// List returns every entry, oldest first.
func (m *Memory) List(_ context.Context) ([]model.Conflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Conflict, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Get returns the entry at index.
func (m *Memory) Get(_ context.Context, index int) (model.Conflict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.entries) {
		return model.Conflict{}, engine.NewNotFoundError(index, len(m.entries))
	}
	return m.entries[index], nil
}

// Override marks the entry at index as resolved by choice. An entry can be
// overridden once.
func (m *Memory) Override(_ context.Context, index int, choice model.Choice, at time.Time) (model.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.entries) {
		return model.Conflict{}, engine.NewNotFoundError(index, len(m.entries))
	}
	cur := m.entries[index]
	if cur.Overridden {
		return model.Conflict{}, engine.NewAlreadyResolvedError(index, cur.Key)
	}

	m.entries[index] = cur.WithOverride(choice, at)
	return m.entries[index], nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
