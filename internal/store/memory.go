package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// Memory is an in-memory LocalStore that also keeps favorites. A mutex makes
// Update atomic with respect to ReadAll.
type Memory struct {
	mu          sync.RWMutex
	records     []model.Record
	favorites   []model.Record
	lastAttempt time.Time
}

var (
	_ engine.LocalStore      = (*Memory)(nil)
	_ engine.AttemptRecorder = (*Memory)(nil)
)

// NewMemory creates a store holding a copy of records.
func NewMemory(records ...model.Record) *Memory {
	return &Memory{records: model.Clone(records)}
}

// ReadAll returns a copy of the collection.
func (m *Memory) ReadAll(_ context.Context) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := model.Clone(m.records)
	if out == nil {
		out = []model.Record{}
	}
	return out, nil
}

// WriteAll replaces the collection with a copy of records.
func (m *Memory) WriteAll(_ context.Context, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = model.Clone(records)
	return nil
}

// Update replaces the collection with fn's result while holding the lock.
func (m *Memory) Update(_ context.Context, fn func([]model.Record) ([]model.Record, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := model.Clone(m.records)
	if current == nil {
		current = []model.Record{}
	}
	next, err := fn(current)
	if err != nil {
		return fmt.Errorf("update records: %w", err)
	}
	m.records = model.Clone(next)
	return nil
}

// RecordAttempt implements engine.AttemptRecorder.
func (m *Memory) RecordAttempt(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAttempt = at
	return nil
}

// LastAttempt returns the recorded attempt time.
func (m *Memory) LastAttempt(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAttempt, nil
}

// Favorites returns a copy of the favorites in the order they were marked.
func (m *Memory) Favorites(_ context.Context) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := model.Clone(m.favorites)
	if out == nil {
		out = []model.Record{}
	}
	return out, nil
}

// AddFavorite marks r as a favorite. It reports false if r's key already is one.
func (m *Memory) AddFavorite(_ context.Context, r model.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.favorites {
		if f.Key() == r.Key() {
			return false, nil
		}
	}
	m.favorites = append(m.favorites, r)
	return true, nil
}

// RemoveFavorite unmarks key. It reports false if key was not a favorite.
func (m *Memory) RemoveFavorite(_ context.Context, key model.Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.favorites {
		if f.Key() == key {
			m.favorites = append(m.favorites[:i:i], m.favorites[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ClearFavorites removes every favorite and returns how many there were.
func (m *Memory) ClearFavorites(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.favorites)
	m.favorites = nil
	return n, nil
}
