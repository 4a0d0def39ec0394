// Package category keeps the set of known quote categories.
package category

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// Memory is an in-memory category registry.
type Memory struct {
	mu    sync.RWMutex
	names []string
	set   model.CategorySet
}

var _ engine.CategoryRegistry = (*Memory)(nil)

// NewMemory creates a registry seeded with names. Blank names are ignored.
func NewMemory(names ...string) *Memory {
	m := &Memory{set: make(model.CategorySet)}
	m.add(names)
	return m
}

// Known returns registered categories in registration order.
func (m *Memory) Known(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.names))
	copy(out, m.names)
	return out, nil
}

// Register adds names that are not yet known.
func (m *Memory) Register(_ context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(names)
	return nil
}

// Unregister forgets names. Unknown names are ignored.
func (m *Memory) Unregister(_ context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(model.CategorySet, len(names))
	for _, n := range names {
		drop.Add(strings.TrimSpace(n))
	}
	kept := m.names[:0]
	for _, n := range m.names {
		if drop.Has(n) {
			delete(m.set, n)
			continue
		}
		kept = append(kept, n)
	}
	m.names = kept
	return nil
}

func (m *Memory) add(names []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if m.set.Add(n) {
			m.names = append(m.names, n)
		}
	}
}

// Sorted returns a copy of names in locale-aware, case-insensitive display
// order.
func Sorted(tag language.Tag, names []string) []string {
	out := make([]string, len(names))
	copy(out, names)

	c := collate.New(tag, collate.IgnoreCase)
	c.SortStrings(out)
	return out
}
