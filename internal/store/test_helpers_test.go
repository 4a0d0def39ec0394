package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/quotesync/internal/model"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(text, author, category string) model.Record {
	return model.Record{Text: text, Author: author, Category: category}
}

func testConflict(cycle, text, local, remote string) model.Conflict {
	return model.Conflict{
		CycleID:        cycle,
		Key:            model.Key{Text: text, Author: "A"},
		LocalCategory:  local,
		RemoteCategory: remote,
		Resolution:     model.RemoteWins,
		DetectedAt:     testTime,
	}
}
