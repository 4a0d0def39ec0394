package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"records", "categories", "conflicts", "sync_state"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func assertPragma(t *testing.T, s *Store, name, want string) {
	t.Helper()
	got, err := s.pragma(name)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("%s = %q, want %q", name, got, want)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	assertPragma(t, s, "journal_mode", "wal")
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)

	// NORMAL = 1
	assertPragma(t, s, "synchronous", "1")
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	assertPragma(t, s, "busy_timeout", "5000")
}

func TestPragma_UserVersion(t *testing.T) {
	s := createTestStore(t)

	assertPragma(t, s, "user_version", "2")
}

// Schema tests

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"records":    {"pos", "text", "author", "category"},
		"categories": {"seq", "name"},
		"conflicts": {
			"seq", "cycle_id", "text", "author", "local_category", "remote_category",
			"resolution", "overridden", "detected_at", "overridden_at",
		},
		"sync_state": {"key", "value"},
		"favorites":  {"seq", "text", "author", "category"},
	}

	for table, expected := range tests {
		columns := getTableColumns(t, s.db, table)
		for _, col := range expected {
			if !slices.Contains(columns, col) {
				t.Errorf("%s table missing column %q", table, col)
			}
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if !slices.Contains(getTableIndexes(t, s.db, "records"), "idx_records_key") {
		t.Error("records table missing index idx_records_key")
	}
	if !slices.Contains(getTableIndexes(t, s.db, "conflicts"), "idx_conflicts_cycle") {
		t.Error("conflicts table missing index idx_conflicts_cycle")
	}
}

func TestMigration_FromVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Simulate a database created before the cycle index existed.
	if _, err := s.db.Exec("DROP INDEX idx_conflicts_cycle"); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if !slices.Contains(getTableIndexes(t, s.db, "conflicts"), "idx_conflicts_cycle") {
		t.Error("migration did not recreate idx_conflicts_cycle")
	}
	assertPragma(t, s, "user_version", "2")
}

func TestConstraint_ResolutionCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO conflicts (cycle_id, text, author, local_category, remote_category, resolution, detected_at)
		VALUES ('c', 't', 'a', 'x', 'y', 'both-win', '2024-01-01T00:00:00Z')
	`)
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown resolution")
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
