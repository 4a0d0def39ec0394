package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/quotesync/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable home of the quote collection, the conflict ledger,
// the category list, favorites and sync bookkeeping. All of them live in one
// SQLite file so a sync cycle or an override can change several in a single
// transaction.
type Store struct {
	db *sql.DB
}

var (
	_ engine.LocalStore       = (*Store)(nil)
	_ engine.Ledger           = (*Store)(nil)
	_ engine.CategoryRegistry = (*Store)(nil)
	_ engine.AttemptRecorder  = (*Store)(nil)
)

// pragmas run on every open. WAL lets the status and conflicts commands
// read while a watch process writes; busy_timeout covers the short write
// lock two quotesync processes can contend on.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations are applied in order after schema.sql. The last version is the
// current one.
var migrations = []migration{
	{1, "index conflicts by cycle", `
		CREATE INDEX IF NOT EXISTS idx_conflicts_cycle
		ON conflicts(cycle_id, seq)`},
	{2, "favorites", `
		CREATE TABLE IF NOT EXISTS favorites (
			seq      INTEGER PRIMARY KEY AUTOINCREMENT,
			text     TEXT NOT NULL COLLATE BINARY,
			author   TEXT NOT NULL COLLATE BINARY,
			category TEXT NOT NULL DEFAULT '',
			UNIQUE (text, author)
		)`},
}

// Open opens the database at path, creating it if needed, and brings its
// schema up to date. Opening an up-to-date database changes nothing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer, and it keeps every
	// transaction in this process strictly serial.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database. A Store without a database closes cleanly.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepare(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply pragmas: %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA takes no bind parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
		version = m.version
	}
	return nil
}

// pragma reads a single pragma value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
