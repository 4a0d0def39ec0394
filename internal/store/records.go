package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/quotesync/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ReadAll returns the collection in order.
func (s *Store) ReadAll(ctx context.Context) ([]model.Record, error) {
	records, err := readRecords(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// WriteAll replaces the collection.
func (s *Store) WriteAll(ctx context.Context, records []model.Record) error {
	return s.Update(ctx, func([]model.Record) ([]model.Record, error) {
		return records, nil
	})
}

// Update reads the collection, passes it to fn and replaces it with fn's
// result inside one transaction. Readers see either the old or the new
// collection, never a mix. If fn fails the transaction is rolled back and
// fn's error is returned wrapped.
func (s *Store) Update(ctx context.Context, fn func([]model.Record) ([]model.Record, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update records: begin: %w", err)
	}
	defer tx.Rollback()

	current, err := readRecords(ctx, tx)
	if err != nil {
		return fmt.Errorf("update records: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return fmt.Errorf("update records: %w", err)
	}

	if err := replaceRecords(ctx, tx, next); err != nil {
		return fmt.Errorf("update records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update records: commit: %w", err)
	}
	return nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func readRecords(ctx context.Context, q queryer) ([]model.Record, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT text, author, category
		FROM records
		ORDER BY pos ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Text, &r.Author, &r.Category); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return records, nil
}

func replaceRecords(ctx context.Context, tx *sql.Tx, records []model.Record) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (pos, text, author, category)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Text, r.Author, r.Category); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}
