package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

const conflictColumns = `seq, cycle_id, text, author, local_category, remote_category,
	resolution, overridden, detected_at, overridden_at`

// Append writes conflicts to the ledger in order. The returned entries carry
// the sequence numbers SQLite assigned.
func (s *Store) Append(ctx context.Context, conflicts []model.Conflict) ([]model.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append conflicts: begin: %w", err)
	}
	defer tx.Rollback()

	out, err := insertConflicts(ctx, tx, conflicts)
	if err != nil {
		return nil, fmt.Errorf("append conflicts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append conflicts: commit: %w", err)
	}
	return out, nil
}

func insertConflicts(ctx context.Context, tx *sql.Tx, conflicts []model.Conflict) ([]model.Conflict, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conflicts
		(cycle_id, text, author, local_category, remote_category,
		 resolution, overridden, detected_at, overridden_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	out := make([]model.Conflict, len(conflicts))
	for i, c := range conflicts {
		res, err := stmt.ExecContext(ctx,
			c.CycleID,
			c.Key.Text,
			c.Key.Author,
			c.LocalCategory,
			c.RemoteCategory,
			string(c.Resolution),
			boolToInt(c.Overridden),
			marshalTime(c.DetectedAt),
			marshalNullTime(c.OverriddenAt),
		)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", c.Key, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		c.Seq = seq
		out[i] = c
	}
	return out, nil
}

// List returns every ledger entry, oldest first.
func (s *Store) List(ctx context.Context) ([]model.Conflict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	conflicts := []model.Conflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("list conflicts: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return conflicts, nil
}

// ListCycle returns the entries detected by one cycle, oldest first.
func (s *Store) ListCycle(ctx context.Context, cycleID string) ([]model.Conflict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE cycle_id = ?
		ORDER BY seq ASC
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list cycle conflicts: %w", err)
	}
	defer rows.Close()

	conflicts := []model.Conflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("list cycle conflicts: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cycle conflicts: %w", err)
	}
	return conflicts, nil
}

// Get returns the entry at the zero-based ledger index.
func (s *Store) Get(ctx context.Context, index int) (model.Conflict, error) {
	return getConflict(ctx, s.db, index)
}

// Override records a human choice on the entry at index. An entry can be
// overridden once; the read and the write share a transaction.
func (s *Store) Override(ctx context.Context, index int, choice model.Choice, at time.Time) (model.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := pendingConflict(ctx, tx, index)
	if err != nil {
		return model.Conflict{}, err
	}
	next, err := markOverridden(ctx, tx, cur, choice, at)
	if err != nil {
		return model.Conflict{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: commit: %w", err)
	}
	return next, nil
}

// pendingConflict loads the entry at index and rejects one already overridden.
func pendingConflict(ctx context.Context, tx *sql.Tx, index int) (model.Conflict, error) {
	cur, err := getConflict(ctx, tx, index)
	if err != nil {
		return model.Conflict{}, err
	}
	if cur.Overridden {
		return model.Conflict{}, engine.NewAlreadyResolvedError(index, cur.Key)
	}
	return cur, nil
}

func markOverridden(ctx context.Context, tx *sql.Tx, cur model.Conflict, choice model.Choice, at time.Time) (model.Conflict, error) {
	next := cur.WithOverride(choice, at)
	_, err := tx.ExecContext(ctx, `
		UPDATE conflicts
		SET resolution = ?, overridden = 1, overridden_at = ?
		WHERE seq = ? AND overridden = 0
	`, string(next.Resolution), marshalNullTime(next.OverriddenAt), cur.Seq)
	if err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: %w", err)
	}
	return next, nil
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getConflict(ctx context.Context, q rowQueryer, index int) (model.Conflict, error) {
	var size int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM conflicts`).Scan(&size); err != nil {
		return model.Conflict{}, fmt.Errorf("get conflict: count: %w", err)
	}
	if index < 0 || index >= size {
		return model.Conflict{}, engine.NewNotFoundError(index, size)
	}

	row := q.QueryRowContext(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		ORDER BY seq ASC
		LIMIT 1 OFFSET ?
	`, index)
	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conflict{}, engine.NewNotFoundError(index, size)
	}
	if err != nil {
		return model.Conflict{}, fmt.Errorf("get conflict: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConflict(row scanner) (model.Conflict, error) {
	var (
		c            model.Conflict
		resolution   string
		overridden   int
		detectedAt   string
		overriddenAt sql.NullString
	)
	err := row.Scan(
		&c.Seq,
		&c.CycleID,
		&c.Key.Text,
		&c.Key.Author,
		&c.LocalCategory,
		&c.RemoteCategory,
		&resolution,
		&overridden,
		&detectedAt,
		&overriddenAt,
	)
	if err != nil {
		return model.Conflict{}, err
	}

	c.Resolution = model.Resolution(resolution)
	c.Overridden = overridden == 1
	if c.DetectedAt, err = unmarshalTime(detectedAt); err != nil {
		return model.Conflict{}, err
	}
	if c.OverriddenAt, err = unmarshalNullTime(overriddenAt); err != nil {
		return model.Conflict{}, err
	}
	return c, nil
}
