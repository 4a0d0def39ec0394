package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const keyLastAttempt = "last_attempt"

// RecordAttempt persists the time the last sync cycle finished.
func (s *Store) RecordAttempt(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, keyLastAttempt, marshalTime(at))
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// LastAttempt returns the persisted last-attempt time, or the zero time if
// no cycle has finished yet.
func (s *Store) LastAttempt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_state WHERE key = ?`, keyLastAttempt,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last attempt: %w", err)
	}
	t, err := unmarshalTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("last attempt: %w", err)
	}
	return t, nil
}
