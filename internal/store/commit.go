package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

var _ engine.Committer = (*Store)(nil)

// Commit replaces the collection and appends the cycle's conflicts in one
// transaction. A failure anywhere rolls back both.
func (s *Store) Commit(ctx context.Context, fn func([]model.Record) ([]model.Record, []model.Conflict, error)) ([]model.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := readRecords(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	next, conflicts, err := fn(current)
	if err != nil {
		return nil, err
	}

	if err := replaceRecords(ctx, tx, next); err != nil {
		return nil, fmt.Errorf("write records: %w", err)
	}
	stored, err := insertConflicts(ctx, tx, conflicts)
	if err != nil {
		return nil, fmt.Errorf("append conflicts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// Resolve checks the entry at index, applies fn to the collection and marks
// the entry overridden, all inside one transaction. A second process racing
// on the same entry sees either none or all of the change.
func (s *Store) Resolve(ctx context.Context, index int, choice model.Choice, at time.Time, fn func(model.Conflict, []model.Record) ([]model.Record, error)) (model.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := pendingConflict(ctx, tx, index)
	if err != nil {
		return model.Conflict{}, err
	}

	current, err := readRecords(ctx, tx)
	if err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: %w", err)
	}
	next, err := fn(cur, current)
	if err != nil {
		return model.Conflict{}, err
	}
	if next != nil {
		if err := replaceRecords(ctx, tx, next); err != nil {
			return model.Conflict{}, fmt.Errorf("override conflict: %w", err)
		}
	}

	updated, err := markOverridden(ctx, tx, cur, choice, at)
	if err != nil {
		return model.Conflict{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Conflict{}, fmt.Errorf("override conflict: commit: %w", err)
	}
	return updated, nil
}
