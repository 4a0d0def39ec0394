package store

import (
	"context"
	"fmt"
	"strings"
)

// Known returns registered categories in registration order.
func (s *Store) Known(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list categories: scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

// Register adds categories that are not yet known. Blank names are ignored.
func (s *Store) Register(ctx context.Context, names ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register categories: begin: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name) VALUES (?)
			ON CONFLICT(name) DO NOTHING
		`, name)
		if err != nil {
			return fmt.Errorf("register category %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register categories: commit: %w", err)
	}
	return nil
}

// Unregister forgets categories. Unknown names are ignored.
func (s *Store) Unregister(ctx context.Context, names ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unregister categories: begin: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE name = ?`, strings.TrimSpace(name)); err != nil {
			return fmt.Errorf("unregister category %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unregister categories: commit: %w", err)
	}
	return nil
}
