package store

import (
	"context"
	"fmt"

	"github.com/roach88/quotesync/internal/model"
)

// Favorites returns favorite quotes in the order they were marked.
func (s *Store) Favorites(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, author, category
		FROM favorites
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favs := []model.Record{}
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Text, &r.Author, &r.Category); err != nil {
			return nil, fmt.Errorf("list favorites: scan: %w", err)
		}
		favs = append(favs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}

// AddFavorite marks r as a favorite. It reports false if r's key already is one.
func (s *Store) AddFavorite(ctx context.Context, r model.Record) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (text, author, category) VALUES (?, ?, ?)
		ON CONFLICT(text, author) DO NOTHING
	`, r.Text, r.Author, r.Category)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return n == 1, nil
}

// RemoveFavorite unmarks key. It reports false if key was not a favorite.
func (s *Store) RemoveFavorite(ctx context.Context, key model.Key) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE text = ? AND author = ?`, key.Text, key.Author)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return n == 1, nil
}

// ClearFavorites removes every favorite and returns how many there were.
func (s *Store) ClearFavorites(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites`)
	if err != nil {
		return 0, fmt.Errorf("clear favorites: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear favorites: %w", err)
	}
	return int(n), nil
}
