package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// ErrNotInCollection is returned by Favorite for a key the collection lacks.
var ErrNotInCollection = errors.New("quote is not in the collection")

// FavoriteStore keeps the favorite quotes.
type FavoriteStore interface {
	Favorites(ctx context.Context) ([]model.Record, error)
	AddFavorite(ctx context.Context, r model.Record) (bool, error)
	RemoveFavorite(ctx context.Context, key model.Key) (bool, error)
	ClearFavorites(ctx context.Context) (int, error)
}

// Favorite marks the quote with key as a favorite, copying its current
// category. It reports whether the quote was not a favorite before.
func Favorite(ctx context.Context, store engine.LocalStore, favs FavoriteStore, key model.Key) (model.Record, bool, error) {
	local, err := store.ReadAll(ctx)
	if err != nil {
		return model.Record{}, false, fmt.Errorf("add favorite: %w", err)
	}
	i := engine.Match(local, model.Record{Text: key.Text, Author: key.Author})
	if i == engine.NotFound {
		return model.Record{}, false, fmt.Errorf("%w: %s", ErrNotInCollection, key)
	}

	added, err := favs.AddFavorite(ctx, local[i])
	if err != nil {
		return model.Record{}, false, err
	}
	return local[i], added, nil
}

// IsFavorite reports whether key is among favs.
func IsFavorite(favs []model.Record, key model.Key) bool {
	for _, f := range favs {
		if f.Key() == key {
			return true
		}
	}
	return false
}
