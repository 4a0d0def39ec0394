package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

var (
	// ErrNothingToClear is returned by Reset when the collection is empty.
	ErrNothingToClear = errors.New("no quotes to clear")

	// ErrUnknownCategory is returned by DeleteCategory for a name that is
	// neither registered nor used by any quote.
	ErrUnknownCategory = errors.New("unknown category")
)

// CategoryEditor is a category registry that can also forget names.
type CategoryEditor interface {
	engine.CategoryRegistry
	Unregister(ctx context.Context, names ...string) error
}

// Reset replaces the whole collection with the built-in samples and rebuilds
// the category list from them. It returns how many quotes were discarded.
// The conflict ledger is not touched.
func Reset(ctx context.Context, store engine.LocalStore, cats CategoryEditor) (int, error) {
	removed := 0
	err := store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		if len(local) == 0 {
			return nil, ErrNothingToClear
		}
		removed = len(local)
		return Samples(), nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear quotes: %w", err)
	}

	known, err := cats.Known(ctx)
	if err != nil {
		return removed, fmt.Errorf("clear quotes: %w", err)
	}
	if err := cats.Unregister(ctx, known...); err != nil {
		return removed, fmt.Errorf("clear quotes: %w", err)
	}
	if err := cats.Register(ctx, model.Categories(samples)...); err != nil {
		return removed, fmt.Errorf("clear quotes: %w", err)
	}
	return removed, nil
}

// DeleteCategory removes every quote filed under name and then drops name
// from the registry. It returns how many quotes were removed.
func DeleteCategory(ctx context.Context, store engine.LocalStore, cats CategoryEditor, name string) (int, error) {
	known, err := cats.Known(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	registered := model.NewCategorySet(known...).Has(name)

	removed := 0
	err = store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		out := make([]model.Record, 0, len(local))
		for _, r := range local {
			if r.Category == name {
				removed++
				continue
			}
			out = append(out, r)
		}
		if removed == 0 && !registered {
			return nil, fmt.Errorf("%w %q", ErrUnknownCategory, name)
		}
		return out, nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}

	if registered {
		if err := cats.Unregister(ctx, name); err != nil {
			return removed, fmt.Errorf("delete category: %w", err)
		}
	}
	return removed, nil
}
