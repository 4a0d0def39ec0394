package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

var (
	// ErrMissingField is returned by Add when text, author or category is blank.
	ErrMissingField = errors.New("text, author and category are required")

	// ErrDuplicate is returned by Add when the quote already exists, ignoring case.
	ErrDuplicate = errors.New("this quote already exists in the collection")
)

// Add appends a manually entered quote. Fields are trimmed and all three are
// required. Unlike sync, the duplicate check ignores case: "stay hungry" by
// "jobs" collides with "Stay Hungry" by "Jobs". cats may be nil.
func Add(ctx context.Context, store engine.LocalStore, cats engine.CategoryRegistry, r model.Record) (model.Record, error) {
	r = model.Record{
		Text:     strings.TrimSpace(r.Text),
		Author:   strings.TrimSpace(r.Author),
		Category: strings.TrimSpace(r.Category),
	}
	if r.Text == "" || r.Author == "" || r.Category == "" {
		return model.Record{}, ErrMissingField
	}

	fold := cases.Fold()
	want := foldKey(fold, r)

	err := store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		for _, cur := range local {
			if foldKey(fold, cur) == want {
				return nil, ErrDuplicate
			}
		}
		return append(model.Clone(local), r), nil
	})
	if err != nil {
		return model.Record{}, fmt.Errorf("add quote: %w", err)
	}

	if _, err := register(ctx, cats, []string{r.Category}); err != nil {
		return r, fmt.Errorf("add quote: %w", err)
	}
	return r, nil
}

func foldKey(fold cases.Caser, r model.Record) model.Key {
	return model.Key{Text: fold.String(r.Text), Author: fold.String(r.Author)}
}
