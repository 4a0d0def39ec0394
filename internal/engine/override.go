package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/quotesync/internal/model"
)

// Overrider applies human choices to ledger entries.
//
// Overrides run independently of the scheduler. They are serialized with each
// other but not with sync cycles. The record change and the ledger change
// commit together: through the backend's Resolve when store and ledger are
// one Committer, otherwise with the ledger write nested in the store's Update.
type Overrider struct {
	store     LocalStore
	ledger    Ledger
	wall      WallClock
	committer Committer

	mu sync.Mutex
}

// NewOverrider creates an Overrider. A nil wall clock uses SystemClock.
func NewOverrider(store LocalStore, ledger Ledger, wall WallClock) *Overrider {
	if wall == nil {
		wall = SystemClock{}
	}
	return &Overrider{
		store:     store,
		ledger:    ledger,
		wall:      wall,
		committer: committerFor(store, ledger),
	}
}

// Apply resolves the ledger entry at index in favor of choice.
//
// Choosing local restores the entry's LocalCategory on the matching store
// record and marks the entry local-wins. Choosing remote leaves the store as
// the merge left it and marks the entry overridden, remote-wins.
//
// Errors: NOT_FOUND for a bad index, ALREADY_RESOLVED if the entry was
// overridden before, ENTITY_MISSING if the key is no longer in the store.
// Any error leaves both the store and the ledger unchanged.
func (o *Overrider) Apply(ctx context.Context, index int, choice model.Choice) (model.Conflict, error) {
	if _, err := model.ParseChoice(string(choice)); err != nil {
		return model.Conflict{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	restore := func(c model.Conflict, local []model.Record) ([]model.Record, error) {
		i := Match(local, model.Record{Text: c.Key.Text, Author: c.Key.Author})
		if i == NotFound {
			return nil, NewEntityMissingError(index, c.Key)
		}
		if choice != model.ChooseLocal {
			return nil, nil
		}
		out := model.Clone(local)
		out[i].Category = c.LocalCategory
		return out, nil
	}

	var (
		updated model.Conflict
		err     error
	)
	if o.committer != nil {
		updated, err = o.committer.Resolve(ctx, index, choice, o.wall.Now(), restore)
	} else {
		updated, err = o.resolve(ctx, index, choice, restore)
	}
	if err != nil {
		return model.Conflict{}, err
	}

	slog.Info("conflict overridden",
		"index", index,
		"key", updated.Key.String(),
		"choice", choice,
		"category", updated.Winner(),
	)
	return updated, nil
}

// resolve runs the ledger override inside the store's Update so a rejected
// override leaves the records alone.
func (o *Overrider) resolve(ctx context.Context, index int, choice model.Choice, restore func(model.Conflict, []model.Record) ([]model.Record, error)) (model.Conflict, error) {
	c, err := o.ledger.Get(ctx, index)
	if err != nil {
		return model.Conflict{}, err
	}
	if c.Overridden {
		return model.Conflict{}, NewAlreadyResolvedError(index, c.Key)
	}

	var updated model.Conflict
	err = o.store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		next, err := restore(c, local)
		if err != nil {
			return nil, err
		}
		updated, err = o.ledger.Override(ctx, index, choice, o.wall.Now())
		if err != nil {
			return nil, err
		}
		if next == nil {
			return local, nil
		}
		return next, nil
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return model.Conflict{}, e
		}
		return model.Conflict{}, fmt.Errorf("override conflict: %w", err)
	}
	return updated, nil
}
