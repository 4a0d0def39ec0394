package engine

import (
	"context"
	"time"

	"github.com/roach88/quotesync/internal/model"
)

// LocalStore is the application-owned record collection.
//
// The engine treats it as the single source of truth between cycles and
// never caches a copy across cycles.
type LocalStore interface {
	ReadAll(ctx context.Context) ([]model.Record, error)
	WriteAll(ctx context.Context, records []model.Record) error

	// Update atomically replaces the collection with fn's result. No reader
	// observes an intermediate state. If fn returns an error nothing is written
	// and Update returns that error, wrapped.
	Update(ctx context.Context, fn func(local []model.Record) ([]model.Record, error)) error
}

// Fetcher retrieves the remote record set.
//
// Fetch never returns an error: failures are encoded in the result so the
// scheduler can classify them without inspecting error types.
type Fetcher interface {
	Fetch(ctx context.Context) model.RemoteResult
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) model.RemoteResult

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) model.RemoteResult {
	return f(ctx)
}

// Ledger is the append-only audit trail of detected conflicts.
//
// Indexes are zero-based positions in List order (oldest first).
type Ledger interface {
	// Append stores conflicts in order and returns them with Seq assigned.
	Append(ctx context.Context, conflicts []model.Conflict) ([]model.Conflict, error)
	List(ctx context.Context) ([]model.Conflict, error)
	Get(ctx context.Context, index int) (model.Conflict, error)

	// Override records a human choice for the entry at index. It fails with
	// NOT_FOUND for a bad index and ALREADY_RESOLVED on a second call.
	Override(ctx context.Context, index int, choice model.Choice, at time.Time) (model.Conflict, error)
}

// CategoryRegistry is told about categories the merge introduces. It owns
// persistence and display of the category list.
type CategoryRegistry interface {
	Known(ctx context.Context) ([]string, error)
	Register(ctx context.Context, names ...string) error
}

// AttemptRecorder persists the time of the last finished cycle. The value is
// for display only and never gates scheduling.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, at time.Time) error
}

// Committer is a backend that holds both the collection and the ledger and
// can change them in one unit. When a scheduler's or overrider's Store and
// Ledger are the same Committer, cycles and overrides commit through it.
type Committer interface {
	// Commit reads the collection and passes it to fn. The collection fn
	// returns and the conflicts it returns are written together, and the
	// stored conflicts come back with Seq assigned. If fn or any write fails
	// nothing changes.
	Commit(ctx context.Context, fn func(local []model.Record) ([]model.Record, []model.Conflict, error)) ([]model.Conflict, error)

	// Resolve marks the entry at index overridden by choice and replaces the
	// collection with fn's result in the same unit. fn sees the entry before
	// the override; a nil result leaves the collection as it is. Errors from
	// fn are returned unwrapped.
	Resolve(ctx context.Context, index int, choice model.Choice, at time.Time, fn func(c model.Conflict, local []model.Record) ([]model.Record, error)) (model.Conflict, error)
}

// committerFor returns store as a Committer when it also serves as ledger.
func committerFor(store LocalStore, ledger Ledger) Committer {
	c, ok := store.(Committer)
	if !ok {
		return nil
	}
	if l, ok := ledger.(Committer); !ok || l != c {
		return nil
	}
	return c
}
