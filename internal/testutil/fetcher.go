package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/roach88/quotesync/internal/model"
)

// ScriptedFetcher returns a fixed sequence of remote results.
//
// Call n returns results[n]; once the script is exhausted the last result
// repeats. An empty script yields failed results.
//
// If Gate is non-nil every Fetch blocks until Gate is closed or the context
// ends, which lets tests hold a cycle in flight. InFlight and MaxInFlight
// expose how many fetches overlapped.
type ScriptedFetcher struct {
	Gate chan struct{}

	mu      sync.Mutex
	results []model.RemoteResult
	calls   int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	started     chan struct{}
}

// NewScriptedFetcher creates a fetcher that plays back results.
func NewScriptedFetcher(results ...model.RemoteResult) *ScriptedFetcher {
	return &ScriptedFetcher{
		results: results,
		started: make(chan struct{}, 64),
	}
}

// Fetch implements engine.Fetcher.
func (f *ScriptedFetcher) Fetch(ctx context.Context) model.RemoteResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return model.Failed(Epoch, "fetch cancelled", ctx.Err())
		}
	}

	if len(f.results) == 0 {
		return model.Failed(Epoch, "no scripted result", nil)
	}
	if call >= len(f.results) {
		call = len(f.results) - 1
	}
	res := f.results[call]
	res.Records = model.Clone(res.Records)
	return res
}

// Started receives one value per Fetch call once the call has begun.
func (f *ScriptedFetcher) Started() <-chan struct{} {
	return f.started
}

// Calls returns how many times Fetch was called.
func (f *ScriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// MaxInFlight returns the largest number of concurrent Fetch calls observed.
func (f *ScriptedFetcher) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}

// Remote builds a successful result stamped at Epoch.
func Remote(records ...model.Record) model.RemoteResult {
	return model.RemoteResult{
		Success:   true,
		Records:   records,
		Timestamp: Epoch,
	}
}

// Q is shorthand for a record.
func Q(text, author, category string) model.Record {
	return model.Record{Text: text, Author: author, Category: category}
}
