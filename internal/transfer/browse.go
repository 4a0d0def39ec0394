package transfer

import (
	"errors"
	"fmt"

	"github.com/roach88/quotesync/internal/model"
)

// AllCategories selects every quote in Filter, Random and Summarize.
const AllCategories = "all"

var (
	// ErrNoQuotes is returned by Random when the collection is empty.
	ErrNoQuotes = errors.New("no quotes available")

	// ErrNoMatch is returned by Random when no quote is in the category.
	ErrNoMatch = errors.New("no quotes found in category")
)

// Filter returns the records filed under category, in collection order.
// An empty category or AllCategories returns every record.
func Filter(records []model.Record, category string) []model.Record {
	if category == "" || category == AllCategories {
		return model.Clone(records)
	}
	out := []model.Record{}
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Random picks one record from the category using intn, which must return a
// value in [0, n).
func Random(records []model.Record, category string, intn func(n int) int) (model.Record, error) {
	if len(records) == 0 {
		return model.Record{}, ErrNoQuotes
	}
	pool := Filter(records, category)
	if len(pool) == 0 {
		return model.Record{}, fmt.Errorf("%w %q", ErrNoMatch, category)
	}
	return pool[intn(len(pool))], nil
}

// Stats counts the collection as seen through a category filter.
type Stats struct {
	Total     int    `json:"total"`
	Favorites int    `json:"favorites"`
	Showing   int    `json:"showing"`
	Filter    string `json:"filter"`
}

// Summarize counts records, favorites and the records the filter shows.
func Summarize(records []model.Record, favorites int, category string) Stats {
	if category == "" {
		category = AllCategories
	}
	return Stats{
		Total:     len(records),
		Favorites: favorites,
		Showing:   len(Filter(records, category)),
		Filter:    category,
	}
}
