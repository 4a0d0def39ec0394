package engine

import "github.com/roach88/quotesync/internal/model"

// NotFound is returned by Match and Index.Lookup when no local record has the key.
const NotFound = -1

// Match returns the index of the first local record with the same entity key
// as r, or NotFound.
//
// Comparison is exact and case-sensitive on (text, author). Linear in
// len(local); Merge uses Index instead.
func Match(local []model.Record, r model.Record) int {
	key := r.Key()
	for i := range local {
		if local[i].Key() == key {
			return i
		}
	}
	return NotFound
}

// Index is a key lookup over a record slice with the same first-match
// semantics as Match.
//
// The index is a snapshot: it does not observe later changes to the slice.
type Index struct {
	first map[model.Key]int
}

// NewIndex builds an index over local.
func NewIndex(local []model.Record) *Index {
	idx := &Index{first: make(map[model.Key]int, len(local))}
	for i, r := range local {
		k := r.Key()
		if _, ok := idx.first[k]; !ok {
			idx.first[k] = i
		}
	}
	return idx
}

// Lookup returns the index of the first record with key, or NotFound.
func (x *Index) Lookup(key model.Key) int {
	if i, ok := x.first[key]; ok {
		return i
	}
	return NotFound
}

// Len returns the number of distinct keys.
func (x *Index) Len() int {
	return len(x.first)
}
