package model

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownAuthor is the sentinel author used when a record carries none.
const UnknownAuthor = "unknown"

// Record is a single quote in the collection.
type Record struct {
	Text     string `json:"text" yaml:"text"`
	Author   string `json:"author" yaml:"author"`
	Category string `json:"category" yaml:"category"`
}

// Key identifies the logical entity a Record denotes.
type Key struct {
	Text   string `json:"text" yaml:"text"`
	Author string `json:"author" yaml:"author"`
}

// String renders the key for logs and CLI output.
func (k Key) String() string {
	return fmt.Sprintf("%q by %s", k.Text, k.Author)
}

// Key returns the entity key of the record.
// No normalization is applied: matching is exact and case-sensitive.
func (r Record) Key() Key {
	return Key{Text: r.Text, Author: r.Author}
}

// Normalize returns a copy of r with the author default applied and the
// category trimmed. Text and author are left byte-exact.
func (r Record) Normalize() Record {
	r.Category = strings.TrimSpace(r.Category)
	if r.Author == "" {
		r.Author = UnknownAuthor
	}
	return r
}

// ErrMissingText is returned by Validate for a record without text.
var ErrMissingText = errors.New("record text is required")

// ErrMissingAuthor is returned by Validate for a record without author.
var ErrMissingAuthor = errors.New("record author is required")

// Validate checks that the identity-bearing fields are present.
// Call Normalize first when the author default should apply.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrMissingText
	}
	if r.Author == "" {
		return ErrMissingAuthor
	}
	return nil
}

// CategorySet is a set of category names.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from names.
func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name and reports whether it was new.
func (s CategorySet) Add(name string) bool {
	if _, ok := s[name]; ok {
		return false
	}
	s[name] = struct{}{}
	return true
}

// Categories returns the distinct categories of records in first-seen order.
func Categories(records []Record) []string {
	seen := make(CategorySet)
	var out []string
	for _, r := range records {
		if r.Category == "" {
			continue
		}
		if seen.Add(r.Category) {
			out = append(out, r.Category)
		}
	}
	return out
}

// Clone returns a copy of records that shares no backing array with the input.
func Clone(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
