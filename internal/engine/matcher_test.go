package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/quotesync/internal/model"
)

func q(text, author, category string) model.Record {
	return model.Record{Text: text, Author: author, Category: category}
}

func TestMatch(t *testing.T) {
	local := []model.Record{
		q("Stay hungry", "Jobs", "motivation"),
		q("Less is more", "Mies", "design"),
		q("Stay hungry", "Jobs", "duplicate"),
	}

	tests := []struct {
		name string
		r    model.Record
		want int
	}{
		{"first of duplicates", q("Stay hungry", "Jobs", "anything"), 0},
		{"second entry", q("Less is more", "Mies", "design"), 1},
		{"category ignored", q("Less is more", "Mies", "other"), 1},
		{"text case sensitive", q("stay hungry", "Jobs", "motivation"), NotFound},
		{"author case sensitive", q("Stay hungry", "jobs", "motivation"), NotFound},
		{"trailing space differs", q("Stay hungry ", "Jobs", "motivation"), NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(local, tt.r))
			assert.Equal(t, tt.want, NewIndex(local).Lookup(tt.r.Key()), "index must agree with Match")
		})
	}
}

func TestMatch_Empty(t *testing.T) {
	assert.Equal(t, NotFound, Match(nil, q("a", "b", "c")))
	assert.Equal(t, 0, NewIndex(nil).Len())
}

func TestIndex_Len(t *testing.T) {
	idx := NewIndex([]model.Record{q("a", "A", "x"), q("a", "A", "y"), q("b", "A", "x")})
	assert.Equal(t, 2, idx.Len())
}
