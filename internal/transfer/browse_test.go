package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quotesync/internal/category"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/store"
)

func browseSet() []model.Record {
	return []model.Record{
		rec("a", "A", "wisdom"),
		rec("b", "B", "life"),
		rec("c", "C", "wisdom"),
	}
}

func TestFilter(t *testing.T) {
	records := browseSet()

	assert.Equal(t, records, Filter(records, ""))
	assert.Equal(t, records, Filter(records, AllCategories))
	assert.Equal(t, []model.Record{rec("a", "A", "wisdom"), rec("c", "C", "wisdom")}, Filter(records, "wisdom"))
	assert.Empty(t, Filter(records, "Wisdom"), "category match is exact")
}

func TestRandom(t *testing.T) {
	last := func(n int) int { return n - 1 }

	got, err := Random(browseSet(), "wisdom", last)
	require.NoError(t, err)
	assert.Equal(t, rec("c", "C", "wisdom"), got)

	got, err = Random(browseSet(), AllCategories, func(int) int { return 1 })
	require.NoError(t, err)
	assert.Equal(t, rec("b", "B", "life"), got)

	_, err = Random(browseSet(), "art", last)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Contains(t, err.Error(), `"art"`)

	_, err = Random(nil, "", last)
	assert.ErrorIs(t, err, ErrNoQuotes)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{Total: 3, Favorites: 1, Showing: 2, Filter: "wisdom"}, Summarize(browseSet(), 1, "wisdom"))
	assert.Equal(t, Stats{Total: 3, Showing: 3, Filter: AllCategories}, Summarize(browseSet(), 0, ""))
}

func TestReset_RestoresSamples(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(browseSet()...)
	cats := category.NewMemory("wisdom", "life", "stale")

	removed, err := Reset(ctx, mem, cats)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	records, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, Samples(), records)

	known, err := cats.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Categories(Samples()), known)
}

func TestReset_EmptyCollection(t *testing.T) {
	_, err := Reset(context.Background(), store.NewMemory(), category.NewMemory())
	assert.ErrorIs(t, err, ErrNothingToClear)
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(browseSet()...)
	cats := category.NewMemory("wisdom", "life")

	removed, err := DeleteCategory(ctx, mem, cats, "wisdom")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{rec("b", "B", "life")}, records)

	known, err := cats.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"life"}, known)
}

func TestDeleteCategory_RegisteredButUnused(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(browseSet()...)
	cats := category.NewMemory("wisdom", "life", "art")

	removed, err := DeleteCategory(ctx, mem, cats, "art")
	require.NoError(t, err)
	assert.Zero(t, removed)

	known, err := cats.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wisdom", "life"}, known)
}

func TestDeleteCategory_Unknown(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(browseSet()...)

	_, err := DeleteCategory(ctx, mem, category.NewMemory(), "art")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	records, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFavorite(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(browseSet()...)

	got, added, err := Favorite(ctx, mem, mem, model.Key{Text: "b", Author: "B"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, rec("b", "B", "life"), got)

	_, added, err = Favorite(ctx, mem, mem, model.Key{Text: "b", Author: "B"})
	require.NoError(t, err)
	assert.False(t, added, "already a favorite")

	_, _, err = Favorite(ctx, mem, mem, model.Key{Text: "B", Author: "B"})
	assert.ErrorIs(t, err, ErrNotInCollection)

	favs, err := mem.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{rec("b", "B", "life")}, favs)
	assert.True(t, IsFavorite(favs, model.Key{Text: "b", Author: "B"}))
	assert.False(t, IsFavorite(favs, model.Key{Text: "a", Author: "A"}))

	removed, err := mem.RemoveFavorite(ctx, model.Key{Text: "b", Author: "B"})
	require.NoError(t, err)
	assert.True(t, removed)

	n, err := mem.ClearFavorites(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
