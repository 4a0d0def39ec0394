package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

func TestAppend_AssignsIncreasingSeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first, err := s.Append(ctx, []model.Conflict{
		testConflict("c1", "q1", "wisdom", "life"),
		testConflict("c1", "q2", "art", "humor"),
	})
	require.NoError(t, err)
	second, err := s.Append(ctx, []model.Conflict{testConflict("c2", "q1", "life", "hope")})
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Less(t, first[0].Seq, first[1].Seq)
	assert.Less(t, first[1].Seq, second[0].Seq)
}

func TestAppend_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	out, err := s.Append(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestList_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	in := testConflict("c1", "q1", "wisdom", "life")
	stored, err := s.Append(ctx, []model.Conflict{in})
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, stored[0].Seq, got.Seq)
	assert.Equal(t, "c1", got.CycleID)
	assert.Equal(t, in.Key, got.Key)
	assert.Equal(t, "wisdom", got.LocalCategory)
	assert.Equal(t, "life", got.RemoteCategory)
	assert.Equal(t, model.RemoteWins, got.Resolution)
	assert.False(t, got.Overridden)
	assert.Nil(t, got.OverriddenAt)
	assert.True(t, testTime.Equal(got.DetectedAt))
}

func TestListCycle_FiltersByCycle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Append(ctx, []model.Conflict{
		testConflict("c1", "q1", "a", "b"),
		testConflict("c2", "q2", "a", "b"),
		testConflict("c1", "q3", "a", "b"),
	})
	require.NoError(t, err)

	got, err := s.ListCycle(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].Key.Text)
	assert.Equal(t, "q3", got[1].Key.Text)
}

func TestGet_ByIndex(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Append(ctx, []model.Conflict{
		testConflict("c1", "q1", "a", "b"),
		testConflict("c1", "q2", "c", "d"),
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "q2", got.Key.Text)

	_, err = s.Get(ctx, 2)
	assert.True(t, engine.IsNotFound(err))
	_, err = s.Get(ctx, -1)
	assert.True(t, engine.IsNotFound(err))
}

func TestOverride_WriteOnce(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Append(ctx, []model.Conflict{testConflict("c1", "q1", "wisdom", "life")})
	require.NoError(t, err)

	at := testTime.Add(time.Hour)
	got, err := s.Override(ctx, 0, model.ChooseLocal, at)
	require.NoError(t, err)
	assert.Equal(t, model.LocalWins, got.Resolution)
	assert.True(t, got.Overridden)

	_, err = s.Override(ctx, 0, model.ChooseRemote, at.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyResolved(err))

	stored, err := s.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, model.LocalWins, stored.Resolution)
	require.NotNil(t, stored.OverriddenAt)
	assert.True(t, at.Equal(*stored.OverriddenAt))
	assert.Equal(t, "wisdom", stored.LocalCategory)
	assert.Equal(t, "life", stored.RemoteCategory)
}

func TestOverride_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Override(context.Background(), 0, model.ChooseLocal, testTime)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	assert.False(t, engine.IsAlreadyResolved(err))
}
