package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func conflict(text, local, remote string) model.Conflict {
	return model.Conflict{
		CycleID:        "cycle-1",
		Key:            model.Key{Text: text, Author: "A"},
		LocalCategory:  local,
		RemoteCategory: remote,
		Resolution:     model.RemoteWins,
		DetectedAt:     t0,
	}
}

func TestMemory_AppendAssignsSeq(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	first, err := l.Append(ctx, []model.Conflict{conflict("q1", "wisdom", "life")})
	require.NoError(t, err)
	second, err := l.Append(ctx, []model.Conflict{conflict("q2", "a", "b"), conflict("q1", "life", "art")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first[0].Seq)
	assert.Equal(t, int64(2), second[0].Seq)
	assert.Equal(t, int64(3), second[1].Seq)

	all, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q1", all[0].Key.Text)
	assert.Equal(t, "q2", all[1].Key.Text)
	assert.Equal(t, "art", all[2].RemoteCategory, "later cycles append new entries for the same key")
}

func TestMemory_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	_, err := l.Append(ctx, []model.Conflict{conflict("q1", "a", "b")})
	require.NoError(t, err)

	all, err := l.List(ctx)
	require.NoError(t, err)
	all[0].LocalCategory = "mutated"

	got, err := l.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", got.LocalCategory)
}

func TestMemory_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	_, err := l.Get(ctx, 0)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))

	_, err = l.Get(ctx, -1)
	assert.True(t, engine.IsNotFound(err))
}

func TestMemory_Override_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	_, err := l.Append(ctx, []model.Conflict{conflict("q1", "wisdom", "life")})
	require.NoError(t, err)

	at := t0.Add(time.Hour)
	got, err := l.Override(ctx, 0, model.ChooseLocal, at)
	require.NoError(t, err)
	assert.Equal(t, model.LocalWins, got.Resolution)
	assert.True(t, got.Overridden)
	require.NotNil(t, got.OverriddenAt)
	assert.Equal(t, at, *got.OverriddenAt)
	assert.Equal(t, "wisdom", got.LocalCategory, "detection fields are immutable")
	assert.Equal(t, "life", got.RemoteCategory)

	_, err = l.Override(ctx, 0, model.ChooseRemote, at)
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyResolved(err))
	assert.True(t, engine.IsNotFound(err))

	stored, err := l.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, model.LocalWins, stored.Resolution, "second override must not change the entry")
}

func TestMemory_Override_OutOfRange(t *testing.T) {
	l := NewMemory()

	_, err := l.Override(context.Background(), 3, model.ChooseRemote, t0)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	assert.False(t, engine.IsAlreadyResolved(err))
}
