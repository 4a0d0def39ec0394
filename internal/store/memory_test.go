package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quotesync/internal/model"
)

func TestMemory_CopiesInAndOut(t *testing.T) {
	ctx := context.Background()
	seed := []model.Record{rec("a", "A", "x")}
	m := NewMemory(seed...)
	seed[0].Category = "changed"

	got, err := m.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", got[0].Category)

	got[0].Category = "changed again"
	again, err := m.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", again[0].Category)
}

func TestMemory_UpdateErrorLeavesStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(rec("a", "A", "x"))

	boom := errors.New("boom")
	err := m.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		local[0].Category = "mutated"
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{rec("a", "A", "x")}, got)
}

func TestMemory_RecordAttempt(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.RecordAttempt(ctx, testTime))
	got, err := m.LastAttempt(ctx)
	require.NoError(t, err)
	assert.Equal(t, testTime, got)
}
