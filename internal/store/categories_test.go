package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_KeepsFirstRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Register(ctx, "wisdom", "life"))
	require.NoError(t, s.Register(ctx, "life", "  ", "humor", "wisdom"))

	got, err := s.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wisdom", "life", "humor"}, got)
}

func TestRegister_CaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Register(ctx, "Life", "life"))

	got, err := s.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Life", "life"}, got)
}

func TestLastAttempt_ZeroUntilRecorded(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	got, err := s.LastAttempt(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	require.NoError(t, s.RecordAttempt(ctx, testTime))
	require.NoError(t, s.RecordAttempt(ctx, testTime.Add(time.Minute)))

	got, err = s.LastAttempt(ctx)
	require.NoError(t, err)
	assert.True(t, testTime.Add(time.Minute).Equal(got), "latest attempt wins")
}
