package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/ledger"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/store"
	"github.com/roach88/quotesync/internal/testutil"
)

// syncedFixture runs one cycle that turns "Stay hungry" from motivation into
// life, leaving one ledger entry at index 0.
func syncedFixture(t *testing.T) (*store.Memory, *ledger.Memory, *engine.Overrider) {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory(
		testutil.Q("Stay hungry", "Jobs", "motivation"),
		testutil.Q("other", "O", "misc"),
	)
	led := ledger.NewMemory()
	sched, err := engine.NewScheduler(engine.Deps{
		Store:    mem,
		Fetcher:  testutil.NewScriptedFetcher(testutil.Remote(testutil.Q("Stay hungry", "Jobs", "life"))),
		Ledger:   led,
		Notifier: engine.MultiNotifier{},
	})
	require.NoError(t, err)

	rep, ran := sched.TriggerNow(ctx)
	require.True(t, ran)
	require.Len(t, rep.Conflicts, 1)

	wall := testutil.NewStepClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Minute)
	return mem, led, engine.NewOverrider(mem, led, wall)
}

func TestOverride_Local(t *testing.T) {
	ctx := context.Background()
	mem, led, o := syncedFixture(t)

	got, err := o.Apply(ctx, 0, model.ChooseLocal)
	require.NoError(t, err)

	assert.Equal(t, model.LocalWins, got.Resolution)
	assert.True(t, got.Overridden)
	require.NotNil(t, got.OverriddenAt)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *got.OverriddenAt)

	records, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{
		testutil.Q("Stay hungry", "Jobs", "motivation"),
		testutil.Q("other", "O", "misc"),
	}, records)

	stored, err := led.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestOverride_Remote(t *testing.T) {
	ctx := context.Background()
	mem, led, o := syncedFixture(t)
	before, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	got, err := o.Apply(ctx, 0, model.ChooseRemote)
	require.NoError(t, err)
	assert.Equal(t, model.RemoteWins, got.Resolution)
	assert.True(t, got.Overridden)

	after, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "remote choice leaves the store alone")

	stored, err := led.Get(ctx, 0)
	require.NoError(t, err)
	assert.True(t, stored.Overridden)
}

func TestOverride_SecondCallRejected(t *testing.T) {
	ctx := context.Background()
	mem, _, o := syncedFixture(t)

	_, err := o.Apply(ctx, 0, model.ChooseLocal)
	require.NoError(t, err)
	snapshot, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	_, err = o.Apply(ctx, 0, model.ChooseRemote)
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyResolved(err))
	assert.True(t, engine.IsNotFound(err))

	after, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot, after)
}

func TestOverride_BadIndex(t *testing.T) {
	_, _, o := syncedFixture(t)

	_, err := o.Apply(context.Background(), 5, model.ChooseLocal)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	assert.False(t, engine.IsAlreadyResolved(err))
}

func TestOverride_EntityMissing(t *testing.T) {
	ctx := context.Background()
	mem, led, o := syncedFixture(t)
	require.NoError(t, mem.WriteAll(ctx, []model.Record{testutil.Q("other", "O", "misc")}))

	for _, choice := range []model.Choice{model.ChooseLocal, model.ChooseRemote} {
		_, err := o.Apply(ctx, 0, choice)
		require.Error(t, err)
		assert.True(t, engine.IsEntityMissing(err), "choice %s", choice)
	}

	stored, err := led.Get(ctx, 0)
	require.NoError(t, err)
	assert.False(t, stored.Overridden, "ledger unchanged on ENTITY_MISSING")
}

func TestOverride_InvalidChoice(t *testing.T) {
	_, _, o := syncedFixture(t)

	_, err := o.Apply(context.Background(), 0, model.Choice("both"))
	assert.Error(t, err)
}

// racingLedger commits a competing remote override right after Get returns,
// as a second process sharing the ledger would.
type racingLedger struct {
	*ledger.Memory
}

func (l racingLedger) Get(ctx context.Context, index int) (model.Conflict, error) {
	c, err := l.Memory.Get(ctx, index)
	if err == nil {
		_, _ = l.Memory.Override(ctx, index, model.ChooseRemote, testutil.Epoch)
	}
	return c, err
}

// rejectingLedger fails every Override with err.
type rejectingLedger struct {
	*ledger.Memory
	err error
}

func (l rejectingLedger) Override(context.Context, int, model.Choice, time.Time) (model.Conflict, error) {
	return model.Conflict{}, l.err
}

func TestOverride_LostRaceLeavesStoreAlone(t *testing.T) {
	ctx := context.Background()
	mem, led, _ := syncedFixture(t)
	before, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	o := engine.NewOverrider(mem, racingLedger{led}, nil)
	_, err = o.Apply(ctx, 0, model.ChooseLocal)
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyResolved(err))

	after, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "store keeps the remote category the ledger reports")

	stored, err := led.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RemoteWins, stored.Resolution)
	assert.Equal(t, "life", stored.Winner())
}

func TestOverride_LedgerFailureRollsBackRestore(t *testing.T) {
	ctx := context.Background()
	mem, led, _ := syncedFixture(t)

	o := engine.NewOverrider(mem, rejectingLedger{Memory: led, err: errors.New("ledger locked")}, nil)
	_, err := o.Apply(ctx, 0, model.ChooseLocal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger locked")

	records, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "life", records[0].Category, "local category must not be restored")

	stored, err := led.Get(ctx, 0)
	require.NoError(t, err)
	assert.False(t, stored.Overridden)
}

func TestOverride_SQLiteResolvesInOneTransaction(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.WriteAll(ctx, []model.Record{testutil.Q("Q", "A", "Y")}))
	_, err = st.Append(ctx, []model.Conflict{{
		CycleID:        "cycle-1",
		Key:            model.Key{Text: "Q", Author: "A"},
		LocalCategory:  "X",
		RemoteCategory: "Y",
		Resolution:     model.RemoteWins,
		DetectedAt:     testutil.Epoch,
	}})
	require.NoError(t, err)

	// Another process resolves the entry first.
	_, err = st.Override(ctx, 0, model.ChooseRemote, testutil.Epoch)
	require.NoError(t, err)

	o := engine.NewOverrider(st, st, nil)
	_, err = o.Apply(ctx, 0, model.ChooseLocal)
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyResolved(err))

	records, err := st.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{testutil.Q("Q", "A", "Y")}, records)
}
