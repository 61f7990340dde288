package bridge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/bridge/bridgetest"
	"github.com/hperssn/blastemst/internal/storage"
)

func newSQLiteBridge(t *testing.T) bridge.Bridge {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	open, err := bridge.StorageOpener(bridge.DriverSQLite, clock)
	require.NoError(t, err)

	b := bridge.NewNative(open, clock, time.UTC)
	b.InitDatabase(context.Background(), ":memory:")
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNative_SQLiteContract(t *testing.T) {
	bridgetest.Run(t, newSQLiteBridge)
}

func TestNative_ReadyAfterInit(t *testing.T) {
	b := newSQLiteBridge(t).(*bridge.Native)
	assert.True(t, b.Ready())

	require.NoError(t, b.Close())
	assert.False(t, b.Ready())
}

func TestNative_SentinelsBeforeInit(t *testing.T) {
	b := bridge.NewNative(nil, clockwork.NewRealClock(), time.UTC)
	ctx := context.Background()

	assert.Equal(t, bridge.FailedID, b.StartSession(ctx, 30, ""))
	assert.Equal(t, "[]", b.GetAllSessions(ctx))
	assert.Empty(t, b.GetActiveSession(ctx))
	assert.Empty(t, b.GetLastSessionEndTime(ctx))
	assert.Zero(t, b.GetSessionCountForWeek(ctx))
	assert.Zero(t, b.GetTotalReps(ctx, 1))
	assert.Equal(t, "{}", b.GetProfile(ctx))
	assert.Equal(t, "def", b.GetSetting(ctx, "k", "def"))

	// writes are dropped without panicking
	b.AddRep(ctx, 1)
	b.EndSession(ctx, 1, "")
	b.DeleteSession(ctx, 1)
	b.SetSetting(ctx, "k", "v")
	b.UpdateProfile(ctx, `{"id":1}`)
}

func TestNative_InitFailureLeavesUninitialized(t *testing.T) {
	open := func(string) (storage.Repository, error) { return nil, errors.New("disk on fire") }
	b := bridge.NewNative(open, clockwork.NewRealClock(), time.UTC)

	b.InitDatabase(context.Background(), "/nope")

	assert.False(t, b.Ready())
	assert.Equal(t, bridge.FailedID, b.StartSession(context.Background(), 30, ""))
}

func TestNative_WeekUsesConfiguredZone(t *testing.T) {
	// Sunday 21:00 UTC; by 23:30 UTC it is already Monday in UTC+2.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC))
	open, err := bridge.StorageOpener(bridge.DriverSQLite, clock)
	require.NoError(t, err)
	ctx := context.Background()

	utc := bridge.NewNative(open, clock, time.UTC)
	utc.InitDatabase(ctx, ":memory:")
	defer utc.Close()

	plus2 := bridge.NewNative(open, clock, time.FixedZone("UTC+2", 2*60*60))
	plus2.InitDatabase(ctx, ":memory:")
	defer plus2.Close()

	for _, b := range []*bridge.Native{utc, plus2} {
		id := b.StartSession(ctx, 30, "")
		b.EndSession(ctx, id, "")
	}

	clock.Advance(150 * time.Minute)

	assert.Equal(t, 1, utc.GetSessionCountForWeek(ctx))
	assert.Equal(t, 0, plus2.GetSessionCountForWeek(ctx))
}

func TestStorageOpener_UnknownDriver(t *testing.T) {
	_, err := bridge.StorageOpener("mongo", clockwork.NewRealClock())
	assert.Error(t, err)
}
