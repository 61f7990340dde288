// Package bridgetest holds a contract suite that any bridge.Bridge
// implementation can be run against.
package bridgetest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/domain"
)

// Factory returns a freshly initialized, empty bridge.
type Factory func(t *testing.T) bridge.Bridge

func Run(t *testing.T, newBridge Factory) {
	t.Run("StartSessionReturnsID", func(t *testing.T) { testStartSession(t, newBridge(t)) })
	t.Run("ActiveSessionLifecycle", func(t *testing.T) { testActiveLifecycle(t, newBridge(t)) })
	t.Run("DeleteOnlyTarget", func(t *testing.T) { testDeleteOnlyTarget(t, newBridge(t)) })
	t.Run("ConcurrentAddRep", func(t *testing.T) { testConcurrentAddRep(t, newBridge(t)) })
	t.Run("SettingsDefaultAndUpsert", func(t *testing.T) { testSettings(t, newBridge(t)) })
	t.Run("ProfileRoundTrip", func(t *testing.T) { testProfile(t, newBridge(t)) })
	t.Run("WeeklyCountAndLastEnd", func(t *testing.T) { testWeekly(t, newBridge(t)) })
}

func decodeSessions(t *testing.T, raw string) []domain.Session {
	t.Helper()
	var sessions []domain.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &sessions))
	return sessions
}

func testStartSession(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	id := b.StartSession(ctx, 42, "warmup")
	require.NotEqual(t, bridge.FailedID, id)

	var active domain.Session
	require.NoError(t, json.Unmarshal([]byte(b.GetActiveSession(ctx)), &active))
	assert.Equal(t, id, active.ID)
	assert.Equal(t, 42, active.PressureSetting)
	assert.Equal(t, "warmup", active.Notes)
	assert.Nil(t, active.EndTime)
}

func testActiveLifecycle(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	assert.Empty(t, b.GetActiveSession(ctx))
	assert.JSONEq(t, "[]", b.GetAllSessions(ctx))

	id := b.StartSession(ctx, 30, "")
	b.AddRep(ctx, id)
	b.AddRep(ctx, id)
	assert.Equal(t, int64(2), b.GetTotalReps(ctx, id))

	b.EndSession(ctx, id, "done")
	assert.Empty(t, b.GetActiveSession(ctx))

	sessions := decodeSessions(t, b.GetAllSessions(ctx))
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].RepCount)
	assert.Equal(t, "done", sessions[0].Notes)
	assert.NotNil(t, sessions[0].EndTime)
}

func testDeleteOnlyTarget(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	var ids []int64
	for range 3 {
		id := b.StartSession(ctx, 30, "")
		b.EndSession(ctx, id, "")
		ids = append(ids, id)
	}

	b.DeleteSession(ctx, ids[1])
	b.DeleteSession(ctx, 9999)

	sessions := decodeSessions(t, b.GetAllSessions(ctx))
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.NotEqual(t, ids[1], s.ID)
	}
}

func testConcurrentAddRep(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()
	id := b.StartSession(ctx, 30, "")

	const writers = 16
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.AddRep(ctx, id)
			_ = b.GetTotalReps(ctx, id)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(writers), b.GetTotalReps(ctx, id))
}

func testSettings(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	assert.Equal(t, "fallback", b.GetSetting(ctx, "missing", "fallback"))

	b.SetSetting(ctx, domain.KeyWeeklyGoal, "3")
	b.SetSetting(ctx, domain.KeyWeeklyGoal, "4")
	assert.Equal(t, "4", b.GetSetting(ctx, domain.KeyWeeklyGoal, "5"))
}

func testProfile(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	var p domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(b.GetProfile(ctx)), &p))
	assert.Equal(t, domain.ProfileID, p.ID)

	p.LastName = "Lovelace"
	data, err := json.Marshal(p)
	require.NoError(t, err)
	b.UpdateProfile(ctx, string(data))
	b.UpdateProfile(ctx, "{not json")

	var again domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(b.GetProfile(ctx)), &again))
	assert.Equal(t, "Lovelace", again.LastName)
}

func testWeekly(t *testing.T, b bridge.Bridge) {
	ctx := context.Background()

	assert.Zero(t, b.GetSessionCountForWeek(ctx))
	assert.Empty(t, b.GetLastSessionEndTime(ctx))

	id := b.StartSession(ctx, 30, "")
	assert.Zero(t, b.GetSessionCountForWeek(ctx), "active sessions are not counted")

	b.EndSession(ctx, id, "")
	assert.Equal(t, 1, b.GetSessionCountForWeek(ctx))
	assert.NotEmpty(t, b.GetLastSessionEndTime(ctx))
}
