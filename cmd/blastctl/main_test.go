package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/blastemst/internal/domain"
)

func useTempDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "blast_emst.db"))
	t.Setenv("CALENDAR_TZ", "UTC")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedFinishedSession(t *testing.T, notes string, reps int) int64 {
	t.Helper()
	ctx := context.Background()
	b, err := openBridge(ctx)
	require.NoError(t, err)
	defer b.Close()

	id := b.StartSession(ctx, 30, "")
	for range reps {
		b.AddRep(ctx, id)
	}
	b.EndSession(ctx, id, notes)
	return id
}

func TestSessionsList(t *testing.T) {
	useTempDB(t)

	out, err := runCmd(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions")

	seedFinishedSession(t, "steady", 4)

	out, err = runCmd(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PRESSURE")
	assert.Contains(t, out, "steady")

	out, err = runCmd(t, "sessions", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"rep_count":4`)
}

func TestSessionsDelete(t *testing.T) {
	useTempDB(t)
	seedFinishedSession(t, "keep", 1)
	drop := seedFinishedSession(t, "drop", 1)

	out, err := runCmd(t, "sessions", "delete", strconv.FormatInt(drop, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session")

	out, err = runCmd(t, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "keep")
	assert.NotContains(t, out, "drop")

	_, err = runCmd(t, "sessions", "delete", strconv.FormatInt(drop, 10))
	assert.ErrorContains(t, err, "not found")

	_, err = runCmd(t, "sessions", "delete", "abc")
	assert.Error(t, err)
}

func TestSettingsGetSet(t *testing.T) {
	useTempDB(t)

	out, err := runCmd(t, "settings", "get", domain.KeyDefaultReps)
	require.NoError(t, err)
	assert.Equal(t, "25", strings.TrimSpace(out))

	_, err = runCmd(t, "settings", "set", domain.KeyDefaultReps, "40")
	require.NoError(t, err)

	out, err = runCmd(t, "settings", "get", domain.KeyDefaultReps)
	require.NoError(t, err)
	assert.Equal(t, "40", strings.TrimSpace(out))

	out, err = runCmd(t, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, out, domain.KeyHapticFeedback)

	_, err = runCmd(t, "settings", "set", "volume", "11")
	assert.ErrorContains(t, err, "unknown setting")
}

func TestProfileShow(t *testing.T) {
	useTempDB(t)

	out, err := runCmd(t, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": 1`)
}

func TestWeek(t *testing.T) {
	useTempDB(t)
	_, err := runCmd(t, "settings", "set", domain.KeyWeeklyGoal, "3")
	require.NoError(t, err)
	seedFinishedSession(t, "", 0)

	out, err := runCmd(t, "week")
	require.NoError(t, err)
	assert.Contains(t, out, "1/3 sessions this week")
	assert.Contains(t, out, "Last session ended")
}

func TestOpenBridgeRejectsBadConfig(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")

	_, err := runCmd(t, "week")
	assert.Error(t, err)
}
