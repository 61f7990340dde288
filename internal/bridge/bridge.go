// Package bridge is the storage boundary the state holder talks to. Every
// call is infallible from the caller's side: failures are logged and turned
// into sentinel values (-1, "", "[]", "{}", 0).
package bridge

import "context"

// FailedID is returned by StartSession when no session could be created.
const FailedID int64 = -1

type Bridge interface {
	InitDatabase(ctx context.Context, path string)

	StartSession(ctx context.Context, pressure int, notes string) int64
	GetAllSessions(ctx context.Context) string
	GetActiveSession(ctx context.Context) string
	EndSession(ctx context.Context, id int64, notes string)
	GetSessionCountForWeek(ctx context.Context) int
	GetLastSessionEndTime(ctx context.Context) string
	DeleteSession(ctx context.Context, id int64)

	AddRep(ctx context.Context, id int64)
	GetTotalReps(ctx context.Context, id int64) int64

	GetProfile(ctx context.Context) string
	UpdateProfile(ctx context.Context, profileJSON string)

	GetSetting(ctx context.Context, key, def string) string
	SetSetting(ctx context.Context, key, value string)
}
