package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/hperssn/blastemst/internal/bridge"
)

// DueSettingPrefix prefixes the settings key a tag's due time is kept under.
const DueSettingPrefix = "reminder_due_at:"

// SettingsDueStore keeps due times in the app settings table.
type SettingsDueStore struct {
	b bridge.Bridge
}

func NewSettingsDueStore(b bridge.Bridge) *SettingsDueStore {
	return &SettingsDueStore{b: b}
}

func (s *SettingsDueStore) SaveDue(ctx context.Context, tag string, due time.Time) {
	s.b.SetSetting(ctx, DueSettingPrefix+tag, due.UTC().Format(time.RFC3339Nano))
}

func (s *SettingsDueStore) ClearDue(ctx context.Context, tag string) {
	s.b.SetSetting(ctx, DueSettingPrefix+tag, "")
}

func (s *SettingsDueStore) LoadDue(ctx context.Context, tag string) (time.Time, bool) {
	raw := s.b.GetSetting(ctx, DueSettingPrefix+tag, "")
	if raw == "" {
		return time.Time{}, false
	}
	due, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		slog.Warn("Ignoring malformed reminder due time", "tag", tag, "value", raw)
		return time.Time{}, false
	}
	return due, true
}
