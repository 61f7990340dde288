package domain

import (
	"testing"
	"time"
)

func lookupFrom(values map[string]string) SettingLookup {
	return func(key, def string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return def
	}
}

func TestSettingsFromLookupDefaults(t *testing.T) {
	got := SettingsFromLookup(lookupFrom(nil))

	if got != DefaultSettings() {
		t.Fatalf("empty store settings = %+v, want defaults %+v", got, DefaultSettings())
	}
}

func TestSettingsFromLookupMalformed(t *testing.T) {
	got := SettingsFromLookup(lookupFrom(map[string]string{
		KeyDefaultReps:      "lots",
		KeyWeeklyGoal:       "3",
		KeyDefaultPressure:  "",
		KeyTheme:            "neon",
		KeyRemindersEnabled: "yes",
		KeyHapticFeedback:   "TRUE",
		KeyRepSoundURI:      "file:///sounds/ding.wav",
	}))

	if got.DefaultReps != DefaultReps {
		t.Errorf("DefaultReps = %d, want default %d", got.DefaultReps, DefaultReps)
	}
	if got.WeeklySessionGoal != 3 {
		t.Errorf("WeeklySessionGoal = %d, want 3", got.WeeklySessionGoal)
	}
	if got.DefaultPressure != DefaultPressure {
		t.Errorf("DefaultPressure = %d, want default %d", got.DefaultPressure, DefaultPressure)
	}
	if got.Theme != ThemeSystem {
		t.Errorf("Theme = %q, want system", got.Theme)
	}
	if got.RemindersEnabled {
		t.Errorf("only the literal true enables reminders")
	}
	if !got.HapticFeedbackEnabled {
		t.Errorf("TRUE should enable haptics")
	}
	if got.RepSoundURI != "file:///sounds/ding.wav" {
		t.Errorf("RepSoundURI = %q", got.RepSoundURI)
	}
}

func TestSettingsPairsRoundTrip(t *testing.T) {
	in := AppSettings{
		DefaultReps:           30,
		WeeklySessionGoal:     4,
		DefaultPressure:       45,
		Theme:                 ThemeDark,
		RemindersEnabled:      true,
		RepSoundURI:           "content://media/1",
		HapticFeedbackEnabled: false,
	}

	stored := make(map[string]string)
	for _, p := range in.Pairs() {
		stored[p.Key] = p.Value
	}
	if len(stored) != 7 {
		t.Fatalf("expected 7 distinct keys, got %d", len(stored))
	}

	if out := SettingsFromLookup(lookupFrom(stored)); out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestSettingsDraftResolve(t *testing.T) {
	prev := AppSettings{DefaultReps: 20, WeeklySessionGoal: 6, DefaultPressure: 40, Theme: ThemeLight}

	tests := []struct {
		name  string
		draft SettingsDraft
		reps  int
		goal  int
		press int
	}{
		{"all valid", SettingsDraft{DefaultReps: "10", WeeklySessionGoal: "2", DefaultPressure: "50"}, 10, 2, 50},
		{"non numeric reps", SettingsDraft{DefaultReps: "ten", WeeklySessionGoal: "2", DefaultPressure: "50"}, 20, 2, 50},
		{"blank fields", SettingsDraft{}, 20, 6, 40},
		{"padded", SettingsDraft{DefaultReps: " 12 ", WeeklySessionGoal: "x", DefaultPressure: "3.5"}, 12, 6, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.draft.Resolve(prev)
			if got.DefaultReps != tt.reps || got.WeeklySessionGoal != tt.goal || got.DefaultPressure != tt.press {
				t.Fatalf("Resolve = %+v, want reps=%d goal=%d pressure=%d", got, tt.reps, tt.goal, tt.press)
			}
		})
	}
}

func TestYearMonth(t *testing.T) {
	ym := YearMonthOf(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))

	if got := ym.Next().String(); got != "2027-01" {
		t.Fatalf("Next = %s, want 2027-01", got)
	}
	if got := ym.Previous().String(); got != "2026-11" {
		t.Fatalf("Previous = %s, want 2026-11", got)
	}
	if got := ym.AddMonths(-12).String(); got != "2025-12" {
		t.Fatalf("AddMonths(-12) = %s", got)
	}

	parsed, err := ParseYearMonth("2026-02")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != (YearMonth{Year: 2026, Month: time.February}) {
		t.Fatalf("parsed = %+v", parsed)
	}
	if _, err := ParseYearMonth("2026-13"); err == nil {
		t.Fatalf("expected error for month 13")
	}
}
