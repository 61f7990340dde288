package domain

import (
	"strconv"
	"strings"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ParseTheme converts stored text to a Theme, defaulting to system.
func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeSystem
	}
}

// Setting keys as stored in the key-value table.
const (
	KeyDefaultReps      = "default_reps"
	KeyWeeklyGoal       = "goal_sessions_per_week"
	KeyDefaultPressure  = "default_pressure"
	KeyTheme            = "theme"
	KeyRemindersEnabled = "reminders_enabled"
	KeyRepSoundURI      = "rep_sound_uri"
	KeyHapticFeedback   = "haptic_feedback_enabled"
)

const (
	DefaultReps       = 25
	DefaultWeeklyGoal = 5
	DefaultPressure   = 30
)

type AppSettings struct {
	DefaultReps           int    `json:"default_reps"`
	WeeklySessionGoal     int    `json:"weekly_session_goal"`
	DefaultPressure       int    `json:"default_pressure"`
	Theme                 Theme  `json:"theme"`
	RemindersEnabled      bool   `json:"reminders_enabled"`
	RepSoundURI           string `json:"rep_sound_uri,omitempty"`
	HapticFeedbackEnabled bool   `json:"haptic_feedback_enabled"`
}

func DefaultSettings() AppSettings {
	return AppSettings{
		DefaultReps:           DefaultReps,
		WeeklySessionGoal:     DefaultWeeklyGoal,
		DefaultPressure:       DefaultPressure,
		Theme:                 ThemeSystem,
		RemindersEnabled:      false,
		HapticFeedbackEnabled: true,
	}
}

// SettingLookup reads one setting, returning def when the key is unset.
type SettingLookup func(key, def string) string

// SettingsFromLookup rebuilds the aggregate from individual key-value reads.
// Numbers that fail to parse fall back to their defaults; booleans are true
// only for the literal "true" (case-insensitive).
func SettingsFromLookup(get SettingLookup) AppSettings {
	d := DefaultSettings()
	return AppSettings{
		DefaultReps:           atoiOr(get(KeyDefaultReps, strconv.Itoa(d.DefaultReps)), d.DefaultReps),
		WeeklySessionGoal:     atoiOr(get(KeyWeeklyGoal, strconv.Itoa(d.WeeklySessionGoal)), d.WeeklySessionGoal),
		DefaultPressure:       atoiOr(get(KeyDefaultPressure, strconv.Itoa(d.DefaultPressure)), d.DefaultPressure),
		Theme:                 ParseTheme(get(KeyTheme, string(d.Theme))),
		RemindersEnabled:      parseBool(get(KeyRemindersEnabled, strconv.FormatBool(d.RemindersEnabled))),
		RepSoundURI:           get(KeyRepSoundURI, ""),
		HapticFeedbackEnabled: parseBool(get(KeyHapticFeedback, strconv.FormatBool(d.HapticFeedbackEnabled))),
	}
}

// Setting is a single key-value write.
type Setting struct {
	Key   string
	Value string
}

// Pairs returns every field as the key-value write that persists it.
func (s AppSettings) Pairs() []Setting {
	return []Setting{
		{KeyDefaultReps, strconv.Itoa(s.DefaultReps)},
		{KeyWeeklyGoal, strconv.Itoa(s.WeeklySessionGoal)},
		{KeyDefaultPressure, strconv.Itoa(s.DefaultPressure)},
		{KeyTheme, string(s.Theme)},
		{KeyRemindersEnabled, strconv.FormatBool(s.RemindersEnabled)},
		{KeyRepSoundURI, s.RepSoundURI},
		{KeyHapticFeedback, strconv.FormatBool(s.HapticFeedbackEnabled)},
	}
}

// SettingsDraft is the settings form as the user typed it. Numeric fields
// are kept as text until Resolve.
type SettingsDraft struct {
	DefaultReps           string `json:"default_reps"`
	WeeklySessionGoal     string `json:"weekly_session_goal"`
	DefaultPressure       string `json:"default_pressure"`
	Theme                 string `json:"theme"`
	RemindersEnabled      bool   `json:"reminders_enabled"`
	RepSoundURI           string `json:"rep_sound_uri"`
	HapticFeedbackEnabled bool   `json:"haptic_feedback_enabled"`
}

// Resolve applies the draft on top of prev. A numeric field that does not
// parse keeps prev's value.
func (d SettingsDraft) Resolve(prev AppSettings) AppSettings {
	return AppSettings{
		DefaultReps:           atoiOr(d.DefaultReps, prev.DefaultReps),
		WeeklySessionGoal:     atoiOr(d.WeeklySessionGoal, prev.WeeklySessionGoal),
		DefaultPressure:       atoiOr(d.DefaultPressure, prev.DefaultPressure),
		Theme:                 ParseTheme(d.Theme),
		RemindersEnabled:      d.RemindersEnabled,
		RepSoundURI:           d.RepSoundURI,
		HapticFeedbackEnabled: d.HapticFeedbackEnabled,
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// WeeklyGoalFrom parses a stored weekly goal, falling back to the default.
func WeeklyGoalFrom(s string) int {
	return atoiOr(s, DefaultWeeklyGoal)
}
