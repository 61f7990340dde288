package domain

import "time"

// Session is one timed EMST exercise. EndTime is nil while the session is active.
type Session struct {
	ID              int64      `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	PressureSetting int        `json:"pressure_setting"`
	Notes           string     `json:"notes"`
	RepCount        int64      `json:"rep_count"`
}

func (s Session) Active() bool {
	return s.EndTime == nil
}

// UserProfile is the single profile row of an installation.
type UserProfile struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DOB             string `json:"dob"`
	SpeechTherapist string `json:"speech_therapist"`
}

const ProfileID int64 = 1

const dayLayout = "2006-01-02"

// GroupByDay buckets finished sessions by the calendar day their end time falls on in loc.
func GroupByDay(sessions []Session, loc *time.Location) map[string][]Session {
	if loc == nil {
		loc = time.Local
	}

	days := make(map[string][]Session)
	for _, s := range sessions {
		if s.EndTime == nil {
			continue
		}
		key := s.EndTime.In(loc).Format(dayLayout)
		days[key] = append(days[key], s)
	}

	return days
}

// LastFinishedReps returns the rep count of the first finished session in a
// newest-first list, or zero when nothing has been finished.
func LastFinishedReps(sessions []Session) int64 {
	for _, s := range sessions {
		if s.EndTime != nil {
			return s.RepCount
		}
	}
	return 0
}

// WeekBounds returns the Monday that starts the week containing now (local to
// now's location) and the Monday after it.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	offset := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 7)
}
