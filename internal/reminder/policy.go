package reminder

import (
	"time"
)

// Policy holds the product constants behind inactivity reminders.
type Policy struct {
	// Window is how long after the last finished session the user counts as inactive.
	Window time.Duration
	// DefaultDelay is used when there is no finished session to measure from.
	DefaultDelay time.Duration
	// NudgeDelay is used when the inactivity deadline has already passed.
	NudgeDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Window:       24 * time.Hour,
		DefaultDelay: 1440 * time.Minute,
		NudgeDelay:   10 * time.Minute,
	}
}

// NextDelayMinutes computes how many minutes from now the next inactivity
// check should run, given the last session end time as an RFC 3339 string
// (empty when no session was ever finished). Less than a minute before the
// deadline this is 0, which schedulers reject, so the pending check stays.
func (p Policy) NextDelayMinutes(lastEnd string, now time.Time) int64 {
	if lastEnd == "" {
		return minutes(p.DefaultDelay)
	}

	last, err := time.Parse(time.RFC3339Nano, lastEnd)
	if err != nil {
		return minutes(p.DefaultDelay)
	}

	remaining := last.Add(p.Window).Sub(now)
	if remaining > 0 {
		return minutes(remaining)
	}
	return minutes(p.NudgeDelay)
}

// AfterFinishMinutes is the delay scheduled right after a session is finished.
func (p Policy) AfterFinishMinutes() int64 {
	return minutes(p.Window)
}

func minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
