package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionJSONShape(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	active := Session{ID: 7, StartTime: start, PressureSetting: 30}
	data, err := json.Marshal(active)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := string(data)
	for _, want := range []string{`"id":7`, `"start_time":"2026-03-02T09:00:00Z"`, `"end_time":null`, `"pressure_setting":30`, `"notes":""`, `"rep_count":0`} {
		if !strings.Contains(got, want) {
			t.Errorf("json %s missing %s", got, want)
		}
	}

	var decoded Session
	if err := json.Unmarshal([]byte(`{"id":3,"start_time":"2026-03-02T09:00:00+00:00","end_time":"2026-03-02T09:10:00+00:00","pressure_setting":25,"notes":"ok","rep_count":12}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Active() {
		t.Fatalf("session with end_time should not be active")
	}
	if decoded.RepCount != 12 || decoded.Notes != "ok" {
		t.Fatalf("unexpected decode %+v", decoded)
	}
}

func TestGroupByDay(t *testing.T) {
	end1 := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	end2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end3 := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	sessions := []Session{
		{ID: 1, EndTime: &end1},
		{ID: 2, EndTime: &end2},
		{ID: 3, EndTime: &end3},
		{ID: 4},
	}

	days := GroupByDay(sessions, time.UTC)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if n := len(days["2026-03-02"]); n != 2 {
		t.Fatalf("expected 2 sessions on 2026-03-02, got %d", n)
	}

	plus2 := time.FixedZone("UTC+2", 2*60*60)
	shifted := GroupByDay(sessions, plus2)
	if n := len(shifted["2026-03-03"]); n != 1 {
		t.Fatalf("late session should move to next day in UTC+2, got %d", n)
	}
}

func TestLastFinishedReps(t *testing.T) {
	end := time.Now()
	tests := []struct {
		name     string
		sessions []Session
		expected int64
	}{
		{name: "empty", sessions: nil, expected: 0},
		{name: "only active", sessions: []Session{{ID: 1, RepCount: 4}}, expected: 0},
		{name: "skips active head", sessions: []Session{{ID: 2, RepCount: 4}, {ID: 1, RepCount: 9, EndTime: &end}}, expected: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastFinishedReps(tt.sessions); got != tt.expected {
				t.Fatalf("LastFinishedReps = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		from time.Time
	}{
		{"monday", time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"thursday", time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"across year", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := WeekBounds(tt.now)
			if !from.Equal(tt.from) {
				t.Fatalf("from = %s, want %s", from, tt.from)
			}
			if !to.Equal(tt.from.AddDate(0, 0, 7)) {
				t.Fatalf("to = %s, want a week after from", to)
			}
		})
	}
}
