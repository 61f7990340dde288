package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hperssn/blastemst/internal/domain"
)

// Timestamps are stored as fixed-width UTC text so that string order matches
// time order and MAX(end_time) is the latest end.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// sessionRow mirrors the columns selected by sessionColumns.
type sessionRow struct {
	ID        int64
	StartTime string
	EndTime   sql.NullString
	Pressure  int
	Notes     string
	RepCount  int64
}

func scanSession(s rowScanner) (*domain.Session, error) {
	var row sessionRow
	if err := s.Scan(&row.ID, &row.StartTime, &row.EndTime, &row.Pressure, &row.Notes, &row.RepCount); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r sessionRow) toDomain() (*domain.Session, error) {
	start, err := parseTime(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("session %d start_time: %w", r.ID, err)
	}

	session := &domain.Session{
		ID:              r.ID,
		StartTime:       start,
		PressureSetting: r.Pressure,
		Notes:           r.Notes,
		RepCount:        r.RepCount,
	}

	if r.EndTime.Valid {
		end, err := parseTime(r.EndTime.String)
		if err != nil {
			return nil, fmt.Errorf("session %d end_time: %w", r.ID, err)
		}
		session.EndTime = &end
	}

	return session, nil
}
