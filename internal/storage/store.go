package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/domain"
)

// dialect captures the few places where SQLite and Postgres disagree.
type dialect struct {
	name string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// INSERT ... RETURNING id instead of LastInsertId
	returning bool
	// uniqueViolation reports whether err is the driver's unique constraint error
	uniqueViolation func(error) bool
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// sqlStore is the Repository core shared by the SQLite and Postgres backends.
type sqlStore struct {
	db    *sql.DB
	d     dialect
	clock clockwork.Clock
}

const sessionColumns = `s.id, s.start_time, s.end_time, s.pressure_setting, s.notes, COUNT(r.id) AS rep_count`

const sessionFrom = `
	FROM sessions s
	LEFT JOIN reps r ON s.id = r.session_id`

const sessionGroup = `
	GROUP BY s.id, s.start_time, s.end_time, s.pressure_setting, s.notes`

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.d.rebind(query), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.d.rebind(query), args...)
}

func (s *sqlStore) StartSession(ctx context.Context, pressure int, notes string) (int64, error) {
	now := formatTime(s.clock.Now())
	query := `INSERT INTO sessions (start_time, pressure_setting, notes) VALUES (?, ?, ?)`

	if s.d.returning {
		var id int64
		if err := s.queryRow(ctx, query+` RETURNING id`, now, pressure, notes).Scan(&id); err != nil {
			return 0, s.insertSessionErr(err)
		}
		return id, nil
	}

	res, err := s.exec(ctx, query, now, pressure, notes)
	if err != nil {
		return 0, s.insertSessionErr(err)
	}
	return res.LastInsertId()
}

func (s *sqlStore) insertSessionErr(err error) error {
	if s.d.uniqueViolation != nil && s.d.uniqueViolation(err) {
		return ErrSessionActive
	}
	return fmt.Errorf("insert session: %w", err)
}

func (s *sqlStore) EndSession(ctx context.Context, id int64, notes string) error {
	res, err := s.exec(ctx, `UPDATE sessions SET end_time = ?, notes = ? WHERE id = ?`, formatTime(s.clock.Now()), notes, id)
	if err != nil {
		return fmt.Errorf("end session %d: %w", id, err)
	}
	return requireRow(res)
}

func (s *sqlStore) DeleteSession(ctx context.Context, id int64) error {
	// reps go with the session via ON DELETE CASCADE
	res, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sqlStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + sessionGroup + `
	ORDER BY s.start_time DESC, s.id DESC`

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

func (s *sqlStore) ActiveSession(ctx context.Context) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `
	WHERE s.end_time IS NULL` + sessionGroup + `
	ORDER BY s.start_time DESC, s.id DESC
	LIMIT 1`

	session, err := scanSession(s.queryRow(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return session, err
}

func (s *sqlStore) CountFinishedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE end_time IS NOT NULL AND end_time >= ? AND end_time < ?`,
		formatTime(from), formatTime(to),
	).Scan(&n)
	return n, err
}

func (s *sqlStore) LastEndTime(ctx context.Context) (time.Time, bool, error) {
	var last sql.NullString
	if err := s.queryRow(ctx, `SELECT MAX(end_time) FROM sessions WHERE end_time IS NOT NULL`).Scan(&last); err != nil {
		return time.Time{}, false, err
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}

	t, err := parseTime(last.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last end_time: %w", err)
	}
	return t, true, nil
}

func (s *sqlStore) AddRep(ctx context.Context, sessionID int64) error {
	_, err := s.exec(ctx, `INSERT INTO reps (session_id, rep_timestamp) VALUES (?, ?)`, sessionID, formatTime(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("add rep to session %d: %w", sessionID, err)
	}
	return nil
}

func (s *sqlStore) CountReps(ctx context.Context, sessionID int64) (int64, error) {
	var n int64
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM reps WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func (s *sqlStore) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	_, err := s.exec(ctx, `INSERT INTO user_profile (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, domain.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	var p domain.UserProfile
	err = s.queryRow(ctx,
		`SELECT id, first_name, last_name, dob, speech_therapist FROM user_profile WHERE id = ?`,
		domain.ProfileID,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.DOB, &p.SpeechTherapist)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *sqlStore) UpdateProfile(ctx context.Context, p domain.UserProfile) error {
	_, err := s.exec(ctx,
		`UPDATE user_profile SET first_name = ?, last_name = ?, dob = ?, speech_therapist = ? WHERE id = ?`,
		p.FirstName, p.LastName, p.DOB, p.SpeechTherapist, p.ID,
	)
	return err
}

func (s *sqlStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.queryRow(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *sqlStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
