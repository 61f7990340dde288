package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
)

const pqUniqueViolation = pq.ErrorCode("23505")

type PostgresRepository struct {
	*sqlStore
}

func NewPostgresRepository(connStr string, clock clockwork.Clock) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	repo := &PostgresRepository{sqlStore: &sqlStore{
		db:    db,
		d:     dialect{name: "postgres", numbered: true, returning: true, uniqueViolation: postgresUniqueViolation},
		clock: clock,
	}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_profile (
		id BIGINT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		dob TEXT NOT NULL DEFAULT '',
		speech_therapist TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		start_time TEXT NOT NULL,
		end_time TEXT,
		pressure_setting INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS reps (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		rep_timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reps_session ON reps(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_end_time ON sessions(end_time);

	-- at most one session without an end time
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active ON sessions((end_time IS NULL)) WHERE end_time IS NULL;
	`

	_, err := r.db.Exec(schema)
	return err
}

func postgresUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == pqUniqueViolation
}
