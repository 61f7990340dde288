package storage

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	*sqlStore
}

// NewSQLiteRepository opens (or creates) the database at dbPath. ":memory:"
// gives a private in-memory store.
func NewSQLiteRepository(dbPath string, clock clockwork.Clock) (*SQLiteRepository, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite3", dbPath+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// One connection serializes writers, and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &SQLiteRepository{sqlStore: &sqlStore{
		db:    db,
		d:     dialect{name: "sqlite", uniqueViolation: sqliteUniqueViolation},
		clock: clock,
	}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_profile (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		dob TEXT NOT NULL DEFAULT '',
		speech_therapist TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_time TEXT NOT NULL,
		end_time TEXT,
		pressure_setting INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS reps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
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

func sqliteUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
