package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hperssn/blastemst/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionActive   = errors.New("another session is already active")
)

// Repository is the durable store for sessions, reps, the profile and
// key-value settings. Implementations serialize writes.
type Repository interface {
	StartSession(ctx context.Context, pressure int, notes string) (int64, error)
	EndSession(ctx context.Context, id int64, notes string) error
	DeleteSession(ctx context.Context, id int64) error

	// ListSessions returns every session newest first, rep counts included.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// ActiveSession returns the newest session without an end time, or nil.
	ActiveSession(ctx context.Context) (*domain.Session, error)

	CountFinishedBetween(ctx context.Context, from, to time.Time) (int, error)
	LastEndTime(ctx context.Context) (time.Time, bool, error)

	AddRep(ctx context.Context, sessionID int64) error
	CountReps(ctx context.Context, sessionID int64) (int64, error)

	// GetProfile returns the singleton profile, creating an empty one first
	// if the installation has none.
	GetProfile(ctx context.Context) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, profile domain.UserProfile) error

	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}
