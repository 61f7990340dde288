package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/domain"
	"github.com/hperssn/blastemst/internal/metrics"
	"github.com/hperssn/blastemst/internal/storage"
)

// Opener opens the durable store named by path (a file path or a DSN).
type Opener func(path string) (storage.Repository, error)

// Native implements Bridge over a storage.Repository.
type Native struct {
	open  Opener
	clock clockwork.Clock
	loc   *time.Location

	mu   sync.RWMutex
	repo storage.Repository
}

// NewNative returns a bridge that opens its store on InitDatabase. loc is the
// zone the "current week" is computed in.
func NewNative(open Opener, clock clockwork.Clock, loc *time.Location) *Native {
	if loc == nil {
		loc = time.Local
	}
	return &Native{open: open, clock: clock, loc: loc}
}

func (n *Native) InitDatabase(ctx context.Context, path string) {
	if n.open == nil {
		slog.ErrorContext(ctx, "Failed to initialize database, no storage configured", "path", path)
		metrics.BridgeCallsTotal.WithLabelValues("init_database", "error").Inc()
		return
	}
	repo, err := n.open(path)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to initialize database", "path", path, "error", err)
		metrics.BridgeCallsTotal.WithLabelValues("init_database", "error").Inc()
		return
	}

	n.mu.Lock()
	prev := n.repo
	n.repo = repo
	n.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	metrics.BridgeCallsTotal.WithLabelValues("init_database", "ok").Inc()
	slog.InfoContext(ctx, "Database initialized", "path", path)
}

// Ready reports whether a store is open.
func (n *Native) Ready() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.repo != nil
}

// Close releases the underlying store. Later calls behave as if the database
// was never initialized.
func (n *Native) Close() error {
	n.mu.Lock()
	repo := n.repo
	n.repo = nil
	n.mu.Unlock()

	if repo == nil {
		return nil
	}
	return repo.Close()
}

// call runs fn against the open store and reports whether it succeeded.
func (n *Native) call(ctx context.Context, op string, fn func(storage.Repository) error) bool {
	n.mu.RLock()
	repo := n.repo
	n.mu.RUnlock()

	if repo == nil {
		slog.ErrorContext(ctx, "Database connection not initialized", "operation", op)
		metrics.BridgeCallsTotal.WithLabelValues(op, "not_initialized").Inc()
		return false
	}

	start := time.Now()
	err := fn(repo)
	metrics.BridgeCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.ErrorContext(ctx, "Bridge call failed", "operation", op, "error", err)
		metrics.BridgeCallsTotal.WithLabelValues(op, "error").Inc()
		return false
	}

	metrics.BridgeCallsTotal.WithLabelValues(op, "ok").Inc()
	return true
}

func (n *Native) StartSession(ctx context.Context, pressure int, notes string) int64 {
	id := FailedID
	n.call(ctx, "start_session", func(r storage.Repository) error {
		newID, err := r.StartSession(ctx, pressure, notes)
		if err != nil {
			return err
		}
		id = newID
		return nil
	})

	if id != FailedID {
		slog.InfoContext(ctx, "Started new session", "session_id", id)
	}
	return id
}

func (n *Native) GetAllSessions(ctx context.Context) string {
	out := "[]"
	n.call(ctx, "get_all_sessions", func(r storage.Repository) error {
		sessions, err := r.ListSessions(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(sessions)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out
}

func (n *Native) GetActiveSession(ctx context.Context) string {
	out := ""
	n.call(ctx, "get_active_session", func(r storage.Repository) error {
		session, err := r.ActiveSession(ctx)
		if err != nil || session == nil {
			return err
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out
}

func (n *Native) EndSession(ctx context.Context, id int64, notes string) {
	n.call(ctx, "end_session", func(r storage.Repository) error {
		return r.EndSession(ctx, id, notes)
	})
}

func (n *Native) GetSessionCountForWeek(ctx context.Context) int {
	count := 0
	n.call(ctx, "get_session_count_for_week", func(r storage.Repository) error {
		from, to := domain.WeekBounds(n.clock.Now().In(n.loc))
		c, err := r.CountFinishedBetween(ctx, from, to)
		if err != nil {
			return err
		}
		count = c
		return nil
	})
	return count
}

func (n *Native) GetLastSessionEndTime(ctx context.Context) string {
	out := ""
	n.call(ctx, "get_last_session_end_time", func(r storage.Repository) error {
		last, ok, err := r.LastEndTime(ctx)
		if err != nil || !ok {
			return err
		}
		out = last.UTC().Format(time.RFC3339Nano)
		return nil
	})
	return out
}

func (n *Native) DeleteSession(ctx context.Context, id int64) {
	n.call(ctx, "delete_session", func(r storage.Repository) error {
		return r.DeleteSession(ctx, id)
	})
}

func (n *Native) AddRep(ctx context.Context, id int64) {
	n.call(ctx, "add_rep", func(r storage.Repository) error {
		return r.AddRep(ctx, id)
	})
}

func (n *Native) GetTotalReps(ctx context.Context, id int64) int64 {
	var total int64
	n.call(ctx, "get_total_reps", func(r storage.Repository) error {
		c, err := r.CountReps(ctx, id)
		if err != nil {
			return err
		}
		total = c
		return nil
	})
	return total
}

func (n *Native) GetProfile(ctx context.Context) string {
	out := "{}"
	n.call(ctx, "get_profile", func(r storage.Repository) error {
		p, err := r.GetProfile(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out
}

func (n *Native) UpdateProfile(ctx context.Context, profileJSON string) {
	var p domain.UserProfile
	if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
		slog.ErrorContext(ctx, "Failed to decode profile JSON", "error", err)
		metrics.BridgeCallsTotal.WithLabelValues("update_profile", "decode_error").Inc()
		return
	}

	n.call(ctx, "update_profile", func(r storage.Repository) error {
		return r.UpdateProfile(ctx, p)
	})
}

func (n *Native) GetSetting(ctx context.Context, key, def string) string {
	out := def
	n.call(ctx, "get_setting", func(r storage.Repository) error {
		v, found, err := r.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if found {
			out = v
		}
		return nil
	})
	return out
}

func (n *Native) SetSetting(ctx context.Context, key, value string) {
	n.call(ctx, "set_setting", func(r storage.Repository) error {
		return r.SetSetting(ctx, key, value)
	})
}
