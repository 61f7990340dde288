package runner

import (
	"context"
	"sync"

	"github.com/hperssn/blastemst/internal/domain"
	"github.com/hperssn/blastemst/internal/observable"
)

// Snapshot is every observable value read at one point.
type Snapshot struct {
	Home               HomeState                   `json:"home"`
	ActiveSession      *domain.Session             `json:"active_session"`
	RepCount           int64                       `json:"rep_count"`
	Profile            *domain.UserProfile         `json:"profile"`
	Settings           domain.AppSettings          `json:"settings"`
	SessionsByDate     map[string][]domain.Session `json:"sessions_by_date"`
	CurrentMonth       domain.YearMonth            `json:"current_month"`
	ActiveSessionNotes string                      `json:"active_session_notes"`
}

func (m *SessionManager) Snapshot() Snapshot {
	return Snapshot{
		Home:               m.home.Get(),
		ActiveSession:      m.active.Get(),
		RepCount:           m.repCount.Get(),
		Profile:            m.profile.Get(),
		Settings:           m.settings.Get(),
		SessionsByDate:     m.byDate.Get(),
		CurrentMonth:       m.month.Get(),
		ActiveSessionNotes: m.notes.Get(),
	}
}

// Watch emits a snapshot now and again after changes until ctx is done.
// Bursts of changes are coalesced; a slow reader only misses intermediate
// snapshots.
func (m *SessionManager) Watch(ctx context.Context) <-chan Snapshot {
	notify := make(chan struct{}, 1)
	var wg sync.WaitGroup

	forwardChanges(ctx, &wg, m.home, notify)
	forwardChanges(ctx, &wg, m.active, notify)
	forwardChanges(ctx, &wg, m.repCount, notify)
	forwardChanges(ctx, &wg, m.profile, notify)
	forwardChanges(ctx, &wg, m.settings, notify)
	forwardChanges(ctx, &wg, m.byDate, notify)
	forwardChanges(ctx, &wg, m.month, notify)
	forwardChanges(ctx, &wg, m.notes, notify)

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer wg.Wait()

		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
			}

			select {
			case out <- m.Snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func forwardChanges[T any](ctx context.Context, wg *sync.WaitGroup, v observable.Readable[T], notify chan<- struct{}) {
	ch, cancel := v.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case notify <- struct{}{}:
				default:
				}
			}
		}
	}()
}
