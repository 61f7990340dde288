package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/domain"
	"github.com/hperssn/blastemst/internal/metrics"
	"github.com/hperssn/blastemst/internal/observable"
	"github.com/hperssn/blastemst/internal/reminder"
)

// HomeState is what the home screen renders.
type HomeState struct {
	Sessions          []domain.Session `json:"sessions"`
	AppVersion        string           `json:"app_version"`
	IsLoading         bool             `json:"is_loading"`
	LastSessionReps   int64            `json:"last_session_reps"`
	SessionsThisWeek  int              `json:"sessions_this_week"`
	WeeklySessionGoal int              `json:"weekly_session_goal"`
}

// Player is the rep feedback the manager triggers.
type Player interface {
	LoadSoundFromURI(uri string)
	LoadDefaultSound()
	PlaySoundAndHaptic(hapticEnabled bool, customURI string)
	Release()
}

type Config struct {
	DatabasePath string
	// AppVersion is shown as "Version <AppVersion>"; empty shows "Version N/A".
	AppVersion string
	Policy     reminder.Policy
	// Location decides calendar days and the initial month. Defaults to UTC.
	Location *time.Location
}

// SessionManager holds all in-memory app state and runs every operation
// that touches storage as a background task. UI layers observe the exposed
// values and never mutate them directly.
type SessionManager struct {
	bridge    bridge.Bridge
	scheduler reminder.Scheduler
	player    Player
	clock     clockwork.Clock
	tasks     *TaskRunner

	dbPath  string
	version string
	policy  reminder.Policy
	loc     *time.Location

	// repMu keeps increment and re-read of the rep count together so the
	// last published count is never older than the last increment.
	repMu sync.Mutex
	// startMu keeps the active session check and the insert together so two
	// starts cannot both find no active session.
	startMu sync.Mutex

	home     *observable.Value[HomeState]
	active   *observable.Value[*domain.Session]
	repCount *observable.Value[int64]
	profile  *observable.Value[*domain.UserProfile]
	settings *observable.Value[domain.AppSettings]
	byDate   *observable.Value[map[string][]domain.Session]
	month    *observable.Value[domain.YearMonth]
	notes    *observable.Value[string]
}

func NewSessionManager(b bridge.Bridge, sched reminder.Scheduler, player Player, clock clockwork.Clock, cfg Config) *SessionManager {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	version := "Version N/A"
	if cfg.AppVersion != "" {
		version = "Version " + cfg.AppVersion
	}

	return &SessionManager{
		bridge:    b,
		scheduler: sched,
		player:    player,
		clock:     clock,
		tasks:     NewTaskRunner(clock),
		dbPath:    cfg.DatabasePath,
		version:   version,
		policy:    cfg.Policy,
		loc:       loc,

		home:     observable.New(HomeState{IsLoading: true, WeeklySessionGoal: domain.DefaultWeeklyGoal}),
		active:   observable.New[*domain.Session](nil),
		repCount: observable.New[int64](0),
		profile:  observable.New[*domain.UserProfile](nil),
		settings: observable.New(domain.DefaultSettings()),
		byDate:   observable.New(map[string][]domain.Session{}),
		month:    observable.New(domain.YearMonthOf(clock.Now().In(loc))),
		notes:    observable.New(""),
	}
}

func (m *SessionManager) HomeState() observable.Readable[HomeState]             { return m.home }
func (m *SessionManager) ActiveSession() observable.Readable[*domain.Session]   { return m.active }
func (m *SessionManager) RepCount() observable.Readable[int64]                  { return m.repCount }
func (m *SessionManager) UserProfile() observable.Readable[*domain.UserProfile] { return m.profile }
func (m *SessionManager) Settings() observable.Readable[domain.AppSettings]     { return m.settings }
func (m *SessionManager) CurrentMonth() observable.Readable[domain.YearMonth]   { return m.month }
func (m *SessionManager) ActiveSessionNotes() observable.Readable[string]       { return m.notes }

func (m *SessionManager) SessionsByDate() observable.Readable[map[string][]domain.Session] {
	return m.byDate
}

// Load opens the database and populates every value.
func (m *SessionManager) Load() {
	m.tasks.Go("load", func(ctx context.Context) {
		m.bridge.InitDatabase(ctx, m.dbPath)
		m.loadSettings(ctx)
		m.loadInitialData(ctx)
		m.loadProfile(ctx)
		m.loadActiveSession(ctx)
	})
}

// StartNewSession creates a session with the default pressure and makes it
// active. If a session is already active it is adopted instead.
func (m *SessionManager) StartNewSession() {
	m.tasks.Go("start_session", func(ctx context.Context) {
		if m.settings.Get().RemindersEnabled {
			m.scheduler.CancelInactivityCheck(ctx)
		}

		m.startMu.Lock()
		defer m.startMu.Unlock()

		if m.bridge.GetActiveSession(ctx) != "" {
			slog.Info("Session already active, not starting another")
			m.loadActiveSession(ctx)
			return
		}

		id := m.bridge.StartSession(ctx, m.settings.Get().DefaultPressure, "")
		if id == bridge.FailedID {
			slog.Warn("Failed to start session")
			return
		}
		metrics.SessionsStartedTotal.Inc()

		m.notes.Set("")
		m.repCount.Set(0)
		m.loadActiveSession(ctx)
	})
}

// AddRep logs a repetition on the active session and plays the feedback.
func (m *SessionManager) AddRep() {
	active := m.active.Get()
	if active == nil {
		return
	}
	id := active.ID

	m.tasks.Go("add_rep", func(ctx context.Context) {
		m.repMu.Lock()
		defer m.repMu.Unlock()

		m.bridge.AddRep(ctx, id)
		total := m.bridge.GetTotalReps(ctx, id)
		metrics.RepsLoggedTotal.Inc()

		if cur := m.active.Get(); cur != nil && cur.ID == id {
			m.repCount.Set(total)
		}
	})

	s := m.settings.Get()
	m.player.PlaySoundAndHaptic(s.HapticFeedbackEnabled, s.RepSoundURI)
}

// FinishActiveSession ends the active session with the buffered notes.
func (m *SessionManager) FinishActiveSession() {
	active := m.active.Get()
	if active == nil {
		return
	}
	id := active.ID

	m.tasks.Go("finish_session", func(ctx context.Context) {
		m.bridge.EndSession(ctx, id, m.notes.Get())
		m.clearActive()
		metrics.SessionsFinishedTotal.Inc()

		if m.settings.Get().RemindersEnabled {
			m.schedule(ctx, m.policy.AfterFinishMinutes())
		}
		m.loadInitialData(ctx)
	})
}

func (m *SessionManager) DeleteSession(id int64) {
	m.tasks.Go("delete_session", func(ctx context.Context) {
		m.bridge.DeleteSession(ctx, id)
		if cur := m.active.Get(); cur != nil && cur.ID == id {
			m.loadActiveSession(ctx)
		}
		m.loadInitialData(ctx)
	})
}

// SaveSettings persists every field, reschedules reminders and reloads.
func (m *SessionManager) SaveSettings(s domain.AppSettings) {
	m.tasks.Go("save_settings", func(ctx context.Context) {
		m.saveSettings(ctx, s)
	})
}

// SaveSettingsDraft saves the settings form. Numeric fields that do not
// parse keep their current values.
func (m *SessionManager) SaveSettingsDraft(d domain.SettingsDraft) {
	m.tasks.Go("save_settings", func(ctx context.Context) {
		m.saveSettings(ctx, d.Resolve(m.settings.Get()))
	})
}

func (m *SessionManager) UpdateRepSoundURI(uri string) {
	s := m.settings.Get()
	s.RepSoundURI = uri
	m.SaveSettings(s)
}

func (m *SessionManager) UpdateHapticFeedback(enabled bool) {
	s := m.settings.Get()
	s.HapticFeedbackEnabled = enabled
	m.SaveSettings(s)
}

func (m *SessionManager) SaveProfile(p domain.UserProfile) {
	m.tasks.Go("save_profile", func(ctx context.Context) {
		raw, err := json.Marshal(p)
		if err != nil {
			slog.Error("Failed to encode profile", "error", err)
			return
		}
		m.bridge.UpdateProfile(ctx, string(raw))
		m.loadProfile(ctx)
	})
}

func (m *SessionManager) OnActiveSessionNotesChanged(notes string) {
	m.notes.Set(notes)
}

func (m *SessionManager) OnNextMonth() {
	m.month.Update(domain.YearMonth.Next)
}

func (m *SessionManager) OnPreviousMonth() {
	m.month.Update(domain.YearMonth.Previous)
}

func (m *SessionManager) OnMonthScrolled(ym domain.YearMonth) {
	m.month.Set(ym)
}

// Wait blocks until every operation started so far has finished.
func (m *SessionManager) Wait() {
	m.tasks.Wait()
}

// Close stops accepting operations, waits up to timeout for running ones and
// releases playback resources.
func (m *SessionManager) Close(timeout time.Duration) {
	if !m.tasks.Close(timeout) {
		slog.Warn("Background tasks still running at shutdown", "timeout", timeout)
	}
	m.player.Release()
}

func (m *SessionManager) saveSettings(ctx context.Context, s domain.AppSettings) {
	for _, kv := range s.Pairs() {
		m.bridge.SetSetting(ctx, kv.Key, kv.Value)
	}

	if s.RemindersEnabled {
		last := m.bridge.GetLastSessionEndTime(ctx)
		m.schedule(ctx, m.policy.NextDelayMinutes(last, m.clock.Now()))
	} else {
		m.scheduler.CancelInactivityCheck(ctx)
	}

	m.loadSettings(ctx)
}

func (m *SessionManager) schedule(ctx context.Context, delayMinutes int64) {
	if err := m.scheduler.ScheduleInactivityCheck(ctx, delayMinutes); err != nil {
		slog.Warn("Reminder not scheduled", "delay_minutes", delayMinutes, "error", err)
	}
}

func (m *SessionManager) loadSettings(ctx context.Context) {
	s := domain.SettingsFromLookup(func(key, def string) string {
		return m.bridge.GetSetting(ctx, key, def)
	})
	m.settings.Set(s)

	if s.RepSoundURI != "" {
		m.player.LoadSoundFromURI(s.RepSoundURI)
	} else {
		m.player.LoadDefaultSound()
	}
}

func (m *SessionManager) loadInitialData(ctx context.Context) {
	m.home.Update(func(h HomeState) HomeState {
		h.IsLoading = true
		return h
	})

	sessions := []domain.Session{}
	if err := json.Unmarshal([]byte(m.bridge.GetAllSessions(ctx)), &sessions); err != nil {
		slog.Error("Failed to decode sessions", "error", err)
		sessions = []domain.Session{}
	}

	m.byDate.Set(domain.GroupByDay(sessions, m.loc))
	week := m.bridge.GetSessionCountForWeek(ctx)
	goal := m.settings.Get().WeeklySessionGoal

	m.home.Set(HomeState{
		Sessions:          sessions,
		AppVersion:        m.version,
		IsLoading:         false,
		LastSessionReps:   domain.LastFinishedReps(sessions),
		SessionsThisWeek:  week,
		WeeklySessionGoal: goal,
	})
}

// loadProfile keeps the previous profile when the bridge has none to give.
func (m *SessionManager) loadProfile(ctx context.Context) {
	raw := m.bridge.GetProfile(ctx)
	if raw == "" {
		return
	}

	var p domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Error("Failed to decode profile", "error", err)
		return
	}
	if p.ID == 0 {
		return
	}
	m.profile.Set(&p)
}

func (m *SessionManager) loadActiveSession(ctx context.Context) {
	raw := m.bridge.GetActiveSession(ctx)
	if raw == "" || raw == "null" {
		m.clearActive()
		return
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		slog.Error("Failed to decode active session", "error", err)
		m.clearActive()
		return
	}

	m.active.Set(&s)
	m.notes.Set(s.Notes)
	m.repCount.Set(m.bridge.GetTotalReps(ctx, s.ID))
}

// clearActive drops the active session along with its rep count and notes.
func (m *SessionManager) clearActive() {
	m.active.Set(nil)
	m.repCount.Set(0)
	m.notes.Set("")
}
