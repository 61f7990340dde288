package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hperssn/blastemst/internal/domain"
	"github.com/hperssn/blastemst/internal/metrics"
	"github.com/hperssn/blastemst/internal/runner"
	"github.com/hperssn/blastemst/internal/version"
)

var errNoActiveSession = errors.New("no active session")

// StateHolder is the part of runner.SessionManager the API drives.
type StateHolder interface {
	Snapshot() runner.Snapshot
	Watch(ctx context.Context) <-chan runner.Snapshot

	StartNewSession()
	AddRep()
	OnActiveSessionNotesChanged(notes string)
	FinishActiveSession()
	DeleteSession(id int64)

	SaveSettings(s domain.AppSettings)
	SaveSettingsDraft(d domain.SettingsDraft)
	SaveProfile(p domain.UserProfile)

	OnNextMonth()
	OnPreviousMonth()
	OnMonthScrolled(ym domain.YearMonth)
}

type routerOptions struct {
	proxyAuth bool
}

type Option func(*routerOptions)

// WithProxyAuth requires RequireProxyUser on every app route. Health,
// version and metrics stay open.
func WithProxyAuth() Option {
	return func(o *routerOptions) { o.proxyAuth = true }
}

// NewRouter wires every route. Mutations answer 202 because the work runs
// in the background; clients follow /state/events for the result.
func NewRouter(state StateHolder, opts ...Option) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz)
	r.Get("/version", getVersion)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if o.proxyAuth {
			r.Use(RequireProxyUser)
		}

		r.Get("/state", getState(state))
		r.Get("/state/events", StreamState(state))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", listSessions(state))
			r.Post("/", startSession(state))
			r.Delete("/{id}", deleteSession(state))

			r.Post("/active/reps", addRep(state))
			r.Put("/active/notes", updateNotes(state))
			r.Post("/active/finish", finishSession(state))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", getSettings(state))
			r.Put("/", saveSettings(state))
			r.Put("/draft", saveSettingsDraft(state))
		})

		r.Get("/profile", getProfile(state))
		r.Put("/profile", saveProfile(state))

		r.Route("/calendar", func(r chi.Router) {
			r.Post("/next", calendarNext(state))
			r.Post("/previous", calendarPrevious(state))
			r.Put("/{month}", calendarScroll(state))
		})
	})

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func getVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, version.Get(), http.StatusOK)
}

func getState(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, s.Snapshot(), http.StatusOK)
	}
}

func listSessions(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, s.Snapshot().Home.Sessions, http.StatusOK)
	}
}

func startSession(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.StartNewSession()
		w.WriteHeader(http.StatusAccepted)
	}
}

func deleteSession(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			respondError(w, "invalid session id", http.StatusBadRequest)
			return
		}

		s.DeleteSession(id)
		w.WriteHeader(http.StatusAccepted)
	}
}

func addRep(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Snapshot().ActiveSession == nil {
			respondError(w, errNoActiveSession.Error(), http.StatusConflict)
			return
		}

		s.AddRep()
		w.WriteHeader(http.StatusAccepted)
	}
}

func updateNotes(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Notes string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		s.OnActiveSessionNotesChanged(req.Notes)
		w.WriteHeader(http.StatusAccepted)
	}
}

func finishSession(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Snapshot().ActiveSession == nil {
			respondError(w, errNoActiveSession.Error(), http.StatusConflict)
			return
		}

		s.FinishActiveSession()
		w.WriteHeader(http.StatusAccepted)
	}
}

func getSettings(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, s.Snapshot().Settings, http.StatusOK)
	}
}

func saveSettings(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.AppSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.DefaultReps <= 0 || req.WeeklySessionGoal <= 0 || req.DefaultPressure <= 0 {
			respondError(w, "default_reps, weekly_session_goal and default_pressure must be positive", http.StatusBadRequest)
			return
		}
		req.Theme = domain.ParseTheme(string(req.Theme))

		s.SaveSettings(req)
		w.WriteHeader(http.StatusAccepted)
	}
}

func saveSettingsDraft(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.SettingsDraft
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		s.SaveSettingsDraft(req)
		w.WriteHeader(http.StatusAccepted)
	}
}

func getProfile(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.Snapshot().Profile
		if p == nil {
			respondError(w, "profile not loaded", http.StatusNotFound)
			return
		}
		respondJSON(w, p, http.StatusOK)
	}
}

func saveProfile(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.UserProfile
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.ID = domain.ProfileID

		s.SaveProfile(req)
		w.WriteHeader(http.StatusAccepted)
	}
}

func calendarNext(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.OnNextMonth()
		respondJSON(w, s.Snapshot().CurrentMonth, http.StatusOK)
	}
}

func calendarPrevious(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.OnPreviousMonth()
		respondJSON(w, s.Snapshot().CurrentMonth, http.StatusOK)
	}
}

func calendarScroll(s StateHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ym, err := domain.ParseYearMonth(chi.URLParam(r, "month"))
		if err != nil {
			respondError(w, "month must look like 2026-10", http.StatusBadRequest)
			return
		}

		s.OnMonthScrolled(ym)
		respondJSON(w, ym, http.StatusOK)
	}
}

// requestLogger logs each request through slog and counts it by route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		slog.Debug("HTTP request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
