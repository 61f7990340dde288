package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Storage bridge metrics
var (
	// BridgeCallsTotal tracks bridge calls by operation and outcome
	BridgeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_calls_total",
			Help: "Storage bridge calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	BridgeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_call_duration_seconds",
			Help:    "Storage bridge call duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
		},
		[]string{"operation"},
	)
)

// Session metrics
var (
	SessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Sessions started",
		},
	)

	SessionsFinishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_finished_total",
			Help: "Sessions finished",
		},
	)

	RepsLoggedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reps_logged_total",
			Help: "Repetitions logged against an active session",
		},
	)

	// BackgroundTasksInFlight tracks state holder tasks that have not finished yet
	BackgroundTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "background_tasks_in_flight",
			Help: "State holder background tasks currently running",
		},
	)
)

// Reminder metrics
var (
	// RemindersScheduledTotal counts enqueue and cancel calls by action
	RemindersScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Reminder jobs by action (scheduled, cancelled, rejected, restored)",
		},
		[]string{"action"},
	)

	// RemindersFiredTotal counts fired jobs by outcome (notified, goal_met, failed)
	RemindersFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminder jobs that fired, by outcome",
		},
		[]string{"outcome"},
	)
)

// Playback metrics
var (
	PlaybackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_total",
			Help: "Rep feedback playback by kind (custom, default, haptic) and status",
		},
		[]string{"kind", "status"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	SSEClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_clients_connected",
			Help: "Currently connected state stream clients",
		},
	)
)
