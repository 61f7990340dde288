package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hperssn/blastemst/internal/bridge"
	"github.com/hperssn/blastemst/internal/domain"
	"github.com/hperssn/blastemst/internal/metrics"
)

// InactivityWorker posts a reminder when the user is behind on the weekly
// goal. Goal and count are read when the job runs, not when it is queued.
type InactivityWorker struct {
	bridge   bridge.Bridge
	notifier Notifier
}

func NewInactivityWorker(b bridge.Bridge, n Notifier) *InactivityWorker {
	return &InactivityWorker{bridge: b, notifier: n}
}

func (w *InactivityWorker) Run(ctx context.Context) error {
	goal := domain.WeeklyGoalFrom(w.bridge.GetSetting(ctx, domain.KeyWeeklyGoal, strconv.Itoa(domain.DefaultWeeklyGoal)))
	done := w.bridge.GetSessionCountForWeek(ctx)

	if done >= goal {
		slog.Debug("Weekly goal met, no reminder", "goal", goal, "done", done)
		metrics.RemindersFiredTotal.WithLabelValues("goal_met").Inc()
		return nil
	}

	if err := w.notifier.Notify(ctx, InactivityNotification); err != nil {
		metrics.RemindersFiredTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("notify: %w", err)
	}
	metrics.RemindersFiredTotal.WithLabelValues("notified").Inc()
	return nil
}
