package reminder

import (
	"context"
	"log/slog"
)

type Notification struct {
	Title string
	Body  string
}

// InactivityNotification is shown when the weekly goal is not yet met.
var InactivityNotification = Notification{
	Title: "Time for your session!",
	Body:  "Don't forget to complete your EMST exercise.",
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier delivers notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("Notification", "title", n.Title, "body", n.Body)
	return nil
}

// PermissionGate drops notifications while Allowed reports false.
type PermissionGate struct {
	Allowed func() bool
	Next    Notifier
}

func (g PermissionGate) Notify(ctx context.Context, n Notification) error {
	if g.Allowed != nil && !g.Allowed() {
		slog.Info("Notification suppressed, permission not granted", "title", n.Title)
		return nil
	}
	return g.Next.Notify(ctx, n)
}
