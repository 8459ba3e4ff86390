package session

import (
	"context"
	"log/slog"
)

// Notifier surfaces user-visible messages. User-visible failures always
// pair a log entry with a notification; internal failures are log-only.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}

// LogNotifier is a Notifier backed by the application logger, used
// where no UI layer is attached
type LogNotifier struct {
	Logger *slog.Logger
}

// Info logs an informational notification
func (n *LogNotifier) Info(msg string) {
	n.Logger.Info("notify", slog.String("message", msg))
}

// Warn logs a warning notification
func (n *LogNotifier) Warn(msg string) {
	n.Logger.Warn("notify", slog.String("message", msg))
}

// TimeSync synchronizes the client clock with network time. Bootstrap
// runs it best-effort; errors are ignored.
type TimeSync interface {
	Sync(ctx context.Context) error
}

// NopTimeSync is a TimeSync that does nothing
type NopTimeSync struct{}

// Sync returns immediately
func (NopTimeSync) Sync(ctx context.Context) error { return nil }
