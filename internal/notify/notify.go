// Package notify is the fire-and-forget notification surface. Services report
// success and failure here with a human-readable message; nothing waits on
// delivery.
package notify

import (
	"context"
	"log/slog"
)

type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

type Notifier interface {
	Notify(ctx context.Context, sev Severity, msg string)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, sev Severity, msg string)

func (f Func) Notify(ctx context.Context, sev Severity, msg string) { f(ctx, sev, msg) }

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, sev Severity, msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, sev, msg)
		}
	}
}

// LogNotifier writes notifications to slog.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, sev Severity, msg string) {
	l := n.Log
	if l == nil {
		l = slog.Default()
	}
	l.Log(ctx, level(sev), msg, "severity", string(sev))
}

func level(sev Severity) slog.Level {
	switch sev {
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
