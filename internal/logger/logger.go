// Package logger builds the process-wide slog logger.
//
// Production environments get JSON lines for the log shipper, everything else
// gets the text handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger for env and installs it as the slog default.
func New(env, level string) *slog.Logger {
	l := build(os.Stdout, env, level)
	slog.SetDefault(l)
	return l
}

func build(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	switch strings.ToLower(env) {
	case "production", "prod":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
