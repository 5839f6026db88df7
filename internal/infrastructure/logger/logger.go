package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a JSON slog logger writing to stdout at the given level
// ("debug", "info", "warn", "error"; unknown values mean info).
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, level)
}

// New creates a JSON slog logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("service", "formativa")
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
