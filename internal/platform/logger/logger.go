// Package logger constructs the application-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured logger. Format and level come from the
// environment: GATEHOUSE_LOG_FORMAT (text|json, default json) and
// GATEHOUSE_LOG_LEVEL (debug|info|warn|error, default info).
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("GATEHOUSE_LOG_LEVEL"))}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("GATEHOUSE_LOG_FORMAT"), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
