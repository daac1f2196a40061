// Package envlog holds the logging conventions shared by all three
// binaries: ISO-8601 UTC timestamps for wire headers, a level-name to
// slog.Level mapping for the --log-level flag, and a JSON slog logger
// tagged with a per-run correlation id.
package envlog

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NowISO8601 returns the current UTC time formatted "YYYY-MM-DDTHH:MM:SSZ",
// the exact layout dist::common::now_iso8601 produces.
func NowISO8601() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// LevelFromString maps the CLI/env level names to slog levels, defaulting
// to info for anything unrecognized (mirrors level_from_string).
func LevelFromString(value string) slog.Level {
	switch strings.ToLower(value) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical":
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the shared JSON slog logger, attaching a fresh
// per-run correlation id (component + run_id) the way
// References/orion-prototipe/cmd/oriond/main.go sets up slog.NewJSONHandler.
func NewLogger(component, levelName string) *slog.Logger {
	level := LevelFromString(levelName)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With(
		"component", component,
		"run_id", uuid.NewString(),
	)
	slog.SetDefault(logger)
	return logger
}
