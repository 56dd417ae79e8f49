// Package logging builds the process-wide structured logger. Both binaries
// write JSON lines to stdout; every record carries the app and service
// names, so api and worker output can share one collected stream.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const appName = "docuvision"

// NewJSONLogger returns the logger a binary installs as slog default.
// level is the config string; unknown values fall back to info.
func NewJSONLogger(service, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, level)
}

func newJSONLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("app", appName, "service", service)
}

func parseLevel(level string) slog.Level {
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
