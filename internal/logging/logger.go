// Package logging provides structured logging configuration using log/slog.
//
// The converter writes its data to stdout when asked to, so logs always go
// to the writer passed to Setup (stderr from the CLI), never to stdout.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup builds a logger for the given level and format and installs it as
// the slog default.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	logger := New(level, format, w)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without touching the slog default.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ForFile returns logger with the file attribute set.
func ForFile(logger *slog.Logger, path string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("file", path)
}
