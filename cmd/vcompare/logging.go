package main

import (
	"io"
	"log/slog"
	"strings"
)

// parseLevel maps a level name to a slog level, nil if unknown.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer, format, level string) *slog.Logger {
	lvl := slog.LevelInfo
	if l := parseLevel(level); l != nil {
		lvl = *l
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
