package vcompare

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while decode workers are logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for vcompare and all its internal packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: per-frame diagnostics (admissions, bind group rebuilds)
//   - [slog.LevelInfo]: lifecycle (sources opened, adapter selected, play/pause)
//   - [slog.LevelWarn]: recoverable problems (frozen instances, skipped ticks)
//   - [slog.LevelError]: fatal conditions right before the session ends
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// ModuleLogger returns the current logger tagged with a module attribute.
// Internal packages call it per operation rather than caching the result,
// so a later SetLogger takes effect immediately.
func ModuleLogger(module string) *slog.Logger {
	return loggerPtr.Load().With("module", module)
}
