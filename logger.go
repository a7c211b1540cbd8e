package fur

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/fur/internal/cache"
	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/gpu"
	"github.com/gogpu/fur/internal/shader"
	"github.com/gogpu/fur/internal/stage"
	"github.com/gogpu/fur/internal/timing"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for fur and all its sub-packages.
// By default, fur produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by fur:
//   - [slog.LevelDebug]: per-frame diagnostics (cache hits and evictions,
//     skipped timing readbacks, target resizes)
//   - [slog.LevelInfo]: lifecycle events (pipelines built, shaders reloaded)
//   - [slog.LevelWarn]: non-fatal issues (padded indices, untimed passes,
//     failed reloads)
//
// Example:
//
//	fur.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	gpu.SetLogger(l)
	cache.SetLogger(l)
	timing.SetLogger(l)
	shader.SetLogger(l)
	geometry.SetLogger(l)
	stage.SetLogger(l)
}

// Logger returns the current logger used by fur.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
