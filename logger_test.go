package fur

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/haltest"
)

// logBuffer collects output from the frame loop and the shader watcher
// goroutine.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogs routes fur logging at level and above into a buffer for the
// rest of the test.
func captureLogs(t *testing.T, level slog.Level) *logBuffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	out := &logBuffer{}
	SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return out
}

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v, want nil", err)
	}
	if got := h.WithAttrs([]slog.Attr{slog.String("stage", "shell")}); got != (nopHandler{}) {
		t.Errorf("WithAttrs() = %T, want nopHandler", got)
	}
	if got := h.WithGroup("frame"); got != (nopHandler{}) {
		t.Errorf("WithGroup() = %T, want nopHandler", got)
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() = nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled for %v", level)
		}
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) left a nil logger")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) left logging enabled")
	}
}

// A triangle has three indices, which Build pads to four.
const triangleOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
`

func TestSetLoggerReachesEveryPackage(t *testing.T) {
	out := captureLogs(t, slog.LevelDebug)

	o, err := geometry.ParseOBJ("triangle.obj", strings.NewReader(triangleOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ() = %v", err)
	}
	mesh, err := geometry.Build(o)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	r, dev := newRenderer(t, &haltest.Queue{AutoComplete: true}, WithMesh(mesh), WithShaderDir(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := r.WatchShaders(ctx); err != nil {
		t.Fatalf("WatchShaders() = %v", err)
	}
	if err := r.Frame(epoch, surface(t, dev, 64, 64)); err != nil {
		t.Fatalf("Frame() = %v", err)
	}

	logs := out.String()
	tests := []struct {
		pkg string
		msg string
	}{
		{"geometry", "geometry: obj parsed"},
		{"geometry", "geometry: index count is not a multiple of 4, padding"},
		{"stage", "stage: pipeline built"},
		{"timing", "timing: instrument created"},
		{"shader", "shader: watching"},
		{"gpu", "gpu: render targets recreated"},
		{"cache", "cache: bind group created"},
		{"fur", "fur: targets resized"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if !strings.Contains(logs, tt.msg) {
				t.Errorf("%s log %q not captured", tt.pkg, tt.msg)
			}
		})
	}
}

func TestFrameWarnsWhenPassNotTimed(t *testing.T) {
	out := captureLogs(t, slog.LevelWarn)

	// Two pairs time one pass per cycle; the shell and fxaa passes find the
	// ring full.
	r, dev := newRenderer(t, &haltest.Queue{AutoComplete: true}, WithQueryPairs(2), WithStats(false))
	if err := r.Frame(epoch, surface(t, dev, 64, 64)); err != nil {
		t.Fatalf("Frame() = %v", err)
	}

	logs := out.String()
	if got := strings.Count(logs, `level=WARN msg="fur: pass not timed"`); got != 2 {
		t.Errorf("untimed pass warnings = %d, want 2\n%s", got, logs)
	}
	if !strings.Contains(logs, "ring exhausted") {
		t.Errorf("warning does not name the cause:\n%s", logs)
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	capture := slog.New(slog.NewTextHandler(&logBuffer{}, nil))

	var wg sync.WaitGroup
	const goroutines = 100
	for range goroutines {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l := Logger()
			if l == nil {
				t.Error("Logger() = nil during SetLogger")
				return
			}
			l.Debug("fur: frame", "frames", 1)
		}()
		go func() {
			defer wg.Done()
			SetLogger(capture)
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkFrameLogDisabled(b *testing.B) {
	// The per-frame Debug calls must cost nothing with the default logger.
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("fur: targets resized", "width", 1920, "height", 1080)
	}
}
