package fur

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/fur/internal/cache"
	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/stage"
	"github.com/gogpu/fur/internal/timing"
)

// Option configures a Renderer during creation.
// Use functional options to customize Renderer behavior.
//
// Example:
//
//	r, err := fur.New(device, queue,
//	    fur.WithSurfaceFormat(gputypes.TextureFormatRGBA8Unorm),
//	    fur.WithShellCount(32),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	format     gputypes.TextureFormat
	clearColor gputypes.Color
	shellCount uint32
	lifetime   int
	queryPairs uint32
	timing     bool
	fxaa       bool
	stats      bool
	shaderDir  string
	mesh       *geometry.Mesh
	eye        mgl32.Vec3
	yaw        float32
	clock      func() time.Time
}

// DefaultClearColor is the color the sky pass clears the render target to.
var DefaultClearColor = gputypes.Color{R: 0, G: 0, B: 0, A: 1}

// DefaultEye is the starting camera position, three units back from the
// origin.
var DefaultEye = mgl32.Vec3{0, 0, 3}

// DefaultYaw is the starting camera yaw in degrees; it looks down -Z.
const DefaultYaw float32 = -90

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		format:     gputypes.TextureFormatBGRA8Unorm,
		clearColor: DefaultClearColor,
		shellCount: stage.DefaultShellCount,
		lifetime:   cache.DefaultLifetime,
		queryPairs: timing.DefaultPairs,
		timing:     true,
		fxaa:       true,
		stats:      true,
		eye:        DefaultEye,
		yaw:        DefaultYaw,
		clock:      time.Now,
	}
}

// WithSurfaceFormat sets the format of the surface the renderer presents
// to. The off-screen render target uses the same format.
func WithSurfaceFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithClearColor sets the color the render target is cleared to before
// the sky is drawn.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithShellCount sets the number of fur shells drawn per frame.
// Zero keeps the default.
func WithShellCount(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.shellCount = n
		}
	}
}

// WithCacheLifetime sets how many frames a cached bind group lives.
// Values below 1 keep the default.
func WithCacheLifetime(frames int) Option {
	return func(o *options) {
		if frames > 0 {
			o.lifetime = frames
		}
	}
}

// WithQueryPairs sets the capacity of the timestamp query set in
// begin/end pairs. Zero keeps the default.
func WithQueryPairs(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.queryPairs = n
		}
	}
}

// WithTiming enables or disables GPU timing. Timing is also disabled
// when the device does not support timestamp queries.
func WithTiming(enabled bool) Option {
	return func(o *options) {
		o.timing = enabled
	}
}

// WithFXAA enables or disables the anti-aliasing filter of the
// post-process pass.
func WithFXAA(enabled bool) Option {
	return func(o *options) {
		o.fxaa = enabled
	}
}

// WithStats enables or disables the statistics overlay.
func WithStats(enabled bool) Option {
	return func(o *options) {
		o.stats = enabled
	}
}

// WithShaderDir loads stage sources from dir, falling back to the
// embedded sources for files the directory does not contain.
func WithShaderDir(dir string) Option {
	return func(o *options) {
		o.shaderDir = dir
	}
}

// WithMesh sets the model drawn by the shell stage. The default is a
// procedural sphere.
func WithMesh(m *geometry.Mesh) Option {
	return func(o *options) {
		o.mesh = m
	}
}

// WithClock sets the time source used for the CPU timings of the
// statistics overlay.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithCamera sets the starting eye position and yaw in degrees.
func WithCamera(eye mgl32.Vec3, yaw float32) Option {
	return func(o *options) {
		o.eye = eye
		o.yaw = yaw
	}
}
