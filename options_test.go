package fur

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/fur/internal/geometry"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.shellCount != 64 {
		t.Errorf("shellCount = %d, want 64", o.shellCount)
	}
	if o.lifetime != 4 {
		t.Errorf("lifetime = %d, want 4", o.lifetime)
	}
	if o.queryPairs != 64 {
		t.Errorf("queryPairs = %d, want 64", o.queryPairs)
	}
	if !o.timing || !o.fxaa || !o.stats {
		t.Errorf("timing/fxaa/stats = %v/%v/%v, want all enabled", o.timing, o.fxaa, o.stats)
	}
	if o.clock == nil {
		t.Error("clock is nil")
	}
	if o.eye != DefaultEye || o.yaw != DefaultYaw {
		t.Errorf("camera = %v/%v, want %v/%v", o.eye, o.yaw, DefaultEye, DefaultYaw)
	}
}

func TestOptions(t *testing.T) {
	mesh := &geometry.Mesh{}
	now := func() time.Time { return time.Time{} }
	tests := []struct {
		name  string
		opt   Option
		check func(o options) bool
	}{
		{"format", WithSurfaceFormat(gputypes.TextureFormatRGBA8Unorm), func(o options) bool { return o.format == gputypes.TextureFormatRGBA8Unorm }},
		{"clear color", WithClearColor(gputypes.Color{R: 1}), func(o options) bool { return o.clearColor.R == 1 }},
		{"shell count", WithShellCount(16), func(o options) bool { return o.shellCount == 16 }},
		{"zero shell count", WithShellCount(0), func(o options) bool { return o.shellCount == 64 }},
		{"lifetime", WithCacheLifetime(8), func(o options) bool { return o.lifetime == 8 }},
		{"negative lifetime", WithCacheLifetime(-1), func(o options) bool { return o.lifetime == 4 }},
		{"query pairs", WithQueryPairs(8), func(o options) bool { return o.queryPairs == 8 }},
		{"timing off", WithTiming(false), func(o options) bool { return !o.timing }},
		{"fxaa off", WithFXAA(false), func(o options) bool { return !o.fxaa }},
		{"stats off", WithStats(false), func(o options) bool { return !o.stats }},
		{"shader dir", WithShaderDir("shaders"), func(o options) bool { return o.shaderDir == "shaders" }},
		{"mesh", WithMesh(mesh), func(o options) bool { return o.mesh == mesh }},
		{"camera", WithCamera(mgl32.Vec3{1, 2, 3}, 45), func(o options) bool { return o.eye == mgl32.Vec3{1, 2, 3} && o.yaw == 45 }},
		{"nil clock", WithClock(nil), func(o options) bool { return o.clock != nil }},
		{"clock", WithClock(now), func(o options) bool { return o.clock().IsZero() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if !tt.check(o) {
				t.Errorf("%s not applied: %+v", tt.name, o)
			}
		})
	}
}
