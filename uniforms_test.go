package fur

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestUniformsBytes(t *testing.T) {
	u := Uniforms{
		View:       mgl32.Translate3D(1, 2, 3),
		Projection: mgl32.Scale3D(4, 5, 6),
		Width:      1920,
		Height:     1080,
	}
	b := u.Bytes()
	if len(b) != 144 {
		t.Fatalf("len(Bytes()) = %d, want 144", len(b))
	}

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	tests := []struct {
		name string
		off  int
		want float32
	}{
		{"view translation x", 12 * 4, 1},
		{"view translation z", 14 * 4, 3},
		{"view w", 15 * 4, 1},
		{"projection x scale", 64, 4},
		{"projection z scale", 64 + 10*4, 6},
		{"width", 128, 1920},
		{"height", 132, 1080},
		{"padding", 136, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f(tt.off); got != tt.want {
				t.Errorf("float at %d = %v, want %v", tt.off, got, tt.want)
			}
		})
	}
}
