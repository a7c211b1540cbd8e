package fur

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/fur/internal/stage"
)

// Byte offsets of the Uniforms members.
const (
	viewOffset       = 0
	projectionOffset = 64
	resolutionOffset = 128
)

// Uniforms is the per-frame data shared by every stage program.
type Uniforms struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Width      float32
	Height     float32
}

// Bytes encodes u in the layout of the WGSL Uniforms struct. Matrices are
// column-major, as mgl32 stores them.
func (u *Uniforms) Bytes() []byte {
	b := make([]byte, stage.UniformsSize)
	putFloats(b[viewOffset:], u.View[:])
	putFloats(b[projectionOffset:], u.Projection[:])
	putFloats(b[resolutionOffset:], []float32{u.Width, u.Height})
	return b
}

func putFloats(dst []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
