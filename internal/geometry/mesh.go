package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Vertex layout.
const (
	FloatsPerVertex = 8
	VertexStride    = FloatsPerVertex * 4
	NormalOffset    = 12
	UVOffset        = 24
)

// ErrTooManyVertices is returned when a mesh does not fit uint16 indices.
var ErrTooManyVertices = errors.New("geometry: mesh exceeds 65536 vertices")

// Mesh is interleaved vertex data with a uint16 index list.
type Mesh struct {
	Vertices []float32
	// Indices is padded with zeros to a multiple of four entries.
	Indices []uint16
	// Count is the number of indices to draw, excluding padding.
	Count uint32
}

// VertexCount returns the number of vertices in m.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / FloatsPerVertex }

// VertexBytes encodes the vertex data little-endian.
func (m *Mesh) VertexBytes() []byte {
	b := make([]byte, 4*len(m.Vertices))
	for i, f := range m.Vertices {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

// IndexBytes encodes the index data little-endian.
func (m *Mesh) IndexBytes() []byte {
	b := make([]byte, 2*len(m.Indices))
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint16(b[2*i:], idx)
	}
	return b
}

// Build converts an OBJ into a Mesh. Corners sharing the same position,
// texture coordinate and normal indices share a vertex.
func Build(o *OBJ) (*Mesh, error) {
	if len(o.Faces)%3 != 0 {
		return nil, fmt.Errorf("geometry: face list length %d is not a multiple of 3", len(o.Faces))
	}

	seen := make(map[uint64]uint16)
	m := &Mesh{}
	for i := 0; i < len(o.Faces); i += 3 {
		v, vt, vn := o.Faces[i], o.Faces[i+1], o.Faces[i+2]
		key := uint64(vn)<<32 | uint64(vt)<<16 | uint64(v)
		if idx, ok := seen[key]; ok {
			m.Indices = append(m.Indices, idx)
			continue
		}

		n := m.VertexCount()
		if n > math.MaxUint16 {
			return nil, ErrTooManyVertices
		}
		pos, err := lookup(o.Vertices, v, 3, "position")
		if err != nil {
			return nil, err
		}
		normal, err := lookup(o.Normals, vn, 3, "normal")
		if err != nil {
			return nil, err
		}
		uv, err := lookup(o.Texcoords, vt, 2, "texcoord")
		if err != nil {
			return nil, err
		}

		seen[key] = uint16(n)
		m.Indices = append(m.Indices, uint16(n))
		m.Vertices = append(m.Vertices, pos...)
		m.Vertices = append(m.Vertices, normal...)
		m.Vertices = append(m.Vertices, uv...)
	}
	m.pad()
	return m, nil
}

func lookup(data []float32, index, width int, what string) ([]float32, error) {
	i := (index - 1) * width
	if index < 1 || i+width > len(data) {
		return nil, fmt.Errorf("geometry: %s index %d out of range", what, index)
	}
	return data[i : i+width], nil
}

func (m *Mesh) pad() {
	m.Count = uint32(len(m.Indices))
	if len(m.Indices)%4 == 0 {
		return
	}
	slogger().Warn("geometry: index count is not a multiple of 4, padding", "count", len(m.Indices))
	for len(m.Indices)%4 != 0 {
		m.Indices = append(m.Indices, 0)
	}
}

// Sphere builds a UV sphere of unit radius.
func Sphere(rings, segments int) (*Mesh, error) {
	if rings < 2 || segments < 3 {
		return nil, fmt.Errorf("geometry: sphere needs at least 2 rings and 3 segments, got %d and %d", rings, segments)
	}
	if (rings+1)*(segments+1) > math.MaxUint16+1 {
		return nil, ErrTooManyVertices
	}

	m := &Mesh{}
	for r := 0; r <= rings; r++ {
		v := float64(r) / float64(rings)
		phi := v * math.Pi
		for s := 0; s <= segments; s++ {
			u := float64(s) / float64(segments)
			theta := u * 2 * math.Pi
			x := float32(math.Sin(phi) * math.Cos(theta))
			y := float32(math.Cos(phi))
			z := float32(math.Sin(phi) * math.Sin(theta))
			m.Vertices = append(m.Vertices, x, y, z, x, y, z, float32(u), float32(v))
		}
	}

	row := segments + 1
	for r := range rings {
		for s := range segments {
			a := uint16(r*row + s)
			b := uint16((r+1)*row + s)
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	m.pad()
	return m, nil
}
