package geometry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/g3n/engine/loader/obj"
)

// OBJ is the geometry of a Wavefront OBJ file. Faces holds 1-based
// (v, vt, vn) index triples, three per triangle corner.
type OBJ struct {
	Vertices  []float32
	Normals   []float32
	Texcoords []float32
	Faces     []int
}

// Triangles returns the number of triangles in o.
func (o *OBJ) Triangles() int { return len(o.Faces) / 9 }

// LoadOBJ reads and parses the OBJ file at path.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	defer f.Close()
	return ParseOBJ(path, f)
}

// ParseOBJ parses OBJ text from r. name is used in error messages.
// Polygons are split into triangle fans around their first corner, so a
// quad becomes the triangles 0-1-2 and 0-2-3. Every corner needs a texture
// coordinate and a normal. Materials are ignored.
func ParseOBJ(name string, r io.Reader) (*OBJ, error) {
	dec, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("geometry: %s: %w", name, err)
	}
	for _, w := range dec.Warnings {
		slogger().Warn("geometry: obj", "file", name, "warning", w)
	}

	out := &OBJ{
		Vertices:  []float32(dec.Vertices),
		Normals:   []float32(dec.Normals),
		Texcoords: []float32(dec.Uvs),
	}
	for _, o := range dec.Objects {
		for n, face := range o.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, c := range [3]int{0, i - 1, i} {
					if err := out.corner(face, c); err != nil {
						return nil, fmt.Errorf("geometry: %s: object %q face %d: %w", name, o.Name, n+1, err)
					}
				}
			}
		}
	}
	slogger().Debug("geometry: obj parsed", "file", name, "objects", len(dec.Objects), "triangles", out.Triangles())
	return out, nil
}

// corner appends corner c of face. The decoder reports 0-based indices and
// marks missing ones negative.
func (o *OBJ) corner(face obj.Face, c int) error {
	if c >= len(face.Uvs) || face.Uvs[c] < 0 {
		return fmt.Errorf("corner %d has no texcoord", c+1)
	}
	if c >= len(face.Normals) || face.Normals[c] < 0 {
		return fmt.Errorf("corner %d has no normal", c+1)
	}
	o.Faces = append(o.Faces, face.Vertices[c]+1, face.Uvs[c]+1, face.Normals[c]+1)
	return nil
}
