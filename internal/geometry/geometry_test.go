package geometry

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `# a unit quad
mtllib quad.mtl
o Quad
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl none
s off
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	o, err := ParseOBJ("quad.obj", strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(o.Vertices) != 12 || len(o.Texcoords) != 8 || len(o.Normals) != 3 {
		t.Fatalf("counts = %d/%d/%d, want 12/8/3", len(o.Vertices), len(o.Texcoords), len(o.Normals))
	}
	if got := o.Triangles(); got != 2 {
		t.Fatalf("Triangles() = %d, want 2", got)
	}
	want := []int{
		1, 1, 1, 2, 2, 1, 3, 3, 1,
		1, 1, 1, 3, 3, 1, 4, 4, 1,
	}
	for i := range want {
		if o.Faces[i] != want[i] {
			t.Fatalf("Faces = %v, want %v", o.Faces, want)
		}
	}
}

func TestParseOBJCRLF(t *testing.T) {
	src := "v 0 0 0\r\nv 1 0 0\r\nv 0 1 0\r\nvt 0 0\r\nvn 0 0 1\r\nf 1/1/1 2/1/1 3/1/1\r\n"
	o, err := ParseOBJ("crlf.obj", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if got := o.Triangles(); got != 1 {
		t.Errorf("Triangles() = %d, want 1", got)
	}
}

func TestParseOBJPolygonFan(t *testing.T) {
	src := `o A
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1 4/1/1 5/1/1
o B
f 5/1/1 4/1/1 1/1/1
`
	o, err := ParseOBJ("fan.obj", strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if got := o.Triangles(); got != 4 {
		t.Fatalf("Triangles() = %d, want 4", got)
	}
	var positions []int
	for i := 0; i < len(o.Faces); i += 3 {
		positions = append(positions, o.Faces[i])
	}
	want := []int{1, 2, 3, 1, 3, 4, 1, 4, 5, 5, 4, 1}
	for i := range want {
		if positions[i] != want[i] {
			t.Fatalf("positions = %v, want %v", positions, want)
		}
	}
}

func TestParseOBJErrors(t *testing.T) {
	const tri = "v 0 0 0\nv 1 0 0\nv 0 1 0\n"
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bad number", "v 0 zero 0\n", "geometry: bad.obj: "},
		{"two corners", tri + "vt 0 0\nvn 0 0 1\nf 1/1/1 2/1/1\n", "geometry: bad.obj: "},
		{"bad index", tri + "vt 0 0\nvn 0 0 1\nf x/1/1 2/1/1 3/1/1\n", "geometry: bad.obj: "},
		{"missing texcoord", tri + "vn 0 0 1\nf 1//1 2//1 3//1\n", "face 1: corner 1 has no texcoord"},
		{"missing normal", tri + "vt 0 0\nf 1/1 2/1 3/1\n", "face 1: corner 1 has no normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ("bad.obj", strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("ParseOBJ() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseOBJ() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o600); err != nil {
		t.Fatal(err)
	}
	o, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if got := o.Triangles(); got != 2 {
		t.Errorf("Triangles() = %d, want 2", got)
	}
	if _, err := LoadOBJ(filepath.Join(t.TempDir(), "missing.obj")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadOBJ(missing) error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestBuildDeduplicates(t *testing.T) {
	o, err := ParseOBJ("quad.obj", strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Build(o)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if m.Count != 6 {
		t.Errorf("Count = %d, want 6", m.Count)
	}
	// 6 indices padded to 8.
	wantIdx := []uint16{0, 1, 2, 0, 2, 3, 0, 0}
	if len(m.Indices) != len(wantIdx) {
		t.Fatalf("Indices = %v, want %v", m.Indices, wantIdx)
	}
	for i := range wantIdx {
		if m.Indices[i] != wantIdx[i] {
			t.Fatalf("Indices = %v, want %v", m.Indices, wantIdx)
		}
	}

	// Vertex 2 is (1, 1, 0) with normal (0, 0, 1) and uv (1, 1).
	want := []float32{1, 1, 0, 0, 0, 1, 1, 1}
	got := m.Vertices[2*FloatsPerVertex : 3*FloatsPerVertex]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vertex 2 = %v, want %v", got, want)
		}
	}
}

func TestBuildOutOfRange(t *testing.T) {
	o := &OBJ{
		Vertices:  []float32{0, 0, 0},
		Normals:   []float32{0, 0, 1},
		Texcoords: []float32{0, 0},
		Faces:     []int{1, 1, 1, 2, 1, 1, 1, 1, 1},
	}
	if _, err := Build(o); err == nil || !strings.Contains(err.Error(), "position index 2") {
		t.Errorf("Build() error = %v, want position index error", err)
	}
}

func TestBuildTooManyVertices(t *testing.T) {
	const n = math.MaxUint16 + 2
	o := &OBJ{
		Vertices:  make([]float32, 3*n),
		Normals:   []float32{0, 0, 1},
		Texcoords: []float32{0, 0},
	}
	for v := 1; v <= n; v++ {
		o.Faces = append(o.Faces, v, 1, 1)
	}
	for len(o.Faces)%9 != 0 {
		o.Faces = append(o.Faces, 1, 1, 1)
	}
	if _, err := Build(o); !errors.Is(err, ErrTooManyVertices) {
		t.Errorf("Build() error = %v, want %v", err, ErrTooManyVertices)
	}
}

func TestSphere(t *testing.T) {
	m, err := Sphere(8, 16)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	if got, want := m.VertexCount(), 9*17; got != want {
		t.Errorf("VertexCount() = %d, want %d", got, want)
	}
	if got, want := m.Count, uint32(6*8*16); got != want {
		t.Errorf("Count = %d, want %d", got, want)
	}
	if len(m.Indices)%4 != 0 {
		t.Errorf("len(Indices) = %d, not a multiple of 4", len(m.Indices))
	}
	for i := 0; i < len(m.Vertices); i += FloatsPerVertex {
		x, y, z := m.Vertices[i], m.Vertices[i+1], m.Vertices[i+2]
		if r := math.Sqrt(float64(x*x + y*y + z*z)); math.Abs(r-1) > 1e-5 {
			t.Fatalf("vertex %d radius = %v, want 1", i/FloatsPerVertex, r)
		}
	}

	if _, err := Sphere(1, 16); err == nil {
		t.Error("Sphere(1, 16) error = nil")
	}
	if _, err := Sphere(300, 300); !errors.Is(err, ErrTooManyVertices) {
		t.Errorf("Sphere(300, 300) error = %v, want %v", err, ErrTooManyVertices)
	}
}

func TestMeshBytes(t *testing.T) {
	m := &Mesh{Vertices: []float32{1.5, -2}, Indices: []uint16{7, 0x102}}
	vb := m.VertexBytes()
	if len(vb) != 8 || math.Float32frombits(binary.LittleEndian.Uint32(vb[4:])) != -2 {
		t.Errorf("VertexBytes() = %v", vb)
	}
	ib := m.IndexBytes()
	if len(ib) != 4 || ib[2] != 0x02 || ib[3] != 0x01 {
		t.Errorf("IndexBytes() = %v", ib)
	}
}
