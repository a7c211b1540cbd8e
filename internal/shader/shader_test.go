package shader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

func program(t *testing.T, name string) string {
	t.Helper()
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	src, err := lib.Program(name,
		Const{Name: "SHELL_COUNT", Value: uint32(64)},
		Const{Name: "FXAA_ENABLED", Value: true},
	)
	if err != nil {
		t.Fatalf("Program(%q): %v", name, err)
	}
	return src
}

// TestProgramsCompile checks that every embedded program compiles.
func TestProgramsCompile(t *testing.T) {
	for _, name := range Stages() {
		t.Run(name, func(t *testing.T) {
			if err := Validate(program(t, name)); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestStages(t *testing.T) {
	got := strings.Join(Stages(), ",")
	if want := "fxaa,overlay,shell,sky"; got != want {
		t.Errorf("Stages() = %s, want %s", got, want)
	}
}

func TestProgramConstants(t *testing.T) {
	lib, _ := NewLibrary("")
	src, err := lib.Program(Shell,
		Const{Name: "SHELL_COUNT", Value: uint32(32)},
		Const{Name: "SCALE", Value: float32(2)},
		Const{Name: "FLIP", Value: true},
	)
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	for _, want := range []string{
		"struct Uniforms",
		"const SHELL_COUNT: u32 = 32u;",
		"const SCALE: f32 = 2.0;",
		"const FLIP: bool = true;",
		"fn vp(",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("program does not contain %q", want)
		}
	}

	if _, err := lib.Program(Shell, Const{Name: "BAD", Value: "x"}); err == nil {
		t.Error("string constant accepted")
	}
	if _, err := lib.Program("nope"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("unknown stage: err = %v, want %v", err, ErrUnknownStage)
	}
}

func TestReflectFXAA(t *testing.T) {
	r, err := Reflect(program(t, FXAA))
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if r.GroupCount() != 1 {
		t.Fatalf("GroupCount() = %d, want 1", r.GroupCount())
	}
	entries := r.Groups[0]
	if len(entries) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(entries))
	}

	uniforms, texture, sampler := entries[0], entries[1], entries[2]
	if uniforms.Buffer == nil || uniforms.Buffer.Type != gputypes.BufferBindingTypeUniform {
		t.Errorf("binding 0 = %+v, want uniform buffer", uniforms)
	} else if uniforms.Buffer.MinBindingSize != 144 {
		t.Errorf("uniform MinBindingSize = %d, want 144", uniforms.Buffer.MinBindingSize)
	}
	if uniforms.Visibility&gputypes.ShaderStageFragment == 0 {
		t.Errorf("uniform visibility = %v, want fragment", uniforms.Visibility)
	}
	if texture.Texture == nil ||
		texture.Texture.SampleType != gputypes.TextureSampleTypeFloat ||
		texture.Texture.ViewDimension != gputypes.TextureViewDimension2D {
		t.Errorf("binding 1 = %+v, want 2D float texture", texture)
	}
	if sampler.Sampler == nil || sampler.Sampler.Type != gputypes.SamplerBindingTypeFiltering {
		t.Errorf("binding 2 = %+v, want filtering sampler", sampler)
	}

	if r.EntryPoints["vp"] != gputypes.ShaderStageVertex || r.EntryPoints["fp"] != gputypes.ShaderStageFragment {
		t.Errorf("EntryPoints = %v", r.EntryPoints)
	}
}

func TestReflectShellVisibility(t *testing.T) {
	r, err := Reflect(program(t, Shell))
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	entries := r.Groups[0]
	if len(entries) != 1 {
		t.Fatalf("group 0 has %d entries, want 1", len(entries))
	}
	if entries[0].Visibility&gputypes.ShaderStageVertex == 0 {
		t.Errorf("uniform visibility = %v, want vertex", entries[0].Visibility)
	}
}

func TestReflectOverlayVertexTexture(t *testing.T) {
	r, err := Reflect(program(t, Overlay))
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	entries := r.Groups[0]
	if len(entries) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(entries))
	}
	if want := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment; entries[1].Visibility != want {
		t.Errorf("panel visibility = %v, want %v", entries[1].Visibility, want)
	}
}

func TestReflectUnusedGlobalSkipped(t *testing.T) {
	src := `
@group(0) @binding(0) var<uniform> used: vec4f;
@group(1) @binding(0) var<uniform> unused: vec4f;

@fragment
fn fp() -> @location(0) vec4f {
  return used;
}
`
	r, err := Reflect(src)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if _, ok := r.Groups[1]; ok {
		t.Error("unreferenced global produced a layout entry")
	}
	if r.GroupCount() != 1 {
		t.Errorf("GroupCount() = %d, want 1", r.GroupCount())
	}
}

func TestReflectSyntaxError(t *testing.T) {
	if _, err := Reflect("fn broken( {"); err == nil {
		t.Fatal("Reflect accepted invalid source")
	}
	if err := Validate("fn broken( {"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate: err = %v, want %v", err, ErrInvalid)
	}
}

func TestLibraryOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "// custom sky\n"
	if err := os.WriteFile(filepath.Join(dir, "sky.wgsl"), []byte(custom), 0o600); err != nil {
		t.Fatal(err)
	}

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	src, err := lib.Source(Sky)
	if err != nil || src != custom {
		t.Errorf("Source(sky) = %q, %v, want override", src, err)
	}
	// Missing overrides fall back to the embedded sources.
	src, err = lib.Source(FXAA)
	if err != nil || !strings.Contains(src, "fn fp(") {
		t.Errorf("Source(fxaa) = %q, %v, want embedded", src, err)
	}

	if _, err := NewLibrary(filepath.Join(dir, "missing")); err == nil {
		t.Error("NewLibrary accepted a missing directory")
	}
}

func TestLibraryWatch(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := lib.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "fxaa.wgsl"), []byte("// a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-changes:
		if len(batch) != 1 || batch[0] != FXAA {
			t.Errorf("batch = %v, want [fxaa]", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range changes {
	}
}

func TestWatchWithoutDirectory(t *testing.T) {
	lib, _ := NewLibrary("")
	if _, err := lib.Watch(context.Background()); err == nil {
		t.Error("Watch succeeded without an override directory")
	}
}

func TestExpandUniforms(t *testing.T) {
	got := expand(map[string]struct{}{Uniforms: {}})
	if len(got) != len(Stages()) {
		t.Errorf("expand(uniforms) = %v, want every stage", got)
	}
	got = expand(map[string]struct{}{"unknown": {}})
	if len(got) != 0 {
		t.Errorf("expand(unknown) = %v, want none", got)
	}
}
