package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed shaders/*.wgsl
var embedded embed.FS

// Stage names.
const (
	Uniforms = "uniforms"
	Sky      = "sky"
	Shell    = "shell"
	FXAA     = "fxaa"
	Overlay  = "overlay"
)

// Const is a module-scope constant injected ahead of a stage source.
// Value must be a uint32, int32, float32 or bool.
type Const struct {
	Name  string
	Value any
}

func (c Const) decl() (string, error) {
	switch v := c.Value.(type) {
	case uint32:
		return fmt.Sprintf("const %s: u32 = %du;\n", c.Name, v), nil
	case int32:
		return fmt.Sprintf("const %s: i32 = %di;\n", c.Name, v), nil
	case float32:
		return fmt.Sprintf("const %s: f32 = %s;\n", c.Name, formatFloat(v)), nil
	case bool:
		return fmt.Sprintf("const %s: bool = %t;\n", c.Name, v), nil
	default:
		return "", fmt.Errorf("shader: constant %s has unsupported type %T", c.Name, c.Value)
	}
}

func formatFloat(v float32) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Library resolves stage sources. Sources in the override directory, if
// one is set, take precedence over the embedded ones.
type Library struct {
	dir      string
	override fs.FS
}

// NewLibrary creates a library. dir may be empty to use only the embedded
// sources.
func NewLibrary(dir string) (*Library, error) {
	l := &Library{dir: dir}
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("shader: override directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("shader: override directory %s is not a directory", dir)
		}
		l.override = os.DirFS(dir)
	}
	return l, nil
}

// Dir returns the override directory, or "" when there is none.
func (l *Library) Dir() string { return l.dir }

// Source returns the WGSL source of the named stage.
func (l *Library) Source(name string) (string, error) {
	file := name + ".wgsl"
	if l.override != nil {
		b, err := fs.ReadFile(l.override, file)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("shader: read %s: %w", file, err)
		}
	}
	b, err := fs.ReadFile(embedded, path.Join("shaders", file))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	return string(b), nil
}

// Program assembles the complete source of the named stage: the Uniforms
// declaration, the constants, then the stage itself.
func (l *Library) Program(name string, consts ...Const) (string, error) {
	uniforms, err := l.Source(Uniforms)
	if err != nil {
		return "", err
	}
	stage, err := l.Source(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(uniforms)
	b.WriteString("\n")
	for _, c := range consts {
		decl, err := c.decl()
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
	}
	b.WriteString("\n")
	b.WriteString(stage)
	return b.String(), nil
}

// Stages returns the names of all embedded stage sources, excluding the
// shared Uniforms declaration.
func Stages() []string {
	entries, err := fs.ReadDir(embedded, "shaders")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".wgsl")
		if name != Uniforms {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
