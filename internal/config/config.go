// Package config loads the settings of the fur demo binary from a TOML
// file and turns them into renderer options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/fur"
	"github.com/gogpu/fur/internal/geometry"
)

// Errors returned by Validate.
var (
	ErrInvalidSize   = errors.New("config: window size must be positive")
	ErrInvalidFrames = errors.New("config: frame count must be positive in headless mode")
	ErrInvalidColor  = errors.New("config: clear color components must be in [0, 1]")
)

// Config is the demo configuration. Zero values in a file keep the
// defaults; flags set on the command line override both.
type Config struct {
	Window Window `toml:"window"`
	Render Render `toml:"render"`
	Camera Camera `toml:"camera"`
	Log    Log    `toml:"log"`
}

// Window holds the window settings.
type Window struct {
	Title    string `toml:"title"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Headless bool   `toml:"headless"`
	// Frames is the number of frames rendered in headless mode.
	Frames int `toml:"frames"`
}

// Render holds the renderer settings.
type Render struct {
	Shells     uint32     `toml:"shells"`
	Lifetime   int        `toml:"lifetime"`
	QueryPairs uint32     `toml:"query_pairs"`
	Timing     bool       `toml:"timing"`
	FXAA       bool       `toml:"fxaa"`
	Stats      bool       `toml:"stats"`
	ClearColor [4]float64 `toml:"clear_color"`
	// Model is an OBJ file drawn instead of the procedural sphere.
	Model string `toml:"model"`
	// Shaders is a directory of WGSL overrides, watched for changes.
	Shaders string `toml:"shaders"`
}

// Camera holds the starting camera pose.
type Camera struct {
	Position [3]float32 `toml:"position"`
	Yaw      float32    `toml:"yaw"`
}

// Log holds the log output settings.
type Log struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
	Caller bool   `toml:"caller"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "fur",
			Width:  1280,
			Height: 720,
			Frames: 120,
		},
		Render: Render{
			Shells:     64,
			Lifetime:   4,
			QueryPairs: 64,
			Timing:     true,
			FXAA:       true,
			Stats:      true,
			ClearColor: [4]float64{0, 0, 0, 1},
		},
		Camera: Camera{
			Position: fur.DefaultEye,
			Yaw:      fur.DefaultYaw,
		},
		Log: Log{
			Level:  "info",
			Prefix: "fur",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config: %s: %s", path, strings.TrimSpace(strict.String()))
		}
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values Load and the flags cannot reject.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Window.Width, c.Window.Height)
	}
	if c.Window.Headless && c.Window.Frames <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrames, c.Window.Frames)
	}
	for _, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidColor, c.Render.ClearColor)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Options converts the render and camera settings to renderer options.
// The model file, if any, is loaded here.
func (c *Config) Options() ([]fur.Option, error) {
	r := c.Render
	opts := []fur.Option{
		fur.WithShellCount(r.Shells),
		fur.WithCacheLifetime(r.Lifetime),
		fur.WithQueryPairs(r.QueryPairs),
		fur.WithTiming(r.Timing),
		fur.WithFXAA(r.FXAA),
		fur.WithStats(r.Stats),
		fur.WithClearColor(gputypes.Color{
			R: r.ClearColor[0],
			G: r.ClearColor[1],
			B: r.ClearColor[2],
			A: r.ClearColor[3],
		}),
		fur.WithCamera(mgl32.Vec3(c.Camera.Position), c.Camera.Yaw),
	}
	if r.Shaders != "" {
		opts = append(opts, fur.WithShaderDir(r.Shaders))
	}
	if r.Model != "" {
		obj, err := geometry.LoadOBJ(r.Model)
		if err != nil {
			return nil, err
		}
		mesh, err := geometry.Build(obj)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fur.WithMesh(mesh))
	}
	return opts, nil
}
