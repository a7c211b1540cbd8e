// Command furdemo renders a shell-textured fur model, either in a window
// with a fly camera or off-screen for a fixed number of frames.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/fur"
	"github.com/gogpu/fur/internal/config"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	def := config.Default()
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		width      = flag.Int("width", def.Window.Width, "window width")
		height     = flag.Int("height", def.Window.Height, "window height")
		model      = flag.String("model", "", "OBJ model (default: procedural sphere)")
		shaders    = flag.String("shaders", "", "directory of WGSL overrides, reloaded on change")
		frames     = flag.Int("frames", def.Window.Frames, "frames to render in headless mode")
		headless   = flag.Bool("headless", false, "render off-screen without a window")
		logLevel   = flag.String("log-level", def.Log.Level, "log level: debug, info, warn, error")
		stats      = flag.Bool("stats", def.Render.Stats, "draw the statistics overlay")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "model":
			cfg.Render.Model = *model
		case "shaders":
			cfg.Render.Shaders = *shaders
		case "frames":
			cfg.Window.Frames = *frames
		case "headless":
			cfg.Window.Headless = *headless
		case "log-level":
			cfg.Log.Level = *logLevel
		case "stats":
			cfg.Render.Stats = *stats
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	fur.SetLogger(logger)

	opts, err := cfg.Options()
	if err != nil {
		fatal(logger, "failed to prepare renderer", err)
	}

	if cfg.Window.Headless {
		err = runHeadless(cfg, opts, logger)
	} else {
		err = runWindowed(cfg, opts, logger)
	}
	if err != nil {
		fatal(logger, "furdemo failed", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
