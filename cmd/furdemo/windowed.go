package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur"
	"github.com/gogpu/fur/internal/config"
)

// presenter owns the window surface and its configuration.
type presenter struct {
	surface hal.Surface
	device  hal.Device
	queue   hal.Queue
	config  hal.SurfaceConfiguration
	stale   bool
}

func surfaceFormat(caps *hal.SurfaceCapabilities) gputypes.TextureFormat {
	if caps == nil || len(caps.Formats) == 0 {
		return gputypes.TextureFormatBGRA8Unorm
	}
	if slices.Contains(caps.Formats, gputypes.TextureFormatBGRA8Unorm) {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return caps.Formats[0]
}

func (p *presenter) configure(w, h uint32) error {
	p.config.Width = w
	p.config.Height = h
	if err := p.surface.Configure(p.device, &p.config); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", w, h, err)
	}
	p.stale = false
	return nil
}

// acquire returns the next surface texture, or nil when the frame should
// be skipped.
func (p *presenter) acquire(w, h uint32) (*hal.AcquiredSurfaceTexture, error) {
	if p.stale || w != p.config.Width || h != p.config.Height {
		if err := p.configure(w, h); err != nil {
			return nil, err
		}
	}
	acquired, err := p.surface.AcquireTexture(nil)
	switch {
	case errors.Is(err, hal.ErrSurfaceOutdated), errors.Is(err, hal.ErrSurfaceLost):
		return nil, p.configure(w, h)
	case errors.Is(err, hal.ErrNotReady), errors.Is(err, hal.ErrTimeout):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	// A suboptimal texture is still presented; the surface is
	// reconfigured before the next acquire.
	p.stale = acquired.Suboptimal
	return acquired, nil
}

// present renders one frame into the acquired texture and presents it.
func (p *presenter) present(r *fur.Renderer, acquired *hal.AcquiredSurfaceTexture) error {
	view, err := p.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:           "furdemo_surface_view",
		Format:          p.config.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		p.surface.DiscardTexture(acquired.Texture)
		return fmt.Errorf("create surface view: %w", err)
	}
	defer p.device.DestroyTextureView(view)

	target := fur.FrameTarget{View: view, Width: p.config.Width, Height: p.config.Height}
	if err := r.Frame(time.Now(), target); err != nil {
		p.surface.DiscardTexture(acquired.Texture)
		return err
	}
	if err := p.queue.Present(p.surface, acquired.Texture, nil); err != nil {
		if errors.Is(err, hal.ErrSurfaceOutdated) {
			return p.configure(p.config.Width, p.config.Height)
		}
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// runWindowed opens a window and renders until it is closed.
func runWindowed(cfg config.Config, opts []fur.Option, logger *slog.Logger) error {
	win, err := newWindow(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.destroy()

	display, handle, err := win.nativeHandles()
	if err != nil {
		return err
	}

	instance, err := newInstance()
	if err != nil {
		return err
	}
	defer instance.Destroy()

	surface, err := instance.CreateSurface(display, handle)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	defer surface.Destroy()

	gpu, err := openDevice(instance, surface, logger)
	if err != nil {
		return err
	}
	defer gpu.destroy()

	p := &presenter{
		surface: surface,
		device:  gpu.device,
		queue:   gpu.queue,
		config: hal.SurfaceConfiguration{
			Format:      surfaceFormat(gpu.adapter.SurfaceCapabilities(surface)),
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: hal.PresentModeFifo,
			AlphaMode:   hal.CompositeAlphaModeOpaque,
		},
	}
	w, h := win.framebufferSize()
	if err := p.configure(w, h); err != nil {
		return err
	}
	defer surface.Unconfigure(gpu.device)

	r, err := fur.New(gpu.device, gpu.queue, append([]fur.Option{fur.WithSurfaceFormat(p.config.Format)}, opts...)...)
	if err != nil {
		return err
	}
	defer r.Destroy()
	r.Input().Attach(win)

	var reloads <-chan []string
	if cfg.Render.Shaders != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if reloads, err = r.WatchShaders(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	for !win.shouldClose() {
		glfw.PollEvents()

		select {
		case names, ok := <-reloads:
			if !ok {
				reloads = nil
				break
			}
			if err := r.ReloadShaders(names...); err != nil {
				logger.Warn("furdemo: shader reload failed", "stages", names, "err", err)
			}
		default:
		}

		w, h := win.framebufferSize()
		if w == 0 || h == 0 {
			// Minimized.
			glfw.WaitEvents()
			continue
		}
		acquired, err := p.acquire(w, h)
		if err != nil {
			return err
		}
		if acquired == nil {
			r.Poll()
			continue
		}
		if err := p.present(r, acquired); err != nil {
			return err
		}
	}

	if err := gpu.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	r.Poll()
	logStats(logger, r.Stats(), time.Since(start))
	return nil
}
