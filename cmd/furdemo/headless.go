package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur"
	"github.com/gogpu/fur/internal/config"
)

// offscreen is a texture standing in for a window surface.
type offscreen struct {
	tex  hal.Texture
	view hal.TextureView
}

func newOffscreen(device hal.Device, w, h uint32, format gputypes.TextureFormat) (*offscreen, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "furdemo_offscreen",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "furdemo_offscreen_view"})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create offscreen view: %w", err)
	}
	return &offscreen{tex: tex, view: view}, nil
}

func (o *offscreen) destroy(device hal.Device) {
	device.DestroyTextureView(o.view)
	device.DestroyTexture(o.tex)
}

// runHeadless renders cfg.Window.Frames frames into an off-screen texture
// and logs the final renderer statistics.
func runHeadless(cfg config.Config, opts []fur.Option, logger *slog.Logger) error {
	instance, err := newInstance()
	if err != nil {
		return err
	}
	defer instance.Destroy()

	gpu, err := openDevice(instance, nil, logger)
	if err != nil {
		return err
	}
	defer gpu.destroy()

	w, h := uint32(cfg.Window.Width), uint32(cfg.Window.Height)
	format := gputypes.TextureFormatRGBA8Unorm
	target, err := newOffscreen(gpu.device, w, h, format)
	if err != nil {
		return err
	}
	defer target.destroy(gpu.device)

	r, err := fur.New(gpu.device, gpu.queue, append([]fur.Option{fur.WithSurfaceFormat(format)}, opts...)...)
	if err != nil {
		return err
	}
	defer r.Destroy()

	start := time.Now()
	for i := 0; i < cfg.Window.Frames; i++ {
		if err := r.Frame(time.Now(), fur.FrameTarget{View: target.view, Width: w, Height: h}); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	if err := gpu.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	r.Poll()
	elapsed := time.Since(start)

	logStats(logger, r.Stats(), elapsed)
	return nil
}

func logStats(logger *slog.Logger, s fur.Stats, elapsed time.Duration) {
	args := []any{
		"frames", s.Frames,
		"elapsed", elapsed.Round(time.Millisecond),
		"bind_groups", s.Cache.BindGroups.Len,
		"hits", s.Cache.BindGroups.Hits,
		"misses", s.Cache.BindGroups.Misses,
		"evictions", s.Cache.BindGroups.Evictions,
		"samplers", s.Cache.Samplers.Len,
		"layouts", s.Cache.Layouts.Len,
	}
	if s.Frames > 0 && elapsed > 0 {
		args = append(args, "fps", fmt.Sprintf("%.1f", float64(s.Frames)/elapsed.Seconds()))
	}
	if s.Timing {
		args = append(args,
			"gpu_pass", s.GPUTime,
			"gpu_samples", s.GPUSamples,
			"timing_skips", s.TimingSkips)
	}
	logger.Info("furdemo: done", args...)
}
