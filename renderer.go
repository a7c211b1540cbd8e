package fur

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/cache"
	"github.com/gogpu/fur/internal/camera"
	"github.com/gogpu/fur/internal/geometry"
	"github.com/gogpu/fur/internal/gpu"
	"github.com/gogpu/fur/internal/shader"
	"github.com/gogpu/fur/internal/stage"
	"github.com/gogpu/fur/internal/stats"
	"github.com/gogpu/fur/internal/timing"
)

// Default procedural model.
const (
	sphereRings    = 32
	sphereSegments = 64
)

// FrameTarget is the surface texture a frame is presented to.
type FrameTarget struct {
	View   hal.TextureView
	Width  uint32
	Height uint32
}

// Stats is a snapshot of the renderer counters.
type Stats struct {
	// Frames is the number of frames submitted.
	Frames uint64
	// Cache holds the resource cache counters.
	Cache cache.ResourceStats
	// Timing reports whether GPU timing is active.
	Timing bool
	// GPUTime is the average duration of a timed pass in the last
	// completed measurement.
	GPUTime time.Duration
	// GPUSamples is the number of completed measurements.
	GPUSamples uint64
	// TimingSkips counts frames whose timestamps were not resolved
	// because the previous readback was still in flight.
	TimingSkips uint64
}

type submitted struct {
	encoder    hal.CommandEncoder
	cmd        hal.CommandBuffer
	submission uint64
}

func (s submitted) release(device hal.Device) {
	device.FreeCommandBuffer(s.cmd)
	s.encoder.Destroy()
}

// Renderer draws the fur scene. It owns every GPU object it creates and
// is driven by a single frame loop; it is not safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	opts   options

	lib        *shader.Library
	cache      *cache.ResourceCache
	instrument *timing.Instrument // nil without timestamp support
	uniforms   *gpu.Buffer
	targets    gpu.TargetSet
	panel      *gpu.ImageTexture

	sky     *stage.Sky
	shell   *stage.Shell
	fxaa    *stage.FXAA
	overlay *stage.Overlay
	model   *stage.Model

	camera *camera.Camera
	input  *camera.Input
	stats  *stats.Panel

	inflight []submitted
	frames   uint64

	destroyed bool
}

// New creates a renderer on device. Every stage pipeline is built before
// New returns.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	if device == nil {
		return nil, gpu.ErrNilHALDevice
	}
	if queue == nil {
		return nil, gpu.ErrNilHALQueue
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		device: device,
		queue:  queue,
		opts:   o,
		camera: camera.New(o.eye, o.yaw),
		input:  camera.NewInput(),
		panel:  gpu.NewImageTexture("fur_stats"),
	}
	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}
	Logger().Info("fur: renderer created",
		"format", o.format,
		"shells", o.shellCount,
		"timing", r.instrument != nil)
	return r, nil
}

// NewFromProvider creates a renderer on the device of a host that exposes
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// A host that also implements gpucontext.EventSource drives the camera,
// and its SurfaceFormat, if any, is used unless an option overrides it.
func NewFromProvider(provider any, opts ...Option) (*Renderer, error) {
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrInvalidProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrInvalidProvider, hp.HalQueue())
	}

	if fp, ok := provider.(interface {
		SurfaceFormat() gputypes.TextureFormat
	}); ok {
		if f := fp.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			opts = append([]Option{WithSurfaceFormat(f)}, opts...)
		}
	}

	r, err := New(device, queue, opts...)
	if err != nil {
		return nil, err
	}
	if src, ok := provider.(gpucontext.EventSource); ok {
		r.input.Attach(src)
	}
	return r, nil
}

func (r *Renderer) init() error {
	o := &r.opts

	lib, err := shader.NewLibrary(o.shaderDir)
	if err != nil {
		return err
	}
	r.lib = lib

	r.cache, err = cache.New(r.device, r.queue, o.lifetime)
	if err != nil {
		return err
	}

	if o.timing {
		r.instrument, err = timing.New(r.device, r.queue, o.queryPairs)
		switch {
		case errors.Is(err, hal.ErrTimestampsNotSupported):
			Logger().Info("fur: timestamp queries not supported, GPU timing disabled")
			r.instrument = nil
		case err != nil:
			return err
		}
	}

	r.uniforms, err = gpu.CreateBuffer(r.device, r.queue, &gpu.BufferDescriptor{
		Label: "fur_uniforms",
		Size:  stage.UniformsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}

	r.sky = stage.NewSky(r.device, o.format)
	r.shell = stage.NewShell(r.device, o.format, o.shellCount)
	r.fxaa = stage.NewFXAA(r.device, o.format, o.fxaa)
	r.overlay = stage.NewOverlay(r.device, o.format)
	for _, s := range r.stages() {
		if _, err := s.Build(r.lib); err != nil {
			return err
		}
	}

	mesh := o.mesh
	if mesh == nil {
		mesh, err = geometry.Sphere(sphereRings, sphereSegments)
		if err != nil {
			return err
		}
	}
	r.model, err = stage.NewModel(r.device, r.queue, mesh)
	if err != nil {
		return err
	}

	if o.stats {
		r.stats, err = stats.New()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) stages() []stage.Stage {
	return []stage.Stage{r.sky, r.shell, r.fxaa, r.overlay}
}

// Input returns the input state that drives the camera. Attach it to the
// host's event source.
func (r *Renderer) Input() *camera.Input { return r.input }

// Camera returns the scene camera.
func (r *Renderer) Camera() *camera.Camera { return r.camera }

// Frame renders and submits one frame to target. It never waits for the
// GPU.
func (r *Renderer) Frame(now time.Time, target FrameTarget) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if target.View == nil || target.Width == 0 || target.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTarget, target.Width, target.Height)
	}
	r.Poll()
	if r.stats != nil {
		r.stats.BeginFrame(now)
	}

	if err := r.resize(target.Width, target.Height); err != nil {
		return err
	}

	r.camera.Update(r.input)
	r.input.EndFrame()
	u := Uniforms{
		View:       r.camera.View(),
		Projection: camera.Projection(float32(target.Width) / float32(target.Height)),
		Width:      float32(target.Width),
		Height:     float32(target.Height),
	}
	if err := r.queue.WriteBuffer(r.uniforms.Raw(), 0, u.Bytes()); err != nil {
		return fmt.Errorf("fur: write uniforms: %w", err)
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "fur_frame"})
	if err != nil {
		return fmt.Errorf("fur: create command encoder: %w", err)
	}
	cmd, err := r.encode(encoder, target)
	if err != nil {
		encoder.DiscardEncoding()
		encoder.Destroy()
		return err
	}
	s := submitted{encoder: encoder, cmd: cmd}
	s.submission, err = r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		s.release(r.device)
		return fmt.Errorf("fur: submit: %w", err)
	}
	r.inflight = append(r.inflight, s)
	submission := s.submission

	if r.instrument != nil {
		r.instrument.Measure(submission)
	}
	r.cache.Tick(submission)
	r.frames++

	if r.stats != nil {
		if err := r.updatePanel(); err != nil {
			return err
		}
	}
	return nil
}

// resize recreates the render and depth targets when the surface size
// changed. Frames still in flight may use the old targets, so the device
// is drained first.
func (r *Renderer) resize(w, h uint32) error {
	cw, ch := r.targets.Size()
	if cw == w && ch == h {
		return nil
	}
	if r.targets.ColorView() != nil {
		if err := r.device.WaitIdle(); err != nil {
			return fmt.Errorf("fur: wait idle: %w", err)
		}
	}
	if _, err := r.targets.Ensure(r.device, w, h, r.opts.format); err != nil {
		return fmt.Errorf("fur: %w", err)
	}
	Logger().Debug("fur: targets resized", "width", w, "height", h)
	return nil
}

// timestamps reserves a timestamp pair for the next pass, or returns nil
// when timing is off or the ring is full.
func (r *Renderer) timestamps() *hal.RenderPassTimestampWrites {
	if r.instrument == nil {
		return nil
	}
	tw, err := r.instrument.Record()
	if err != nil {
		Logger().Warn("fur: pass not timed", "err", err)
		return nil
	}
	return tw
}

// encode records the three passes of a frame and the timing resolve.
func (r *Renderer) encode(encoder hal.CommandEncoder, target FrameTarget) (hal.CommandBuffer, error) {
	if err := encoder.BeginEncoding("fur_frame"); err != nil {
		return nil, fmt.Errorf("fur: begin encoding: %w", err)
	}
	ctx := &stage.Context{Cache: r.cache, Uniforms: r.uniforms.Raw()}

	err := r.pass(encoder, &hal.RenderPassDescriptor{
		Label: "fur_sky",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       r.targets.ColorView(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.opts.clearColor,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            r.targets.DepthView(),
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1,
		},
	}, func(pass hal.RenderPassEncoder) error {
		return r.sky.Draw(pass, ctx)
	})
	if err != nil {
		return nil, err
	}

	err = r.pass(encoder, &hal.RenderPassDescriptor{
		Label: "fur_shell",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    r.targets.ColorView(),
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:         r.targets.DepthView(),
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		},
	}, func(pass hal.RenderPassEncoder) error {
		return r.shell.Draw(pass, ctx, r.model)
	})
	if err != nil {
		return nil, err
	}

	err = r.pass(encoder, &hal.RenderPassDescriptor{
		Label: "fur_post",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
	}, func(pass hal.RenderPassEncoder) error {
		if err := r.fxaa.Draw(pass, ctx, r.targets.ColorView()); err != nil {
			return err
		}
		return r.overlay.Draw(pass, ctx, r.panel.View())
	})
	if err != nil {
		return nil, err
	}

	if r.instrument != nil {
		r.instrument.EndFrame(encoder)
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("fur: end encoding: %w", err)
	}
	return cmd, nil
}

// pass records one render pass. The pass is ended even when draw fails so
// the encoder stays balanced.
func (r *Renderer) pass(encoder hal.CommandEncoder, desc *hal.RenderPassDescriptor, draw func(hal.RenderPassEncoder) error) error {
	desc.TimestampWrites = r.timestamps()
	pass := encoder.BeginRenderPass(desc)
	err := draw(pass)
	pass.End()
	if err != nil {
		return fmt.Errorf("fur: %s pass: %w", desc.Label, err)
	}
	return nil
}

func (r *Renderer) updatePanel() error {
	var gpuTime time.Duration
	if r.instrument != nil {
		gpuTime = time.Duration(r.instrument.Avg())
	}
	img := r.stats.EndFrame(r.opts.clock(), gpuTime, r.instrument != nil)

	// A new size recreates the texture, which the last frame may still use.
	if w, h := r.panel.Size(); r.panel.View() != nil && (int(w) != img.Rect.Dx() || int(h) != img.Rect.Dy()) {
		if err := r.device.WaitIdle(); err != nil {
			return fmt.Errorf("fur: wait idle: %w", err)
		}
	}
	if _, err := r.panel.Upload(r.device, r.queue, img); err != nil {
		return fmt.Errorf("fur: %w", err)
	}
	return nil
}

// Poll completes a pending timing readback and releases command buffers
// the GPU has finished with. It never blocks.
func (r *Renderer) Poll() {
	if r.instrument != nil {
		r.instrument.Poll()
	}
	done := r.queue.PollCompleted()
	n := 0
	for _, s := range r.inflight {
		if s.submission <= done {
			s.release(r.device)
			continue
		}
		r.inflight[n] = s
		n++
	}
	clear(r.inflight[n:])
	r.inflight = r.inflight[:n]
}

// WatchShaders reports changed stage names while ctx is live. It requires
// WithShaderDir. Pass the names to ReloadShaders from the frame loop.
func (r *Renderer) WatchShaders(ctx context.Context) (<-chan []string, error) {
	return r.lib.Watch(ctx)
}

// ReloadShaders rebuilds the pipelines of the named stages, or of every
// stage when names is empty or contains the shared uniforms source. A
// stage whose new source fails to build keeps its current pipeline; the
// errors are joined. Bind groups made for replaced pipelines age out of
// the cache.
func (r *Renderer) ReloadShaders(names ...string) error {
	if r.destroyed {
		return ErrDestroyed
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	all := len(names) == 0 || want[shader.Uniforms]

	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("fur: wait idle: %w", err)
	}
	var errs []error
	for _, s := range r.stages() {
		if !all && !want[s.Name()] {
			continue
		}
		prev, err := s.Build(r.lib)
		if err != nil {
			Logger().Warn("fur: shader reload failed", "stage", s.Name(), "err", err)
			errs = append(errs, err)
			continue
		}
		if prev != nil {
			r.cache.ForgetPipeline(prev)
			prev.Destroy()
		}
		Logger().Info("fur: shader reloaded", "stage", s.Name())
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	s := Stats{
		Frames: r.frames,
		Cache:  r.cache.Stats(),
		Timing: r.instrument != nil,
	}
	if r.instrument != nil {
		s.GPUTime = time.Duration(r.instrument.Avg())
		s.GPUSamples = r.instrument.Samples()
		s.TimingSkips = r.instrument.Skips()
	}
	return s
}

// Destroy waits for the GPU and releases every object the renderer owns.
// Destroy is idempotent.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if err := r.device.WaitIdle(); err != nil {
		Logger().Warn("fur: wait idle on destroy", "err", err)
	}
	for _, s := range r.inflight {
		s.release(r.device)
	}
	r.inflight = nil

	// The stages are created together.
	if r.sky != nil {
		for _, s := range r.stages() {
			s.Destroy()
		}
	}
	if r.model != nil {
		r.model.Destroy()
	}
	r.panel.Destroy(r.device)
	r.targets.Destroy(r.device)
	if r.uniforms != nil {
		r.uniforms.Destroy()
	}
	if r.instrument != nil {
		r.instrument.Destroy()
	}
	if r.cache != nil {
		r.cache.Destroy()
	}
	if r.stats != nil {
		if err := r.stats.Close(); err != nil {
			Logger().Warn("fur: close stats font", "err", err)
		}
	}
}
