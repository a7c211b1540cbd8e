package stage

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/cache"
	"github.com/gogpu/fur/internal/gpu"
	"github.com/gogpu/fur/internal/shader"
)

// Stage is a render stage whose pipeline can be rebuilt from source.
type Stage interface {
	// Name is the shader library name of the stage program.
	Name() string
	// Pipeline returns the current pipeline, or nil before Build.
	Pipeline() *Pipeline
	// Build compiles the stage program from lib and installs the new
	// pipeline. It returns the replaced pipeline, which the caller
	// destroys once the GPU no longer uses it. On error the current
	// pipeline stays installed.
	Build(lib *shader.Library) (previous *Pipeline, err error)
	// Destroy releases the current pipeline.
	Destroy()
}

type base struct {
	device   hal.Device
	format   gputypes.TextureFormat
	pipeline *Pipeline
}

func (b *base) Pipeline() *Pipeline { return b.pipeline }

func (b *base) build(desc *PipelineDescriptor) (*Pipeline, error) {
	p, err := NewPipeline(b.device, desc)
	if err != nil {
		return nil, err
	}
	previous := b.pipeline
	b.pipeline = p
	return previous, nil
}

func (b *base) Destroy() {
	if b.pipeline != nil {
		b.pipeline.Destroy()
		b.pipeline = nil
	}
}

func (b *base) bind(pass hal.RenderPassEncoder) error {
	if b.pipeline == nil {
		return ErrNotBuilt
	}
	pass.SetPipeline(b.pipeline.Raw())
	return nil
}

func depthState(write bool, compare gputypes.CompareFunction) *hal.DepthStencilState {
	return &hal.DepthStencilState{
		Format:            gpu.DepthFormat,
		DepthWriteEnabled: write,
		DepthCompare:      compare,
		StencilFront:      hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		StencilBack:       hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
	}
}

// Sky draws the background gradient as a fullscreen triangle at the far
// plane.
type Sky struct{ base }

// NewSky creates the sky stage for targets of the given format.
func NewSky(device hal.Device, format gputypes.TextureFormat) *Sky {
	return &Sky{base{device: device, format: format}}
}

// Name implements Stage.
func (s *Sky) Name() string { return shader.Sky }

// Build implements Stage.
func (s *Sky) Build(lib *shader.Library) (*Pipeline, error) {
	src, err := lib.Program(shader.Sky)
	if err != nil {
		return nil, err
	}
	return s.build(&PipelineDescriptor{
		Label:  "fur_sky",
		Source: src,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeBack,
		},
		DepthStencil: depthState(true, gputypes.CompareFunctionLessEqual),
		Target:       colorTarget(s.format, nil),
	})
}

// Draw records the sky into pass.
func (s *Sky) Draw(pass hal.RenderPassEncoder, ctx *Context) error {
	if err := s.bind(pass); err != nil {
		return err
	}
	group, err := ctx.bindGroup(s.pipeline, ctx.uniforms())
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, group, nil)
	pass.Draw(3, 1, 0, 0)
	return nil
}

// FXAA resolves the off-screen color target onto the presented surface
// with fast approximate anti-aliasing. When disabled the target is copied
// unfiltered.
type FXAA struct {
	base
	enabled bool
}

// NewFXAA creates the FXAA stage for a surface of the given format.
func NewFXAA(device hal.Device, format gputypes.TextureFormat, enabled bool) *FXAA {
	return &FXAA{base: base{device: device, format: format}, enabled: enabled}
}

// Name implements Stage.
func (f *FXAA) Name() string { return shader.FXAA }

// Build implements Stage.
func (f *FXAA) Build(lib *shader.Library) (*Pipeline, error) {
	src, err := lib.Program(shader.FXAA, shader.Const{Name: "FXAA_ENABLED", Value: f.enabled})
	if err != nil {
		return nil, err
	}
	return f.build(&PipelineDescriptor{
		Label:  "fur_fxaa",
		Source: src,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeBack,
		},
		Target: colorTarget(f.format, nil),
	})
}

// Draw records the resolve of source into pass.
func (f *FXAA) Draw(pass hal.RenderPassEncoder, ctx *Context, source hal.TextureView) error {
	if err := f.bind(pass); err != nil {
		return err
	}
	sampler, err := ctx.sampler(gputypes.FilterModeLinear)
	if err != nil {
		return err
	}
	group, err := ctx.bindGroup(f.pipeline,
		ctx.uniforms(),
		cache.TextureView(source),
		sampler,
	)
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, group, nil)
	pass.Draw(3, 1, 0, 0)
	return nil
}

// Overlay draws an image, typically the statistics panel, at the top-left
// corner of the surface, one texel per pixel.
type Overlay struct{ base }

// NewOverlay creates the overlay stage for a surface of the given format.
func NewOverlay(device hal.Device, format gputypes.TextureFormat) *Overlay {
	return &Overlay{base{device: device, format: format}}
}

// Name implements Stage.
func (o *Overlay) Name() string { return shader.Overlay }

// Build implements Stage.
func (o *Overlay) Build(lib *shader.Library) (*Pipeline, error) {
	src, err := lib.Program(shader.Overlay)
	if err != nil {
		return nil, err
	}
	blend := gputypes.BlendStatePremultiplied()
	return o.build(&PipelineDescriptor{
		Label:  "fur_overlay",
		Source: src,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
		},
		Target: colorTarget(o.format, &blend),
	})
}

// Draw records the overlay quad into pass. Nothing is drawn when panel is
// nil.
func (o *Overlay) Draw(pass hal.RenderPassEncoder, ctx *Context, panel hal.TextureView) error {
	if panel == nil {
		return nil
	}
	if err := o.bind(pass); err != nil {
		return err
	}
	sampler, err := ctx.sampler(gputypes.FilterModeNearest)
	if err != nil {
		return err
	}
	group, err := ctx.bindGroup(o.pipeline,
		ctx.uniforms(),
		cache.TextureView(panel),
		sampler,
	)
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, group, nil)
	pass.Draw(6, 1, 0, 0)
	return nil
}
