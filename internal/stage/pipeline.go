package stage

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/cache"
	"github.com/gogpu/fur/internal/shader"
)

// Entry point names every stage program defines.
const (
	VertexEntry   = "vp"
	FragmentEntry = "fp"
)

// PipelineDescriptor describes a render pipeline built from WGSL source.
// The layout is derived from the source.
type PipelineDescriptor struct {
	Label         string
	Source        string
	VertexBuffers []gputypes.VertexBufferLayout
	Primitive     gputypes.PrimitiveState
	DepthStencil  *hal.DepthStencilState
	Target        gputypes.ColorTargetState
}

// Pipeline is a render pipeline together with the reflection of its
// program. It implements cache.LayoutSource.
type Pipeline struct {
	device     hal.Device
	label      string
	reflection *shader.Reflection

	module         hal.ShaderModule
	groupLayouts   []hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	raw            hal.RenderPipeline
}

var _ cache.LayoutSource = (*Pipeline)(nil)

// NewPipeline reflects desc.Source, creates its bind group layouts and
// pipeline layout, and compiles the render pipeline.
func NewPipeline(device hal.Device, desc *PipelineDescriptor) (*Pipeline, error) {
	reflection, err := shader.Reflect(desc.Source)
	if err != nil {
		return nil, fmt.Errorf("stage: %s: %w", desc.Label, err)
	}
	for _, name := range []string{VertexEntry, FragmentEntry} {
		if _, ok := reflection.EntryPoints[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no %q", ErrMissingEntryPoint, desc.Label, name)
		}
	}

	p := &Pipeline{device: device, label: desc.Label, reflection: reflection}
	if err := p.create(desc); err != nil {
		p.Destroy()
		return nil, err
	}
	slogger().Info("stage: pipeline built", "label", desc.Label, "groups", reflection.GroupCount())
	return p, nil
}

func (p *Pipeline) create(desc *PipelineDescriptor) error {
	for g := range p.reflection.GroupCount() {
		layout, err := p.BindGroupLayout(g)
		if err != nil {
			return err
		}
		p.groupLayouts = append(p.groupLayouts, layout)
	}

	pipelineLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.label + "_layout",
		BindGroupLayouts: p.groupLayouts,
	})
	if err != nil {
		return fmt.Errorf("stage: create %s pipeline layout: %w", p.label, err)
	}
	p.pipelineLayout = pipelineLayout

	module, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.label + "_shader",
		Source: hal.ShaderSource{WGSL: desc.Source},
	})
	if err != nil {
		return fmt.Errorf("stage: compile %s shader: %w", p.label, err)
	}
	p.module = module

	target := desc.Target
	if target.WriteMask == 0 {
		target.WriteMask = gputypes.ColorWriteMaskAll
	}
	raw, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: p.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: FragmentEntry,
			Targets:    []gputypes.ColorTargetState{target},
		},
	})
	if err != nil {
		return fmt.Errorf("stage: create %s pipeline: %w", p.label, err)
	}
	p.raw = raw
	return nil
}

// Label returns the pipeline label.
func (p *Pipeline) Label() string { return p.label }

// Raw returns the underlying render pipeline.
func (p *Pipeline) Raw() hal.RenderPipeline { return p.raw }

// Reflection returns the reflected resource interface of the program.
func (p *Pipeline) Reflection() *shader.Reflection { return p.reflection }

// BindGroupLayout creates a new layout object for bind group index,
// compatible with the one the pipeline was built with. The caller owns
// the result.
func (p *Pipeline) BindGroupLayout(index uint32) (hal.BindGroupLayout, error) {
	if index >= p.reflection.GroupCount() {
		return nil, fmt.Errorf("%w %d of %s", cache.ErrNoLayout, index, p.label)
	}
	layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("%s_group%d", p.label, index),
		Entries: p.reflection.Groups[index],
	})
	if err != nil {
		return nil, fmt.Errorf("stage: create %s group %d layout: %w", p.label, index, err)
	}
	return layout, nil
}

// Destroy releases the pipeline and the objects it was built from.
func (p *Pipeline) Destroy() {
	if p.raw != nil {
		p.device.DestroyRenderPipeline(p.raw)
		p.raw = nil
	}
	if p.module != nil {
		p.device.DestroyShaderModule(p.module)
		p.module = nil
	}
	if p.pipelineLayout != nil {
		p.device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	for _, l := range p.groupLayouts {
		p.device.DestroyBindGroupLayout(l)
	}
	p.groupLayouts = nil
}
