package stage

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/cache"
)

// UniformsSize is the byte size of the Uniforms block shared by every
// program: two mat4x4f and a vec2f, padded to 16 bytes.
const UniformsSize = 144

// Context carries what stages need while recording one frame.
type Context struct {
	Cache    *cache.ResourceCache
	Uniforms hal.Buffer
}

func (c *Context) uniforms() cache.Entry {
	return cache.Buffer(c.Uniforms, 0, UniformsSize)
}

// bindGroup returns the group 0 bind group of p for resources, bound in
// order starting at binding 0.
func (c *Context) bindGroup(p *Pipeline, resources ...cache.Entry) (hal.BindGroup, error) {
	layout, err := c.Cache.PipelineLayout(p, 0)
	if err != nil {
		return nil, err
	}
	return c.Cache.BindGroup(&cache.BindGroupDescriptor{
		Label:   p.Label() + "_bind_group",
		Layout:  layout,
		Entries: cache.Entries(resources...),
	})
}

func (c *Context) sampler(filter gputypes.FilterMode) (cache.Entry, error) {
	s, err := c.Cache.Sampler(&hal.SamplerDescriptor{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return cache.Entry{}, err
	}
	return cache.Sampler(s), nil
}

func colorTarget(format gputypes.TextureFormat, blend *gputypes.BlendState) gputypes.ColorTargetState {
	return gputypes.ColorTargetState{Format: format, Blend: blend, WriteMask: gputypes.ColorWriteMaskAll}
}
