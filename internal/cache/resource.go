package cache

import "github.com/gogpu/wgpu/hal"

// ResourceCache bundles the bind group, sampler and layout caches a
// renderer hands to its stages.
type ResourceCache struct {
	bindGroups *BindGroupCache
	samplers   *SamplerCache
	layouts    *LayoutCache
}

// ResourceStats is a snapshot of all three caches.
type ResourceStats struct {
	BindGroups Stats
	Samplers   Stats
	Layouts    Stats
	// Retired counts evicted bind groups still waiting for the GPU.
	Retired int
}

// New creates the caches for device. lifetime is the bind group lifetime in
// frames; values below 1 select DefaultLifetime.
func New(device hal.Device, queue hal.Queue, lifetime int) (*ResourceCache, error) {
	bg, err := NewBindGroupCache(device, queue, lifetime)
	if err != nil {
		return nil, err
	}
	sc, err := NewSamplerCache(device)
	if err != nil {
		return nil, err
	}
	return &ResourceCache{
		bindGroups: bg,
		samplers:   sc,
		layouts:    NewLayoutCache(device),
	}, nil
}

// BindGroup returns a bind group equivalent to desc, creating it on a miss.
func (c *ResourceCache) BindGroup(desc *BindGroupDescriptor) (hal.BindGroup, error) {
	return c.bindGroups.GetOrCreate(desc)
}

// Sampler returns the sampler for desc, creating it on first use.
func (c *ResourceCache) Sampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	return c.samplers.GetOrCreate(desc)
}

// PipelineLayout returns the bind group layout at index of pipeline.
func (c *ResourceCache) PipelineLayout(pipeline LayoutSource, index uint32) (hal.BindGroupLayout, error) {
	return c.layouts.Get(pipeline, index)
}

// ForgetPipeline drops the memoized layouts of a replaced pipeline.
func (c *ResourceCache) ForgetPipeline(pipeline LayoutSource) {
	if n := c.layouts.Forget(pipeline); n > 0 {
		slogger().Debug("cache: pipeline layouts dropped", "count", n)
	}
}

// Tick advances the bind group eviction clock. Call it exactly once per
// frame, after the frame's batch was submitted with index submission.
func (c *ResourceCache) Tick(submission uint64) {
	c.bindGroups.Tick(submission)
}

// Stats returns a snapshot of all caches.
func (c *ResourceCache) Stats() ResourceStats {
	return ResourceStats{
		BindGroups: c.bindGroups.Stats(),
		Samplers:   c.samplers.Stats(),
		Layouts:    c.layouts.Stats(),
		Retired:    c.bindGroups.Pending(),
	}
}

// Destroy releases everything the caches own. The GPU must be idle.
func (c *ResourceCache) Destroy() {
	c.bindGroups.Destroy()
	c.samplers.Destroy()
	c.layouts.Destroy()
}
