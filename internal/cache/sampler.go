package cache

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// SamplerCache creates one sampler per distinct descriptor. Samplers are
// never evicted.
type SamplerCache struct {
	device hal.Device
	memo   *Memo[hal.SamplerDescriptor, hal.Sampler]
}

// NewSamplerCache creates a sampler cache on device.
func NewSamplerCache(device hal.Device) (*SamplerCache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &SamplerCache{device: device, memo: NewMemo[hal.SamplerDescriptor, hal.Sampler]()}, nil
}

// GetOrCreate returns the sampler for desc, creating it on first use.
// Descriptors that differ only in their label share a sampler.
func (c *SamplerCache) GetOrCreate(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	return c.memo.GetOrCreate(samplerKey(desc), func() (hal.Sampler, error) {
		s, err := c.device.CreateSampler(desc)
		if err != nil {
			return nil, fmt.Errorf("cache: create sampler %q: %w", desc.Label, err)
		}
		slogger().Debug("cache: sampler created", "label", desc.Label,
			"mag", desc.MagFilter, "min", desc.MinFilter)
		return s, nil
	})
}

// Len returns the number of samplers.
func (c *SamplerCache) Len() int { return c.memo.Len() }

// Stats returns cache statistics.
func (c *SamplerCache) Stats() Stats { return c.memo.Stats() }

// Destroy releases every sampler.
func (c *SamplerCache) Destroy() {
	for _, s := range c.memo.Clear() {
		c.device.DestroySampler(s)
	}
}
