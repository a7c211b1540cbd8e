package cache

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// LayoutSource is a render pipeline that can produce the layout of each of
// its bind groups. Implementations must be comparable (typically a pointer).
type LayoutSource interface {
	// BindGroupLayout creates the layout for group index. Each call may
	// create a new object; LayoutCache calls it once per index.
	BindGroupLayout(index uint32) (hal.BindGroupLayout, error)
}

type layoutKey struct {
	source LayoutSource
	index  uint32
}

// LayoutCache memoizes bind group layouts per (pipeline, group index).
// Entries live until the pipeline is forgotten.
type LayoutCache struct {
	device hal.Device
	memo   *Memo[layoutKey, hal.BindGroupLayout]
}

// NewLayoutCache creates a layout cache. device releases the layouts of
// forgotten pipelines; it may be nil if Forget is never called.
func NewLayoutCache(device hal.Device) *LayoutCache {
	return &LayoutCache{device: device, memo: NewMemo[layoutKey, hal.BindGroupLayout]()}
}

// Get returns the layout of bind group index of source, asking source only
// the first time.
func (c *LayoutCache) Get(source LayoutSource, index uint32) (hal.BindGroupLayout, error) {
	return c.memo.GetOrCreate(layoutKey{source, index}, func() (hal.BindGroupLayout, error) {
		layout, err := source.BindGroupLayout(index)
		if err != nil {
			return nil, fmt.Errorf("cache: bind group layout %d: %w", index, err)
		}
		return layout, nil
	})
}

// Forget drops every layout of source, for example after the pipeline was
// rebuilt. Bind groups already created from the layouts stay valid.
func (c *LayoutCache) Forget(source LayoutSource) int {
	removed := c.memo.DeleteFunc(func(k layoutKey, _ hal.BindGroupLayout) bool {
		return k.source == source
	})
	if c.device != nil {
		for _, l := range removed {
			c.device.DestroyBindGroupLayout(l)
		}
	}
	return len(removed)
}

// Len returns the number of memoized layouts.
func (c *LayoutCache) Len() int { return c.memo.Len() }

// Stats returns cache statistics.
func (c *LayoutCache) Stats() Stats { return c.memo.Stats() }

// Destroy releases every layout.
func (c *LayoutCache) Destroy() {
	for _, l := range c.memo.Clear() {
		if c.device != nil {
			c.device.DestroyBindGroupLayout(l)
		}
	}
}
