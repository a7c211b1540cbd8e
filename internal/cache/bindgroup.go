package cache

import (
	"fmt"
	"slices"

	"github.com/gogpu/wgpu/hal"
)

// DefaultLifetime is the number of frames a bind group lives after creation.
const DefaultLifetime = 4

type bindGroupEntry struct {
	group     hal.BindGroup
	desc      BindGroupDescriptor
	remaining int
}

type retiredGroup struct {
	group hal.BindGroup
	after uint64
}

// BindGroupCache owns bind groups keyed by descriptor equivalence and
// evicts them a fixed number of frames after creation.
type BindGroupCache struct {
	device   hal.Device
	queue    hal.Queue
	lifetime int

	entries []bindGroupEntry
	retired []retiredGroup

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewBindGroupCache creates a bind group cache. queue is used to find out
// when evicted groups are no longer referenced by in-flight work; with a
// nil queue they are destroyed at eviction. A lifetime below 1 selects
// DefaultLifetime.
func NewBindGroupCache(device hal.Device, queue hal.Queue, lifetime int) (*BindGroupCache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if lifetime < 1 {
		lifetime = DefaultLifetime
	}
	return &BindGroupCache{device: device, queue: queue, lifetime: lifetime}, nil
}

// Lifetime returns the number of frames a new entry lives.
func (c *BindGroupCache) Lifetime() int { return c.lifetime }

// GetOrCreate returns a live bind group equivalent to desc, or creates one.
// A hit leaves the entry's remaining lifetime unchanged.
func (c *BindGroupCache) GetOrCreate(desc *BindGroupDescriptor) (hal.BindGroup, error) {
	if desc.Layout == nil {
		return nil, ErrNilLayout
	}
	if hasDuplicateBinding(desc.Entries) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateBinding, desc.Label)
	}
	for i := range c.entries {
		if SameBindGroup(&c.entries[i].desc, desc) {
			c.hits++
			return c.entries[i].group, nil
		}
	}

	group, err := c.device.CreateBindGroup(desc.toHAL())
	if err != nil {
		return nil, fmt.Errorf("cache: create bind group %q: %w", desc.Label, err)
	}
	c.misses++
	c.entries = append(c.entries, bindGroupEntry{group: group, desc: desc.clone(), remaining: c.lifetime})
	slogger().Debug("cache: bind group created", "label", desc.Label, "live", len(c.entries))
	return group, nil
}

// Tick advances the eviction clock by one frame. Every entry's remaining
// lifetime drops by one and entries that reach zero are removed; the order
// of the remaining entries is not preserved.
//
// submission is the index of the last batch submitted this frame. Removed
// groups are destroyed once the queue has completed it.
func (c *BindGroupCache) Tick(submission uint64) {
	for i := 0; i < len(c.entries); {
		c.entries[i].remaining--
		if c.entries[i].remaining > 0 {
			i++
			continue
		}
		c.retire(c.entries[i].group, submission)
		c.evictions++
		slogger().Debug("cache: bind group evicted", "label", c.entries[i].desc.Label)

		last := len(c.entries) - 1
		c.entries[i] = c.entries[last]
		c.entries[last] = bindGroupEntry{}
		c.entries = c.entries[:last]
		// The swapped-in entry at i has not been ticked yet.
	}
	c.collect()
}

func (c *BindGroupCache) retire(group hal.BindGroup, after uint64) {
	if c.queue == nil {
		c.device.DestroyBindGroup(group)
		return
	}
	c.retired = append(c.retired, retiredGroup{group: group, after: after})
}

// collect destroys retired groups whose batch has completed.
func (c *BindGroupCache) collect() {
	if len(c.retired) == 0 {
		return
	}
	completed := c.queue.PollCompleted()
	c.retired = slices.DeleteFunc(c.retired, func(r retiredGroup) bool {
		if r.after > completed {
			return false
		}
		c.device.DestroyBindGroup(r.group)
		return true
	})
}

// Len returns the number of live entries.
func (c *BindGroupCache) Len() int { return len(c.entries) }

// Pending returns the number of evicted groups not yet destroyed.
func (c *BindGroupCache) Pending() int { return len(c.retired) }

// Contains reports whether group is a live entry.
func (c *BindGroupCache) Contains(group hal.BindGroup) bool {
	for i := range c.entries {
		if c.entries[i].group == group {
			return true
		}
	}
	return false
}

// Stats returns cache statistics.
func (c *BindGroupCache) Stats() Stats {
	return Stats{Len: len(c.entries), Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}

// Destroy releases every live and retired bind group. The caller must make
// sure the GPU is idle.
func (c *BindGroupCache) Destroy() {
	for _, e := range c.entries {
		c.device.DestroyBindGroup(e.group)
	}
	for _, r := range c.retired {
		c.device.DestroyBindGroup(r.group)
	}
	c.entries = nil
	c.retired = nil
}
