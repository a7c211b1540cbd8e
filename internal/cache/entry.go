package cache

import (
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BindGroupDescriptor describes a cached bind group. It mirrors
// hal.BindGroupDescriptor but keeps the objects behind each binding.
type BindGroupDescriptor struct {
	Label   string
	Layout  hal.BindGroupLayout
	Entries []Entry
}

// Entry binds one resource. Resource is what the device receives; Object
// is the hal.Buffer, hal.TextureView or hal.Sampler it was taken from.
//
// Drivers reuse the native handle of a destroyed object, so the cache
// matches entries on Object as well. Entries without an object match on
// the native handle alone.
type Entry struct {
	Binding  uint32
	Resource gputypes.BindingResource
	Object   any
}

// Buffer binds size bytes of b starting at offset.
func Buffer(b hal.Buffer, offset, size uint64) Entry {
	return Entry{
		Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Offset: offset, Size: size},
		Object:   b,
	}
}

// TextureView binds v.
func TextureView(v hal.TextureView) Entry {
	return Entry{Resource: gputypes.TextureViewBinding{TextureView: v.NativeHandle()}, Object: v}
}

// Sampler binds s.
func Sampler(s hal.Sampler) Entry {
	return Entry{Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()}, Object: s}
}

// Entries numbers entries by position, starting at binding 0.
func Entries(entries ...Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Binding = uint32(i)
		out[i] = e
	}
	return out
}

func (d *BindGroupDescriptor) clone() BindGroupDescriptor {
	return BindGroupDescriptor{Label: d.Label, Layout: d.Layout, Entries: slices.Clone(d.Entries)}
}

func (d *BindGroupDescriptor) toHAL() *hal.BindGroupDescriptor {
	entries := make([]gputypes.BindGroupEntry, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = gputypes.BindGroupEntry{Binding: e.Binding, Resource: e.Resource}
	}
	return &hal.BindGroupDescriptor{Label: d.Label, Layout: d.Layout, Entries: entries}
}
