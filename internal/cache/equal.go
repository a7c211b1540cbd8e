package cache

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SameBindGroup reports whether two bind group descriptors describe the
// same bind group. They must target the same layout and bind equivalent
// resources at the same binding indices. Entries are matched by binding
// index, not by position, and the label is ignored. A descriptor that
// repeats a binding index is not equivalent to any descriptor.
//
// Descriptors that target different layouts are never equivalent; callers
// are not expected to compare them and the mismatch is logged.
func SameBindGroup(a, b *BindGroupDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Layout != b.Layout {
		slogger().Debug("cache: compare", "err", ErrLayoutMismatch, "a", a.Label, "b", b.Label)
		return false
	}
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	if hasDuplicateBinding(a.Entries) || hasDuplicateBinding(b.Entries) {
		return false
	}
	for _, ea := range a.Entries {
		eb, ok := entryAt(b.Entries, ea.Binding)
		if !ok || !SameEntry(ea, eb) {
			return false
		}
	}
	return true
}

func entryAt(entries []Entry, binding uint32) (Entry, bool) {
	for _, e := range entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return Entry{}, false
}

func hasDuplicateBinding(entries []Entry) bool {
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Binding == entries[j].Binding {
				return true
			}
		}
	}
	return false
}

// SameEntry reports whether two entries bind the same resource at the same
// binding index. Resources of different kinds are never equal, and entries
// taken from different objects are never equal even when the driver gave
// both the same native handle.
func SameEntry(a, b Entry) bool {
	if a.Binding != b.Binding || a.Object != b.Object {
		return false
	}
	return sameResource(a.Resource, b.Resource)
}

func sameResource(a, b gputypes.BindingResource) bool {
	switch ra := resourceValue(a).(type) {
	case gputypes.BufferBinding:
		rb, ok := resourceValue(b).(gputypes.BufferBinding)
		return ok && ra.Buffer == rb.Buffer && ra.Offset == rb.Offset && ra.Size == rb.Size
	case gputypes.SamplerBinding:
		rb, ok := resourceValue(b).(gputypes.SamplerBinding)
		return ok && ra.Sampler == rb.Sampler
	case gputypes.TextureViewBinding:
		rb, ok := resourceValue(b).(gputypes.TextureViewBinding)
		return ok && ra.TextureView == rb.TextureView
	default:
		return false
	}
}

// resourceValue dereferences pointer variants so that &BufferBinding{...}
// and BufferBinding{...} compare alike.
func resourceValue(r gputypes.BindingResource) gputypes.BindingResource {
	switch v := r.(type) {
	case *gputypes.BufferBinding:
		if v != nil {
			return *v
		}
	case *gputypes.SamplerBinding:
		if v != nil {
			return *v
		}
	case *gputypes.TextureViewBinding:
		if v != nil {
			return *v
		}
	default:
		return r
	}
	return nil
}

// SameSampler reports whether two sampler descriptors describe the same
// sampler. The label is ignored.
func SameSampler(a, b *hal.SamplerDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return samplerKey(a) == samplerKey(b)
}

func samplerKey(desc *hal.SamplerDescriptor) hal.SamplerDescriptor {
	key := *desc
	key.Label = ""
	return key
}
