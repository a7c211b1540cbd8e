package cache

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fur/internal/haltest"
)

func BenchmarkMemoGetOrCreate(b *testing.B) {
	c := NewMemo[int, int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.GetOrCreate(i%100, func() (int, error) {
			return i, nil
		})
	}
}

func BenchmarkBindGroupHit(b *testing.B) {
	dev := haltest.NewDevice()
	c, _ := NewBindGroupCache(dev, nil, 1<<30)
	layout := &haltest.BindGroupLayout{}

	// A frame's worth of live groups; the requested one is last.
	for i := 0; i < 16; i++ {
		_, _ = c.GetOrCreate(&BindGroupDescriptor{
			Layout:  layout,
			Entries: Entries(raw(0, gputypes.BufferBinding{Buffer: uintptr(i + 1), Size: 144})),
		})
	}
	desc := &BindGroupDescriptor{
		Layout:  layout,
		Entries: Entries(raw(0, gputypes.BufferBinding{Buffer: 16, Size: 144})),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.GetOrCreate(desc)
	}
}

func BenchmarkSameBindGroup(b *testing.B) {
	layout := &haltest.BindGroupLayout{}
	buf := &haltest.Buffer{Handle: haltest.Handle{ID: 1}}
	view := &haltest.Handle{ID: 2}
	sampler := &haltest.Handle{ID: 3}
	x := &BindGroupDescriptor{Layout: layout, Entries: Entries(Buffer(buf, 0, 144), TextureView(view), Sampler(sampler))}
	y := &BindGroupDescriptor{Layout: layout, Entries: Entries(Buffer(buf, 0, 144), TextureView(view), Sampler(sampler))}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SameBindGroup(x, y)
	}
}
