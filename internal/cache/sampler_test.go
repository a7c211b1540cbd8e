package cache

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fur/internal/haltest"
)

func TestSamplerCache(t *testing.T) {
	dev := haltest.NewDevice()
	c, err := NewSamplerCache(dev)
	if err != nil {
		t.Fatalf("NewSamplerCache: %v", err)
	}

	linear := func(label string) *hal.SamplerDescriptor {
		return &hal.SamplerDescriptor{
			Label:     label,
			MagFilter: gputypes.FilterModeLinear,
			MinFilter: gputypes.FilterModeLinear,
		}
	}

	s1, err := c.GetOrCreate(linear("fxaa"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s2, _ := c.GetOrCreate(linear("other"))
	if s1 != s2 {
		t.Error("(linear, linear) created twice")
	}
	if n := dev.Calls("CreateSampler"); n != 1 {
		t.Errorf("CreateSampler calls = %d, want 1", n)
	}

	s3, _ := c.GetOrCreate(&hal.SamplerDescriptor{
		MagFilter: gputypes.FilterModeNearest,
		MinFilter: gputypes.FilterModeNearest,
	})
	if s3 == s1 {
		t.Error("nearest and linear share a sampler")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Destroy()
	if c.Len() != 0 {
		t.Errorf("Len() after Destroy = %d", c.Len())
	}
}
