package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DepthFormat is the format of the depth target.
const DepthFormat = gputypes.TextureFormatDepth24Plus

// TargetSet holds the off-screen color target the forward pass renders into
// and the depth target that goes with it. The color target is sampled by the
// post-process pass, so it carries TextureBinding usage as well.
type TargetSet struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
	format    gputypes.TextureFormat
	width     uint32
	height    uint32
}

// ColorView returns the color target view, or nil before the first Ensure.
func (ts *TargetSet) ColorView() hal.TextureView { return ts.colorView }

// DepthView returns the depth target view, or nil before the first Ensure.
func (ts *TargetSet) DepthView() hal.TextureView { return ts.depthView }

// Size returns the current target dimensions.
func (ts *TargetSet) Size() (width, height uint32) { return ts.width, ts.height }

// Ensure creates or recreates the targets if the requested dimensions or
// format differ from the current ones. Targets are never resized in place:
// the old textures are destroyed before the new ones are created.
// It reports whether anything was recreated.
func (ts *TargetSet) Ensure(device hal.Device, w, h uint32, format gputypes.TextureFormat) (bool, error) {
	if ts.width == w && ts.height == h && ts.format == format && ts.colorTex != nil {
		return false, nil
	}
	if w == 0 || h == 0 {
		return false, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	ts.Destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fur_render_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return false, fmt.Errorf("create render target: %w", err)
	}
	ts.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "fur_render_target_view",
	})
	if err != nil {
		ts.Destroy(device)
		return false, fmt.Errorf("create render target view: %w", err)
	}
	ts.colorView = colorView

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fur_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ts.Destroy(device)
		return false, fmt.Errorf("create depth target: %w", err)
	}
	ts.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "fur_depth_view",
	})
	if err != nil {
		ts.Destroy(device)
		return false, fmt.Errorf("create depth target view: %w", err)
	}
	ts.depthView = depthView

	ts.format = format
	ts.width = w
	ts.height = h
	slogger().Debug("gpu: render targets recreated", "width", w, "height", h, "format", format)
	return true, nil
}

// Destroy releases all texture resources and resets dimensions.
func (ts *TargetSet) Destroy(device hal.Device) {
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depthTex != nil {
		device.DestroyTexture(ts.depthTex)
		ts.depthTex = nil
	}
	if ts.colorView != nil {
		device.DestroyTextureView(ts.colorView)
		ts.colorView = nil
	}
	if ts.colorTex != nil {
		device.DestroyTexture(ts.colorTex)
		ts.colorTex = nil
	}
	ts.width = 0
	ts.height = 0
}
