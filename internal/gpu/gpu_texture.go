// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ImageTexture is a sampled RGBA8 texture filled from CPU images. The
// texture is recreated whenever an upload changes the image size.
type ImageTexture struct {
	label  string
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// NewImageTexture returns an empty texture. No GPU object exists until the
// first Upload.
func NewImageTexture(label string) *ImageTexture {
	return &ImageTexture{label: label}
}

// View returns the texture view, or nil before the first Upload.
func (t *ImageTexture) View() hal.TextureView { return t.view }

// Size returns the current texture dimensions.
func (t *ImageTexture) Size() (width, height uint32) { return t.width, t.height }

// Upload writes img into the texture through queue, recreating the texture
// first if its size differs. It reports whether the texture was recreated.
func (t *ImageTexture) Upload(device hal.Device, queue hal.Queue, img *image.RGBA) (bool, error) {
	if device == nil {
		return false, ErrNilHALDevice
	}
	if queue == nil {
		return false, ErrNilHALQueue
	}
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy()) //nolint:gosec // image bounds are non-negative
	if w == 0 || h == 0 {
		return false, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}

	recreated := false
	if t.tex == nil || t.width != w || t.height != h {
		if err := t.create(device, w, h); err != nil {
			return false, err
		}
		recreated = true
	}

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	err := queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		img.Pix[img.PixOffset(b.Min.X, b.Min.Y):],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride), //nolint:gosec // stride of a valid image
			RowsPerImage: h,
		},
		&size,
	)
	if err != nil {
		return recreated, fmt.Errorf("gpu: upload %s: %w", t.label, err)
	}
	return recreated, nil
}

func (t *ImageTexture) create(device hal.Device, w, h uint32) error {
	t.Destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         t.label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create %s: %w", t.label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         t.label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("gpu: create %s view: %w", t.label, err)
	}

	t.tex, t.view = tex, view
	t.width, t.height = w, h
	slogger().Debug("gpu: image texture created", "label", t.label, "width", w, "height", h)
	return nil
}

// Destroy releases the texture. The ImageTexture may be uploaded to again.
func (t *ImageTexture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height = 0, 0
}
