// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// HostedTarget draws into the surface view a window host hands out for the
// current frame. The host acquires, configures and presents the surface;
// Reconfigure only records the size the host reported.
type HostedTarget struct {
	format gputypes.TextureFormat
	view   *wgpu.TextureView
	width  int
	height int
}

// NewHostedTarget returns a target for surfaces of the given format.
func NewHostedTarget(format gputypes.TextureFormat) *HostedTarget {
	return &HostedTarget{format: format}
}

// SetFrame installs the surface view of the frame about to be drawn. view
// may be a *wgpu.TextureView or a gpucontext.TextureView handle; anything
// else, or a nil view, leaves the target without a view for this frame.
func (t *HostedTarget) SetFrame(view any, width, height int) {
	t.view = asTextureView(view)
	t.width, t.height = width, height
}

func asTextureView(v any) *wgpu.TextureView {
	switch tv := v.(type) {
	case *wgpu.TextureView:
		return tv
	case gpucontext.TextureView:
		if tv.IsNil() {
			return nil
		}
		return (*wgpu.TextureView)(tv.Pointer())
	default:
		return nil
	}
}

// Size returns the surface size in physical pixels.
func (t *HostedTarget) Size() (int, int) { return t.width, t.height }

// Reconfigure records the new size.
func (t *HostedTarget) Reconfigure(width, height int) error {
	t.width, t.height = width, height
	return nil
}

// Format returns the surface format.
func (t *HostedTarget) Format() gputypes.TextureFormat { return t.format }

// View returns the current surface view.
func (t *HostedTarget) View() (*wgpu.TextureView, error) {
	if t.view == nil {
		return nil, ErrNoView
	}
	return t.view, nil
}

// offscreenFormat is sRGB so the stored bytes match what a window shows.
const offscreenFormat = gputypes.TextureFormatRGBA8UnormSrgb

// readbackAlign is the row pitch alignment of texture to buffer copies.
const readbackAlign = 256

// OffscreenTarget renders into a texture that can be read back.
type OffscreenTarget struct {
	dev    *Device
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  int
	height int
}

// NewOffscreenTarget creates a width x height render texture.
func NewOffscreenTarget(dev *Device, width, height int) (*OffscreenTarget, error) {
	t := &OffscreenTarget{dev: dev}
	if err := t.Reconfigure(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

// Size returns the texture size.
func (t *OffscreenTarget) Size() (int, int) { return t.width, t.height }

// Format returns the texture format.
func (t *OffscreenTarget) Format() gputypes.TextureFormat { return offscreenFormat }

// View returns the render texture view.
func (t *OffscreenTarget) View() (*wgpu.TextureView, error) {
	if t.view == nil {
		return nil, ErrNoView
	}
	return t.view, nil
}

// Reconfigure replaces the render texture with one of the new size.
func (t *OffscreenTarget) Reconfigure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid offscreen size %dx%d", width, height)
	}
	tex, err := t.dev.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "offscreen",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        offscreenFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := t.dev.Device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("create offscreen view: %w", err)
	}
	t.Release()
	t.tex, t.view = tex, view
	t.width, t.height = width, height
	return nil
}

// Readback copies the last rendered image to host memory.
func (t *OffscreenTarget) Readback(ctx context.Context) (*image.RGBA, error) {
	if t.tex == nil {
		return nil, ErrNoView
	}
	rowBytes := uint32(t.width * 4)
	pitch := alignUp(rowBytes, readbackAlign)
	size := uint64(pitch) * uint64(t.height)

	staging, err := t.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := t.dev.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	encoder.CopyTextureToBuffer(t.tex, staging, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: uint32(t.height)},
		TextureBase:  wgpu.ImageCopyTexture{Texture: t.tex},
		Size: wgpu.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
	}})
	cmd, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	if _, err := t.dev.Queue.Submit(cmd); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := staging.Map(ctx, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		_ = staging.Unmap()
		return nil, fmt.Errorf("mapped range: %w", err)
	}
	img := unpackRows(rng.Bytes(), t.width, t.height, int(pitch))
	if err := staging.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap: %w", err)
	}
	return img, nil
}

// unpackRows copies pitched RGBA rows into a tightly packed image.
func unpackRows(src []byte, width, height, pitch int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src[y*pitch:y*pitch+row])
	}
	return img
}

func alignUp(n, a uint32) uint32 {
	return (n + a - 1) / a * a
}

// Release frees the render texture.
func (t *OffscreenTarget) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}
