// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/vcompare/internal/decode"
	"github.com/gogpu/vcompare/internal/texture"
)

// frameFormat is the format of every video image. Decoded pixels are sRGB
// encoded; sampling returns linear values.
const frameFormat = gputypes.TextureFormatRGBA8UnormSrgb

var errForeignImage = errors.New("render: image was not created by this renderer")

// Image is a sampled video texture and its view.
type Image struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  int
	height int
}

// Size returns the texture size in pixels.
func (img *Image) Size() (int, int) { return img.width, img.height }

// Release frees the view and the texture. wgpu defers the destruction until
// submitted work that uses them has completed.
func (img *Image) Release() {
	if img.view != nil {
		img.view.Release()
		img.view = nil
	}
	if img.tex != nil {
		img.tex.Release()
		img.tex = nil
	}
}

// Upload creates a texture sized to frame and queues its pixels.
func (r *Renderer) Upload(label string, frame *decode.Frame) (texture.Image, error) {
	tex, err := r.dev.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(frame.Width),
			Height:             uint32(frame.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        frameFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	if err := r.writePixels(tex, frame); err != nil {
		tex.Release()
		return nil, err
	}
	view, err := r.dev.Device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	return &Image{tex: tex, view: view, width: frame.Width, height: frame.Height}, nil
}

// Rewrite overwrites img in place with a frame of the same size.
func (r *Renderer) Rewrite(img texture.Image, frame *decode.Frame) error {
	im, ok := img.(*Image)
	if !ok || im.tex == nil {
		return errForeignImage
	}
	if im.width != frame.Width || im.height != frame.Height {
		return fmt.Errorf("render: rewrite %dx%d image with %dx%d frame", im.width, im.height, frame.Width, frame.Height)
	}
	return r.writePixels(im.tex, frame)
}

func (r *Renderer) writePixels(tex *wgpu.Texture, frame *decode.Frame) error {
	err := r.dev.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		frame.Pix,
		&wgpu.ImageDataLayout{
			BytesPerRow:  uint32(frame.Stride()),
			RowsPerImage: uint32(frame.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(frame.Width),
			Height:             uint32(frame.Height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}
