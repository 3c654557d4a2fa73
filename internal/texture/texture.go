// Package texture owns the GPU image each video instance is drawn from.
//
// Every admitted frame becomes a new Resource. The per-instance Slot swaps
// the new resource in before it releases the old one, so a draw recorded
// after Swap only ever sees one complete generation of the image.
package texture

import (
	"errors"
	"fmt"

	"github.com/gogpu/vcompare/internal/decode"
)

// ErrInvalidFrame is returned when a frame's buffer does not match its
// declared dimensions.
var ErrInvalidFrame = errors.New("texture: invalid frame")

// Image is a GPU-visible RGBA image together with whatever the backend needs
// to sample it.
type Image interface {
	// Size returns the image dimensions in pixels.
	Size() (width, height int)
	// Release frees the image. The backend may defer the actual destruction
	// until in-flight GPU work that references it has finished.
	Release()
}

// Uploader creates images from decoded frames. Upload returns only once the
// pixel data has been queued for the GPU, so the image is complete for any
// later submission.
type Uploader interface {
	Upload(label string, frame *decode.Frame) (Image, error)
}

// Rewriter is implemented by uploaders that can overwrite an existing image
// of the same size in place.
type Rewriter interface {
	Rewrite(img Image, frame *decode.Frame) error
}

// Filter selects how texels are combined when sampling.
type Filter uint8

const (
	// Nearest picks the closest texel.
	Nearest Filter = iota
	// Linear blends neighboring texels.
	Linear
)

// Sampling is the sampler configuration used for video images.
type Sampling struct {
	ClampToEdge bool
	Mag         Filter
	Min         Filter
	Mipmap      Filter
}

// DefaultSampling clamps at the edges, magnifies linearly and minifies with
// nearest filtering. Frames refresh too often for better minification to be
// worth its cost.
func DefaultSampling() Sampling {
	return Sampling{ClampToEdge: true, Mag: Linear, Min: Nearest, Mipmap: Nearest}
}

// Resource is one generation of an instance's image.
type Resource struct {
	Image      Image
	Width      int
	Height     int
	Generation uint64
}

// Upload creates a resource for frame. The image size is checked against
// the frame, so the declared size of a Resource always matches its image.
func Upload(u Uploader, label string, frame *decode.Frame) (*Resource, error) {
	if !frame.Valid() {
		return nil, ErrInvalidFrame
	}
	img, err := u.Upload(label, frame)
	if err != nil {
		return nil, fmt.Errorf("texture: upload %s: %w", label, err)
	}
	if w, h := img.Size(); w != frame.Width || h != frame.Height {
		img.Release()
		return nil, fmt.Errorf("texture: upload %s: image is %dx%d, frame is %dx%d", label, w, h, frame.Width, frame.Height)
	}
	return &Resource{Image: img, Width: frame.Width, Height: frame.Height}, nil
}
