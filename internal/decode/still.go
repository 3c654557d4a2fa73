package decode

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Still image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// stillExts lists the extensions OpenAny routes to OpenStill.
var stillExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsStill reports whether path names a still image format.
func IsStill(path string) bool {
	return stillExts[strings.ToLower(filepath.Ext(path))]
}

// Still is a source that shows one image: the first NextFrame returns it,
// every later call returns ErrEndOfStream.
type Still struct {
	path   string
	frame  *Frame
	served bool
	closed bool
}

// OpenStill decodes the image at path into an RGBA frame.
func OpenStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "decode", Err: err}
	}
	frame := toFrame(img)
	if !frame.Valid() {
		return nil, &DecodeError{Path: path, Op: "decode", Err: fmt.Errorf("empty %s image", format)}
	}
	return &Still{path: path, frame: frame}, nil
}

// toFrame converts any image to a tightly packed RGBA frame.
func toFrame(img image.Image) *Frame {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Frame{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Path returns the image path.
func (s *Still) Path() string { return s.path }

// Info describes the image as a stream with no frame rate.
func (s *Still) Info() StreamInfo {
	return StreamInfo{Width: s.frame.Width, Height: s.frame.Height}
}

// NextFrame returns the image once.
func (s *Still) NextFrame() (*Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.served {
		return nil, ErrEndOfStream
	}
	s.served = true
	return s.frame, nil
}

// Close drops the image.
func (s *Still) Close() error {
	s.closed = true
	s.frame = &Frame{Width: s.frame.Width, Height: s.frame.Height}
	return nil
}

// OpenAny opens path as a still image when its extension names an image
// format and as a video otherwise.
func OpenAny(ctx context.Context, path string, opts ...Option) (Source, error) {
	if IsStill(path) {
		return OpenStill(path)
	}
	return Open(ctx, path, opts...)
}
