package texture

import (
	"github.com/gogpu/vcompare/internal/decode"
)

// Slot holds the current Resource of one instance. It is used from the
// render goroutine only.
type Slot struct {
	label   string
	current *Resource
	gen     uint64
	reuse   bool
}

// NewSlot returns an empty slot. With reuse set, Refresh overwrites the
// current image in place when the uploader supports it and the frame size
// is unchanged, instead of creating a new image per frame.
func NewSlot(label string, reuse bool) *Slot {
	return &Slot{label: label, reuse: reuse}
}

// Current returns the resource draws must use, nil before the first Swap.
func (s *Slot) Current() *Resource { return s.current }

// Generation returns the number of swaps so far.
func (s *Slot) Generation() uint64 { return s.gen }

// Swap installs r as the current resource and then releases the previous
// image. r must be complete; the caller builds it with Upload.
func (s *Slot) Swap(r *Resource) {
	s.gen++
	r.Generation = s.gen
	prev := s.current
	s.current = r
	if prev != nil && prev.Image != r.Image {
		prev.Image.Release()
	}
}

// Refresh makes frame the current image. A failed upload leaves the
// current resource untouched.
func (s *Slot) Refresh(u Uploader, frame *decode.Frame) error {
	if s.reuse && s.current != nil &&
		s.current.Width == frame.Width && s.current.Height == frame.Height && frame.Valid() {
		if rw, ok := u.(Rewriter); ok {
			if err := rw.Rewrite(s.current.Image, frame); err != nil {
				return err
			}
			s.Swap(&Resource{Image: s.current.Image, Width: frame.Width, Height: frame.Height})
			return nil
		}
	}

	r, err := Upload(u, s.label, frame)
	if err != nil {
		return err
	}
	s.Swap(r)
	return nil
}

// Close releases the current image.
func (s *Slot) Close() {
	if s.current != nil {
		s.current.Image.Release()
		s.current = nil
	}
}
