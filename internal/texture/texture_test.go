package texture

import (
	"errors"
	"testing"

	"github.com/gogpu/vcompare/internal/decode"
)

type fakeImage struct {
	w, h     int
	released bool
	writes   int
}

func (f *fakeImage) Size() (int, int) { return f.w, f.h }
func (f *fakeImage) Release()         { f.released = true }

type fakeUploader struct {
	images  []*fakeImage
	fail    error
	badSize bool
}

func (u *fakeUploader) Upload(_ string, frame *decode.Frame) (Image, error) {
	if u.fail != nil {
		return nil, u.fail
	}
	img := &fakeImage{w: frame.Width, h: frame.Height}
	if u.badSize {
		img.w++
	}
	u.images = append(u.images, img)
	return img, nil
}

type rewritingUploader struct {
	fakeUploader
}

func (u *rewritingUploader) Rewrite(img Image, _ *decode.Frame) error {
	img.(*fakeImage).writes++
	return nil
}

func frame(w, h int) *decode.Frame {
	return &decode.Frame{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

func TestUploadChecksFrame(t *testing.T) {
	u := &fakeUploader{}
	if _, err := Upload(u, "v", &decode.Frame{Width: 2, Height: 2, Pix: make([]byte, 3)}); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Upload(short buffer) error = %v, want ErrInvalidFrame", err)
	}
	if _, err := Upload(u, "v", nil); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Upload(nil) error = %v, want ErrInvalidFrame", err)
	}

	u.badSize = true
	if _, err := Upload(u, "v", frame(4, 4)); err == nil {
		t.Error("Upload accepted an image whose size differs from the frame")
	}
	if !u.images[0].released {
		t.Error("mismatched image was not released")
	}
}

func TestSlotSwapReleasesPreviousAfterInstall(t *testing.T) {
	u := &fakeUploader{}
	s := NewSlot("video 0", false)

	if err := s.Refresh(u, frame(4, 2)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	first := s.Current()
	if first.Generation != 1 || first.Width != 4 || first.Height != 2 {
		t.Fatalf("first resource = %+v", first)
	}

	if err := s.Refresh(u, frame(8, 6)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	second := s.Current()
	if second.Generation != 2 {
		t.Errorf("generation = %d, want 2", second.Generation)
	}
	if !u.images[0].released {
		t.Error("previous image not released after swap")
	}
	if u.images[1].released {
		t.Error("current image released")
	}

	s.Close()
	if !u.images[1].released || s.Current() != nil {
		t.Error("Close() did not release the current image")
	}
}

func TestSlotFailedUploadKeepsCurrent(t *testing.T) {
	u := &fakeUploader{}
	s := NewSlot("video 0", false)
	if err := s.Refresh(u, frame(2, 2)); err != nil {
		t.Fatal(err)
	}
	before := s.Current()

	u.fail = errors.New("out of memory")
	if err := s.Refresh(u, frame(2, 2)); err == nil {
		t.Fatal("Refresh() succeeded with failing uploader")
	}
	if s.Current() != before || u.images[0].released {
		t.Error("failed refresh disturbed the current resource")
	}
}

// TestSwapNeverExposesMismatchedImage alternates resolutions and checks that
// what a draw would bind always agrees with the declared size and is alive.
func TestSwapNeverExposesMismatchedImage(t *testing.T) {
	u := &fakeUploader{}
	s := NewSlot("video 0", false)
	sizes := [][2]int{{4, 2}, {8, 8}, {3, 7}, {4, 2}, {16, 9}}

	for i := 0; i < 50; i++ {
		sz := sizes[i%len(sizes)]
		if err := s.Refresh(u, frame(sz[0], sz[1])); err != nil {
			t.Fatal(err)
		}
		r := s.Current()
		img := r.Image.(*fakeImage)
		if w, h := img.Size(); w != r.Width || h != r.Height {
			t.Fatalf("tick %d: bound image %dx%d, declared %dx%d", i, w, h, r.Width, r.Height)
		}
		if img.released {
			t.Fatalf("tick %d: bound image already released", i)
		}
	}
	live := 0
	for _, img := range u.images {
		if !img.released {
			live++
		}
	}
	if live != 1 {
		t.Errorf("%d live images, want exactly 1", live)
	}
}

func TestSlotReuseRewritesInPlace(t *testing.T) {
	u := &rewritingUploader{}
	s := NewSlot("video 0", true)

	for i := 0; i < 3; i++ {
		if err := s.Refresh(u, frame(4, 4)); err != nil {
			t.Fatal(err)
		}
	}
	if len(u.images) != 1 {
		t.Fatalf("created %d images for a stable resolution, want 1", len(u.images))
	}
	if u.images[0].writes != 2 || u.images[0].released {
		t.Errorf("image writes=%d released=%v, want 2 rewrites and alive", u.images[0].writes, u.images[0].released)
	}
	if s.Generation() != 3 {
		t.Errorf("generation = %d, want 3", s.Generation())
	}

	if err := s.Refresh(u, frame(8, 4)); err != nil {
		t.Fatal(err)
	}
	if len(u.images) != 2 || !u.images[0].released {
		t.Error("resolution change did not reallocate and release the old image")
	}
}

func TestDefaultSampling(t *testing.T) {
	s := DefaultSampling()
	if !s.ClampToEdge || s.Mag != Linear || s.Min != Nearest || s.Mipmap != Nearest {
		t.Errorf("DefaultSampling() = %+v", s)
	}
}
