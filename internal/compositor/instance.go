package compositor

import (
	"time"

	"github.com/gogpu/vcompare/internal/decode"
	"github.com/gogpu/vcompare/internal/handoff"
	"github.com/gogpu/vcompare/internal/layout"
	"github.com/gogpu/vcompare/internal/pacing"
	"github.com/gogpu/vcompare/internal/texture"
)

// Instance is one video on screen: its source, its current image, its
// static placement and its pacing state. The Compositor owns it.
type Instance struct {
	index     int
	source    decode.Source
	nominal   time.Duration
	slot      *texture.Slot
	timer     pacing.Timer
	placement layout.Placement
	contentY  float64
	box       *handoff.Mailbox

	frames    uint64
	frozen    bool
	frozenErr error
}

// Index returns the left-to-right position.
func (in *Instance) Index() int { return in.index }

// Path returns the source path.
func (in *Instance) Path() string { return in.source.Path() }

// Placement returns the static placement.
func (in *Instance) Placement() layout.Placement { return in.placement }

// Frames returns the number of frames admitted after the first one.
func (in *Instance) Frames() uint64 { return in.frames }

// Frozen reports whether the instance stopped updating, and the decode
// error that froze it (nil at a normal end of stream).
func (in *Instance) Frozen() (bool, error) { return in.frozen, in.frozenErr }

// Resource returns the image currently drawn.
func (in *Instance) Resource() *texture.Resource { return in.slot.Current() }
