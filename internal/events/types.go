package events

import (
	"time"

	"github.com/gogpu/vcompare/internal/pacing"
)

// Event type constants for kelindar/event.
const (
	TypePlaybackToggled uint32 = iota + 1
	TypeInstanceFrozen
	TypeTargetReconfigured
	TypeTickSkipped
	TypeFrameDropped
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PlaybackToggled is published when the shared playback state changes.
type PlaybackToggled struct {
	From pacing.State
	To   pacing.State
	At   time.Time
}

// Type returns the event type identifier for PlaybackToggled.
func (e PlaybackToggled) Type() uint32 { return TypePlaybackToggled }

// InstanceFrozen is published when an instance stops updating, either at
// the end of its stream or after an isolated decode failure.
type InstanceFrozen struct {
	Index int
	Path  string
	// Err is nil for a normal end of stream.
	Err error
	// Frames is the number of frames the instance admitted.
	Frames uint64
}

// Type returns the event type identifier for InstanceFrozen.
func (e InstanceFrozen) Type() uint32 { return TypeInstanceFrozen }

// TargetReconfigured is published when the render target is rebuilt after
// a resize or a transient loss.
type TargetReconfigured struct {
	Width  int
	Height int
	Reason string
}

// Type returns the event type identifier for TargetReconfigured.
func (e TargetReconfigured) Type() uint32 { return TypeTargetReconfigured }

// TickSkipped is published when a tick's draw failed without ending the
// session.
type TickSkipped struct {
	Kind string
	Err  error
}

// Type returns the event type identifier for TickSkipped.
func (e TickSkipped) Type() uint32 { return TypeTickSkipped }

// FrameDropped is published when an async decode worker overwrote a frame
// the render loop never took.
type FrameDropped struct {
	Index int
	Path  string
}

// Type returns the event type identifier for FrameDropped.
func (e FrameDropped) Type() uint32 { return TypeFrameDropped }
