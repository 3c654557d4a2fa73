package pacing

import (
	"sync/atomic"
	"time"
)

// State is the process-wide playback state.
type State uint32

const (
	// Playing admits frames whenever they are due.
	Playing State = iota
	// Paused keeps every instance on its current frame.
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Control holds the shared PlaybackState. It is written only by Toggle.
// The compositor latches it at tick start; async decode workers read it on
// every poll, so a toggle reaches them within one poll interval.
type Control struct {
	state atomic.Uint32
}

// NewControl returns a Control in the Playing state.
func NewControl() *Control {
	return &Control{}
}

// State returns the current playback state.
func (c *Control) State() State {
	return State(c.state.Load())
}

// Toggle sets the state to *want, or flips it when want is nil. It returns
// the previous and the new state; they are equal when a set was a no-op.
func (c *Control) Toggle(want *State) (prev, next State) {
	for {
		cur := c.state.Load()
		prev = State(cur)
		switch {
		case want != nil:
			next = *want
		case prev == Playing:
			next = Paused
		default:
			next = Playing
		}
		if c.state.CompareAndSwap(cur, uint32(next)) {
			return prev, next
		}
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading, so
// differences are immune to wall clock adjustments.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock advanced explicitly, for deterministic ticks.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock returns a clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start.UnixNano())
	return c
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}
