// Package pacing decides when each video source may admit its next frame.
//
// Every source owns a Timer holding the instant of its last accepted frame.
// A frame is due once the source's nominal frame duration has elapsed since
// then. Timers never accumulate backlog: admission resets the reference to
// the admission instant, and a pause shifts the reference forward by the
// paused length.
package pacing

import "time"

// IsDue reports whether a frame with the given nominal duration is due at
// now, given the last accepted frame at last. A non-positive nominal
// duration means the source reported no usable frame rate; such a source is
// always due.
func IsDue(last time.Time, nominal time.Duration, now time.Time) bool {
	if nominal <= 0 {
		return true
	}
	return now.Sub(last) >= nominal
}

// Timer is the playback timer of one source. The zero value is not started;
// call Start before the first Due.
type Timer struct {
	last     time.Time
	pausedAt time.Time
	paused   bool
}

// Start sets the reference instant, normally the moment the first frame
// was shown.
func (t *Timer) Start(now time.Time) {
	t.last = now
	t.paused = false
}

// Last returns the instant of the last accepted frame.
func (t *Timer) Last() time.Time { return t.last }

// Due reports whether the next frame is due. A paused timer is never due.
func (t *Timer) Due(nominal time.Duration, now time.Time) bool {
	if t.paused {
		return false
	}
	return IsDue(t.last, nominal, now)
}

// Until returns how long until the next frame is due, zero if it already is.
func (t *Timer) Until(nominal time.Duration, now time.Time) time.Duration {
	if nominal <= 0 {
		return 0
	}
	d := t.last.Add(nominal).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Accept records a frame admission at now. The reference never moves
// backwards.
func (t *Timer) Accept(now time.Time) {
	if now.After(t.last) {
		t.last = now
	}
}

// Pause freezes the timer at now. Pausing a paused timer is a no-op.
func (t *Timer) Pause(now time.Time) {
	if t.paused {
		return
	}
	t.paused = true
	t.pausedAt = now
}

// Resume restarts the timer at now. The reference is shifted forward by the
// time spent paused, so the elapsed share of the current frame interval is
// kept and nothing that would have been due during the pause fires at once.
func (t *Timer) Resume(now time.Time) {
	if !t.paused {
		return
	}
	t.paused = false
	if d := now.Sub(t.pausedAt); d > 0 {
		t.last = t.last.Add(d)
	}
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool { return t.paused }
