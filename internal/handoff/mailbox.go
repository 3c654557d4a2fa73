// Package handoff moves decoded frames from background decode workers to the
// render loop.
//
// Each source gets a Mailbox: a single slot that the worker overwrites with
// every new frame and the render loop empties when it draws. Only the newest
// frame matters; a frame that is replaced before it is taken is counted as
// dropped.
package handoff

import (
	"sync"

	"github.com/gogpu/vcompare/internal/decode"
)

// Mailbox is a single-slot, overwrite-on-publish frame buffer.
//
// Thread-safety: Publish and Finish are called by one worker goroutine,
// TryTake by the render goroutine. All fields are protected by mu.
type Mailbox struct {
	mu    sync.Mutex
	frame *decode.Frame // nil = consumed
	final error         // terminal result, delivered after the last frame
	done  bool          // final has been set
	closed bool

	published        uint64
	consumed         uint64
	consecutiveDrops uint64
	totalDrops       uint64
}

// Stats is a snapshot of mailbox counters.
type Stats struct {
	Published        uint64
	Consumed         uint64
	ConsecutiveDrops uint64
	TotalDrops       uint64
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish stores f, replacing any frame not yet taken. It reports whether
// the frame replaced an untaken one, and returns ok=false once the mailbox
// is closed or finished.
func (m *Mailbox) Publish(f *decode.Frame) (dropped, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.done {
		return false, false
	}
	if m.frame != nil {
		m.consecutiveDrops++
		m.totalDrops++
		dropped = true
	}
	m.frame = f
	m.published++
	return dropped, true
}

// Finish records the terminal result of the worker. A pending frame is
// still delivered before it.
func (m *Mailbox) Finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.done {
		return
	}
	m.final = err
	m.done = true
}

// TryTake returns the pending frame without blocking. With no frame pending
// it returns the terminal error if the worker has finished, and (nil, nil)
// otherwise.
func (m *Mailbox) TryTake() (*decode.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f := m.frame; f != nil {
		m.frame = nil
		m.consumed++
		m.consecutiveDrops = 0
		return f, nil
	}
	if m.done {
		return nil, m.final
	}
	return nil, nil
}

// Close discards any pending frame; later publishes are ignored.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.frame = nil
}

// Stats returns the current counters.
func (m *Mailbox) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Published:        m.published,
		Consumed:         m.consumed,
		ConsecutiveDrops: m.consecutiveDrops,
		TotalDrops:       m.totalDrops,
	}
}
