// Package events broadcasts player lifecycle events to interested parties
// such as the logger and the metrics collector.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous: handlers
// run on the dispatcher's goroutines, never on the render loop.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers. A nil bus drops it.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case PlaybackToggled:
		event.Publish(b.dispatcher, e)
	case InstanceFrozen:
		event.Publish(b.dispatcher, e)
	case TargetReconfigured:
		event.Publish(b.dispatcher, e)
	case TickSkipped:
		event.Publish(b.dispatcher, e)
	case FrameDropped:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; its parameter type selects the events it
// receives. It returns an unsubscribe function. Unknown handler types are
// ignored.
//
// Usage: unsub := bus.Subscribe(func(e InstanceFrozen) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PlaybackToggled):
		return event.Subscribe(b.dispatcher, h)
	case func(InstanceFrozen):
		return event.Subscribe(b.dispatcher, h)
	case func(TargetReconfigured):
		return event.Subscribe(b.dispatcher, h)
	case func(TickSkipped):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameDropped):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
