// Package compositor runs the render loop that draws every video instance
// into one target.
//
// Each Tick:
//  1. while playing, every instance whose pacer says it is due pulls a frame
//     from its source and swaps it into its texture slot;
//  2. the window aspect correction is recomputed and composed with every
//     static placement;
//  3. the backend draws the shared quad once per instance in one pass.
//
// By default decoding happens inside Tick, so a slow source delays the
// whole frame. With Config.Async each source decodes on its own goroutine
// and Tick only picks up the newest finished frame.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/vcompare"
	"github.com/gogpu/vcompare/internal/decode"
	"github.com/gogpu/vcompare/internal/events"
	"github.com/gogpu/vcompare/internal/handoff"
	"github.com/gogpu/vcompare/internal/layout"
	"github.com/gogpu/vcompare/internal/pacing"
	"github.com/gogpu/vcompare/internal/texture"
)

// ErrNoSources is returned by New when given nothing to play.
var ErrNoSources = errors.New("compositor: no sources")

// Config selects compositor policies.
type Config struct {
	// StrictDecode makes any decode failure other than end of stream fatal
	// for the session. By default the failing instance is frozen on its
	// last frame and the others keep playing.
	StrictDecode bool
	// Async decodes each source on its own goroutine.
	Async bool
	// ReuseTextures overwrites an instance's image in place while the frame
	// size is stable.
	ReuseTextures bool
	// PreserveAspect keeps each source's own aspect ratio inside its cell.
	PreserveAspect bool
}

// Metrics receives hot-path measurements.
type Metrics interface {
	FrameAdmitted(instance int)
	TickObserved(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) FrameAdmitted(int)          {}
func (nopMetrics) TickObserved(time.Duration) {}

// Option configures a Compositor.
type Option func(*Compositor)

// WithClock sets the time source. Default: the system clock.
func WithClock(c pacing.Clock) Option {
	return func(co *Compositor) { co.clock = c }
}

// WithControl shares a playback state. Default: a new Control.
func WithControl(c *pacing.Control) Option {
	return func(co *Compositor) { co.control = c }
}

// WithBus publishes lifecycle events to bus.
func WithBus(bus *events.Bus) Option {
	return func(co *Compositor) { co.bus = bus }
}

// WithMetrics records measurements into m.
func WithMetrics(m Metrics) Option {
	return func(co *Compositor) { co.metrics = m }
}

// Compositor owns the video instances and drives them tick by tick.
// Tick, Resize and Close must be called from the render goroutine; Toggle
// may be called from any goroutine.
type Compositor struct {
	cfg     Config
	backend Backend
	clock   pacing.Clock
	control *pacing.Control
	bus     *events.Bus
	metrics Metrics

	instances []*Instance
	applied   pacing.State // playback state the timers were last synced to
	workers   *handoff.Group
	draws     []Draw
	closed    bool
}

// New builds one instance per source, in left-to-right order. The first
// frame of every source is decoded and uploaded before New returns, so the
// first Tick already has something to draw. Any failure is a startup error;
// images created so far are released, while closing the sources stays with
// the caller.
func New(sources []decode.Source, backend Backend, cfg Config, opts ...Option) (*Compositor, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	c := &Compositor{
		cfg:     cfg,
		backend: backend,
		clock:   pacing.SystemClock{},
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.control == nil {
		c.control = pacing.NewControl()
	}
	c.applied = c.control.State()

	placements := layout.Layout(len(sources))
	c.instances = make([]*Instance, 0, len(sources))
	for i, src := range sources {
		in := &Instance{
			index:     i,
			source:    src,
			nominal:   src.Info().FrameDuration,
			slot:      texture.NewSlot(fmt.Sprintf("video %d", i), cfg.ReuseTextures),
			placement: placements[i],
			contentY:  1,
		}
		f, err := src.NextFrame()
		if err == nil {
			err = in.slot.Refresh(backend, f)
		}
		if err != nil {
			c.releaseSlots()
			return nil, fmt.Errorf("compositor: first frame of %s: %w", src.Path(), err)
		}
		if cfg.PreserveAspect {
			in.contentY = layout.ContentScale(f.Width, f.Height)
		}
		c.instances = append(c.instances, in)
	}

	now := c.clock.Now()
	for _, in := range c.instances {
		in.timer.Start(now)
		if c.applied == pacing.Paused {
			in.timer.Pause(now)
		}
	}
	if cfg.Async {
		c.startWorkers(now)
	}

	vcompare.ModuleLogger("compositor").Info("compositor ready",
		"instances", len(c.instances),
		"async", cfg.Async,
		"strict_decode", cfg.StrictDecode)
	return c, nil
}

func (c *Compositor) startWorkers(now time.Time) {
	workers := make([]*handoff.Worker, len(c.instances))
	for i, in := range c.instances {
		in.box = handoff.NewMailbox()
		idx, path := in.index, in.Path()
		workers[i] = &handoff.Worker{
			Source:  in.source,
			Box:     in.box,
			Control: c.control,
			Clock:   c.clock,
			Start:   now,
			OnDrop: func() {
				c.bus.Publish(events.FrameDropped{Index: idx, Path: path})
			},
		}
	}
	c.workers = handoff.Start(context.Background(), workers)
}

// Instances returns the instances in left-to-right order.
func (c *Compositor) Instances() []*Instance { return c.instances }

// State returns the current playback state.
func (c *Compositor) State() pacing.State { return c.control.State() }

// Toggle sets the playback state to *want, or flips it when want is nil.
// Timers pick up the change at the start of the next tick.
func (c *Compositor) Toggle(want *pacing.State) pacing.State {
	prev, next := c.control.Toggle(want)
	if prev != next {
		vcompare.ModuleLogger("compositor").Info("playback toggled", "state", next.String())
		c.bus.Publish(events.PlaybackToggled{From: prev, To: next, At: c.clock.Now()})
	}
	return next
}

// Tick advances and draws one frame. It returns a *FatalError when the
// session must end; every other problem is handled inside the tick.
func (c *Compositor) Tick(target Target) error {
	start := c.clock.Now()
	defer func() { c.metrics.TickObserved(c.clock.Now().Sub(start)) }()

	state := c.control.State()
	c.syncTimers(state, start)
	if state == pacing.Playing {
		for _, in := range c.instances {
			if err := c.advance(in, start); err != nil {
				return err
			}
		}
	}

	w, h := target.Size()
	aspect := layout.AspectCorrection(w, h)
	c.draws = c.draws[:0]
	for _, in := range c.instances {
		c.draws = append(c.draws, Draw{
			Index:     in.index,
			Resource:  in.slot.Current(),
			Transform: layout.Compose(in.placement, aspect, in.contentY),
		})
	}

	if err := c.backend.Render(target, c.draws); err != nil {
		return c.handleTargetError(target, "render", err)
	}
	return nil
}

// syncTimers applies a playback change to the sync-mode timers. Paused
// time is excluded from every timer so resuming never releases a burst of
// overdue frames.
func (c *Compositor) syncTimers(state pacing.State, now time.Time) {
	if state == c.applied {
		return
	}
	c.applied = state
	for _, in := range c.instances {
		if state == pacing.Paused {
			in.timer.Pause(now)
		} else {
			in.timer.Resume(now)
		}
	}
}

// advance admits the next frame of one instance when it is due.
func (c *Compositor) advance(in *Instance, now time.Time) error {
	if in.frozen {
		return nil
	}

	var (
		f   *decode.Frame
		err error
	)
	if in.box != nil {
		f, err = in.box.TryTake()
		if err == nil && f == nil {
			return nil
		}
	} else {
		if !in.timer.Due(in.nominal, now) {
			return nil
		}
		f, err = in.source.NextFrame()
	}
	if err != nil {
		return c.freeze(in, err)
	}

	// A frame that fails to upload is not admitted; the timer stays due so
	// the next tick pulls a replacement.
	if err := in.slot.Refresh(c.backend, f); err != nil {
		if c.backend.ClassifyError(err) == TargetErrorFatal {
			return &FatalError{Op: "upload", Err: err}
		}
		vcompare.ModuleLogger("compositor").Warn("frame upload failed",
			"instance", in.index, "path", in.Path(), "error", err)
		c.bus.Publish(events.TickSkipped{Kind: "upload", Err: err})
		return nil
	}
	in.frames++
	c.metrics.FrameAdmitted(in.index)
	in.timer.Accept(now)
	return nil
}

// freeze stops an instance on its current image. End of stream always
// freezes; other decode failures freeze unless StrictDecode is set.
func (c *Compositor) freeze(in *Instance, err error) error {
	log := vcompare.ModuleLogger("compositor").With("instance", in.index, "path", in.Path())

	if errors.Is(err, decode.ErrEndOfStream) {
		log.Info("end of stream, holding last frame", "frames", in.frames)
		err = nil
	} else {
		if c.cfg.StrictDecode {
			return &FatalError{Op: "decode", Err: err}
		}
		log.Warn("decode failed, holding last frame", "frames", in.frames, "error", err)
	}

	in.frozen = true
	in.frozenErr = err
	c.bus.Publish(events.InstanceFrozen{Index: in.index, Path: in.Path(), Err: err, Frames: in.frames})
	return nil
}

// handleTargetError applies the target failure policy.
func (c *Compositor) handleTargetError(target Target, op string, err error) error {
	log := vcompare.ModuleLogger("compositor")

	switch kind := c.backend.ClassifyError(err); kind {
	case TargetErrorFatal:
		log.Error("render target failed", "op", op, "error", err)
		return &FatalError{Op: op, Err: err}

	case TargetErrorTransient:
		w, h := target.Size()
		log.Debug("render target unavailable, reconfiguring", "error", err, "width", w, "height", h)
		if rerr := target.Reconfigure(w, h); rerr != nil {
			if c.backend.ClassifyError(rerr) == TargetErrorFatal {
				return &FatalError{Op: "reconfigure", Err: rerr}
			}
			log.Warn("reconfigure failed", "error", rerr)
			c.bus.Publish(events.TickSkipped{Kind: kind.String(), Err: rerr})
			return nil
		}
		c.bus.Publish(events.TargetReconfigured{Width: w, Height: h, Reason: "lost"})
		return nil

	default:
		log.Warn("tick skipped", "op", op, "error", err)
		c.bus.Publish(events.TickSkipped{Kind: kind.String(), Err: err})
		return nil
	}
}

// Resize reconfigures the target for a new window size. Zero sizes, as
// reported for minimized windows, are ignored. Placements never change;
// the next Tick picks up the new aspect ratio from the target.
func (c *Compositor) Resize(target Target, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := target.Reconfigure(width, height); err != nil {
		return c.handleTargetError(target, "resize", err)
	}
	c.bus.Publish(events.TargetReconfigured{Width: width, Height: height, Reason: "resize"})
	return nil
}

// Close stops decoding, closes every source and releases every image.
func (c *Compositor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.workers != nil {
		c.workers.Cancel()
		log := vcompare.ModuleLogger("compositor")
		for _, in := range c.instances {
			st := in.box.Stats()
			log.Info("decode worker summary",
				"instance", in.index,
				"published", st.Published,
				"consumed", st.Consumed,
				"dropped", st.TotalDrops)
			in.box.Close()
		}
	}
	var errs []error
	for _, in := range c.instances {
		if err := in.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", in.Path(), err))
		}
	}
	if c.workers != nil {
		if err := c.workers.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	c.releaseSlots()
	return errors.Join(errs...)
}

func (c *Compositor) releaseSlots() {
	for _, in := range c.instances {
		in.slot.Close()
	}
}
