package handoff

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/vcompare"
	"github.com/gogpu/vcompare/internal/decode"
	"github.com/gogpu/vcompare/internal/pacing"
)

// defaultPoll bounds how long a worker sleeps before re-reading the shared
// playback state.
const defaultPoll = 10 * time.Millisecond

// Worker decodes one source in the background at the source's own frame
// rate and publishes each frame to its mailbox.
type Worker struct {
	Source  decode.Source
	Box     *Mailbox
	Control *pacing.Control
	Clock   pacing.Clock
	// Start is the instant the source's current frame was first shown.
	Start time.Time
	// Poll caps the sleep between state checks. Zero uses 10ms.
	Poll time.Duration
	// OnDrop is called when a published frame replaces an untaken one.
	OnDrop func()
}

// Run decodes until the source ends, the mailbox is closed or ctx is
// canceled. The terminal decode result is handed to the mailbox, never
// returned: per-source policy belongs to the render loop.
func (w *Worker) Run(ctx context.Context) error {
	poll := w.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	nominal := w.Source.Info().FrameDuration
	log := vcompare.ModuleLogger("handoff").With("path", w.Source.Path())

	var timer pacing.Timer
	timer.Start(w.Start)

	sleep := time.NewTimer(poll)
	sleep.Stop()
	defer sleep.Stop()

	for {
		now := w.Clock.Now()
		if w.Control.State() == pacing.Paused {
			timer.Pause(now)
		} else {
			timer.Resume(now)
		}

		if timer.Due(nominal, now) {
			f, err := w.Source.NextFrame()
			if err != nil {
				if !errors.Is(err, decode.ErrEndOfStream) {
					log.Warn("decode worker stopped", "error", err)
				}
				w.Box.Finish(err)
				return nil
			}
			dropped, ok := w.Box.Publish(f)
			if !ok {
				return nil
			}
			if dropped && w.OnDrop != nil {
				w.OnDrop()
			}
			timer.Accept(now)
			continue
		}

		wait := poll
		if !timer.Paused() {
			if u := timer.Until(nominal, now); u < wait {
				wait = u
			}
		}
		sleep.Reset(wait)
		select {
		case <-ctx.Done():
			w.Box.Finish(ctx.Err())
			return nil
		case <-sleep.C:
		}
	}
}

// Group runs a set of workers and stops them together.
type Group struct {
	g      *errgroup.Group
	cancel context.CancelFunc
}

// Start launches every worker under one errgroup.
func Start(ctx context.Context, workers []*Worker) *Group {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error { return w.Run(ctx) })
	}
	return &Group{g: g, cancel: cancel}
}

// Cancel asks every worker to stop. A worker blocked inside NextFrame
// returns once its source is closed.
func (g *Group) Cancel() { g.cancel() }

// Wait blocks until every worker has returned.
func (g *Group) Wait() error { return g.g.Wait() }

// Stop cancels all workers and waits for them to return.
func (g *Group) Stop() error {
	g.Cancel()
	return g.Wait()
}
