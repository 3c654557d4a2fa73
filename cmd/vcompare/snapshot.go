package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/vcompare/internal/compositor"
	"github.com/gogpu/vcompare/internal/pacing"
	"github.com/gogpu/vcompare/internal/render"
	"github.com/gogpu/vcompare/internal/texture"
)

// runSnapshot renders --ticks ticks offscreen on a simulated clock and
// writes the final frame to --snapshot.
func runSnapshot(ctx context.Context, s *session) error {
	backends, err := render.ParseBackends(s.opts.Backend)
	if err != nil {
		return err
	}
	dev, err := render.OpenDevice(backends)
	if err != nil {
		return err
	}
	defer dev.Close()

	target, err := render.NewOffscreenTarget(dev, s.opts.Width, s.opts.Height)
	if err != nil {
		return err
	}
	defer target.Release()

	renderer, err := render.NewRenderer(dev, render.Config{
		Format:   target.Format(),
		Sampling: texture.DefaultSampling(),
		SPIRV:    s.opts.SPIRV,
	})
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Release()

	cfg := s.config()
	if cfg.Async {
		// Workers poll in real time and would race the simulated clock.
		s.logger.Warn("async decode is ignored in snapshot mode")
		cfg.Async = false
	}
	clock := pacing.NewManualClock(time.Now())
	if err := s.start(renderer, cfg, compositor.WithClock(clock)); err != nil {
		return err
	}
	// Slot images are released before the renderer and device go.
	defer s.stop()

	for i := 0; i < s.opts.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			clock.Advance(s.opts.TickInterval)
		}
		if err := s.comp.Tick(target); err != nil {
			return err
		}
	}

	img, err := target.Readback(ctx)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if err := render.WriteSnapshot(s.opts.Snapshot, img); err != nil {
		return err
	}
	s.logger.Info("snapshot written",
		"path", s.opts.Snapshot,
		"ticks", s.opts.Ticks,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return nil
}
