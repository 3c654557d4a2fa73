package main

import (
	"context"
	"log/slog"

	"github.com/gogpu/vcompare"
	"github.com/gogpu/vcompare/internal/compositor"
	"github.com/gogpu/vcompare/internal/decode"
	"github.com/gogpu/vcompare/internal/events"
	"github.com/gogpu/vcompare/internal/pacing"
	"github.com/gogpu/vcompare/internal/stats"
)

// session holds what both drivers share: the open sources, the playback
// control and the event plumbing.
type session struct {
	opts    *Options
	logger  *slog.Logger
	sources []decode.Source
	control *pacing.Control
	bus     *events.Bus
	stats   *stats.Collector
	detach  func()

	comp *compositor.Compositor
}

func openSession(ctx context.Context, opts *Options, paths []string) (*session, error) {
	logger := vcompare.ModuleLogger("cli")
	sources, err := decode.OpenAll(ctx, paths,
		decode.WithFFmpeg(opts.FFmpeg),
		decode.WithFFprobe(opts.FFprobe))
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		info := src.Info()
		logger.Info("opened video",
			"path", src.Path(),
			"width", info.Width,
			"height", info.Height,
			"frame_duration", info.FrameDuration)
	}

	bus := events.New()
	collector := stats.New()
	return &session{
		opts:    opts,
		logger:  logger,
		sources: sources,
		control: pacing.NewControl(),
		bus:     bus,
		stats:   collector,
		detach:  collector.Attach(bus),
	}, nil
}

func (s *session) config() compositor.Config {
	return compositor.Config{
		StrictDecode:   s.opts.StrictDecode,
		Async:          s.opts.AsyncDecode,
		ReuseTextures:  s.opts.ReuseTextures,
		PreserveAspect: s.opts.PreserveAspect,
	}
}

// start builds the compositor over the session's sources.
func (s *session) start(backend compositor.Backend, cfg compositor.Config, opts ...compositor.Option) error {
	opts = append([]compositor.Option{
		compositor.WithControl(s.control),
		compositor.WithBus(s.bus),
		compositor.WithMetrics(s.stats),
	}, opts...)
	comp, err := compositor.New(s.sources, backend, cfg, opts...)
	if err != nil {
		return err
	}
	s.comp = comp
	return nil
}

// toggle flips playback, through the compositor once it exists.
func (s *session) toggle() {
	if s.comp != nil {
		s.comp.Toggle(nil)
		return
	}
	s.control.Toggle(nil)
}

// stop closes the compositor, which owns the sources from then on.
func (s *session) stop() {
	if s.comp == nil {
		return
	}
	if err := s.comp.Close(); err != nil {
		s.logger.Warn("close failed", "error", err)
	}
}

// finish releases whatever stop did not and logs the summary.
func (s *session) finish() {
	if s.comp != nil {
		s.stop()
	} else {
		decode.CloseAll(s.sources)
	}
	s.detach()
	if s.opts.Stats {
		s.stats.LogSummary(s.logger)
	}
}
