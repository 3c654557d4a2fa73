package main

import (
	"errors"
	"fmt"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/vcompare/internal/render"
	"github.com/gogpu/vcompare/internal/texture"
)

const windowTitle = "quick compare"

// runWindow plays the session in a window until it is closed, Escape is
// pressed or a fatal error ends the render loop.
func runWindow(s *session) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(windowTitle).
		WithSize(s.opts.Width, s.opts.Height).
		WithContinuousRender(true))

	var (
		renderer *render.Renderer
		target   *render.HostedTarget
		runErr   error
	)
	fail := func(err error) {
		runErr = err
		app.Quit()
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if runErr != nil {
			return
		}
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}

		if s.comp == nil {
			var err error
			renderer, target, err = startHosted(s, app.GPUContextProvider(), w, h)
			if err != nil {
				fail(err)
				return
			}
		}

		if tw, th := target.Size(); tw != w || th != h {
			if err := s.comp.Resize(target, w, h); err != nil {
				fail(err)
				return
			}
		}
		target.SetFrame(dc.SurfaceView(), w, h)
		if err := s.comp.Tick(target); err != nil {
			fail(err)
		}
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		switch key {
		case gpucontext.KeyEscape:
			app.Quit()
		case gpucontext.KeySpace:
			s.toggle()
		}
	})

	// GPU objects must go while the device is still alive.
	app.OnClose(func() {
		s.stop()
		if renderer != nil {
			renderer.Release()
		}
	})

	if err := app.Run(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// startHosted builds the renderer on the window's device and starts the
// compositor drawing into its surface.
func startHosted(s *session, provider gpucontext.DeviceProvider, w, h int) (*render.Renderer, *render.HostedTarget, error) {
	if provider == nil {
		return nil, nil, errors.New("window has no GPU context")
	}
	dev, err := render.DeviceFromProvider(provider)
	if err != nil {
		return nil, nil, err
	}
	format := provider.SurfaceFormat()
	renderer, err := render.NewRenderer(dev, render.Config{
		Format:   format,
		Sampling: texture.DefaultSampling(),
		SPIRV:    s.opts.SPIRV,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create renderer: %w", err)
	}
	target := render.NewHostedTarget(format)
	target.SetFrame(nil, w, h)
	if err := s.start(renderer, s.config()); err != nil {
		renderer.Release()
		return nil, nil, err
	}
	return renderer, target, nil
}
