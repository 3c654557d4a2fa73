package decode

import (
	"context"
	"os/exec"
)

// CommandFunc builds the child process for a decoder tool. It exists so
// tests can substitute a helper process for ffmpeg and ffprobe.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type options struct {
	ffmpeg  string
	ffprobe string
	command CommandFunc
}

// Option configures Open and Probe.
type Option func(*options)

// WithFFmpeg sets the ffmpeg binary. Default: "ffmpeg" from PATH.
func WithFFmpeg(path string) Option {
	return func(o *options) {
		if path != "" {
			o.ffmpeg = path
		}
	}
}

// WithFFprobe sets the ffprobe binary. Default: "ffprobe" from PATH.
func WithFFprobe(path string) Option {
	return func(o *options) {
		if path != "" {
			o.ffprobe = path
		}
	}
}

// WithCommand replaces process creation.
func WithCommand(fn CommandFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.command = fn
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		command: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
