// Command vcompare plays several videos side by side in one window, each
// paced at its own frame rate.
//
// Usage:
//
//	vcompare [flags] <video>...
//
// Space toggles play and pause, Escape quits. With --snapshot the videos
// are rendered offscreen for --ticks ticks and the last frame is written to
// an image file instead of opening a window.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gogpu/vcompare"
	"github.com/gogpu/vcompare/internal/compositor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newCommand(defaultOptions())
}

// newCommand builds the root command bound to opts.
func newCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vcompare [flags] <video>...",
		Short:   "Compare videos side by side",
		Version: vcompare.Version,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyEnv(opts, cmd); err != nil {
				return err
			}
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			vcompare.SetLogger(newLogger(os.Stderr, opts.LogFormat, opts.LogLevel))
			return run(cmd.Context(), opts, args)
		},
	}
	bindFlags(cmd.Flags(), opts)
	return cmd
}

// run opens the videos and hands them to the window or snapshot driver.
func run(ctx context.Context, opts *Options, paths []string) error {
	s, err := openSession(ctx, opts, paths)
	if err != nil {
		reportFailure(vcompare.Logger(), err)
		return err
	}
	defer s.finish()

	if opts.Snapshot != "" {
		err = runSnapshot(ctx, s)
	} else {
		err = runWindow(s)
	}
	if err != nil {
		reportFailure(vcompare.Logger(), err)
		return fmt.Errorf("vcompare: %w", err)
	}
	return nil
}

// reportFailure logs why the session ended: a fatal error inside a running
// session, or a failure to set one up or finish it.
func reportFailure(logger *slog.Logger, err error) {
	if compositor.IsFatal(err) {
		logger.Error("session aborted", "error", err)
		return
	}
	logger.Error("session failed", "error", err)
}
