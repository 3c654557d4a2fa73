// Package vcompare plays several video files side by side in one window
// for visual comparison.
//
// # Overview
//
// Every video keeps its own native frame rate while a single render loop
// composites all of them into one frame. The pieces live in internal
// packages:
//
//   - decode: ffprobe/ffmpeg backed sources producing RGBA frames
//   - pacing: per-source frame timers and the shared play/pause state
//   - texture: GPU image ownership with swap-then-release replacement
//   - layout: row placement and window aspect correction
//   - compositor: the tick loop tying the above together
//   - render: the wgpu quad pipeline, window and offscreen targets
//   - handoff: single-slot frame mailboxes for background decoding
//
// # Quick Start
//
//	vcompare reference.mp4 encoded_a.mp4 encoded_b.mp4
//
// Space toggles play/pause, Escape quits. Videos are placed left to right in
// argument order.
//
// # Logging
//
// The library is silent by default. Call [SetLogger] to route diagnostics to
// any [log/slog] handler; the vcompare command does this from its
// --log-level and --log-format flags.
package vcompare

// Version information
const (
	// Version is the current version of vcompare
	Version = "0.1.0"
)
