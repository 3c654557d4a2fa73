// Package decode turns video files into a sequence of RGBA8 frames.
//
// Video files are probed with ffprobe to pick the best video stream and its
// frame rate, then decoded by an ffmpeg child process that writes raw RGBA
// frames at the stream's own resolution to a pipe. Still images are decoded
// in process and behave as a one-frame source.
//
// Sources are pulled, never pushed: nothing is decoded until NextFrame is
// called, and a source reaches ErrEndOfStream exactly once and stays there.
package decode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEndOfStream is returned by NextFrame once the source is exhausted.
	// It is terminal for that source.
	ErrEndOfStream = errors.New("decode: end of stream")

	// ErrNoVideoStream is returned by Open when the container holds no
	// decodable video stream.
	ErrNoVideoStream = errors.New("decode: no video stream found")

	// ErrClosed is returned by NextFrame after Close.
	ErrClosed = errors.New("decode: source closed")
)

// Frame is one decoded picture: tightly packed RGBA8 rows, Width*4 bytes
// each, top row first.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int { return f.Width * 4 }

// Valid reports whether the pixel buffer matches the frame dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*4
}

// Rational is a frame rate in frames per second expressed as Num/Den:
// 30000/1001 is 29.97 fps.
type Rational struct {
	Num int
	Den int
}

// ParseRational parses "num/den" as written by ffprobe. Malformed input
// yields the zero Rational.
func ParseRational(s string) Rational {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		den = "1"
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil {
		return Rational{}
	}
	return Rational{Num: n, Den: d}
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool { return r.Num > 0 && r.Den > 0 }

// String formats the rational as "num/den".
func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// FrameDuration returns the nominal frame duration, round(1000*den/num)
// milliseconds. It returns 0 when the rate is undefined.
func (r Rational) FrameDuration() time.Duration {
	if !r.Valid() {
		return 0
	}
	ms := math.Round(1000 * float64(r.Den) / float64(r.Num))
	return time.Duration(ms) * time.Millisecond
}

// StreamInfo describes the stream a source decodes.
type StreamInfo struct {
	// Index is the absolute stream index inside the container.
	Index int
	// Codec is the codec name, empty for still images.
	Codec string
	// Width and Height are the decoded frame dimensions.
	Width  int
	Height int
	// FrameRate is the declared rate; zero when unknown.
	FrameRate Rational
	// FrameDuration is the nominal time between frames; zero means the
	// source should be treated as always due.
	FrameDuration time.Duration
}

// Source is a pull-based producer of frames.
type Source interface {
	// Path identifies the source.
	Path() string
	// Info describes the decoded stream.
	Info() StreamInfo
	// NextFrame decodes the next frame, returning ErrEndOfStream once the
	// source is exhausted or a *DecodeError when decoding fails.
	NextFrame() (*Frame, error)
	// Close releases the decoder. It is safe to call more than once.
	Close() error
}

// DecodeError reports a failure of one source.
type DecodeError struct {
	Path string
	Op   string
	Err  error
	// Stderr holds the last lines the decoder wrote to its error stream.
	Stderr []string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode: %s %s: %v", e.Op, e.Path, e.Err)
	if n := len(e.Stderr); n > 0 {
		msg += " (" + e.Stderr[n-1] + ")"
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }
