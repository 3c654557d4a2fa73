package decode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vcompare"
)

// stderrTail is how many stderr lines a DecodeError carries.
const stderrTail = 8

// Video decodes one video stream through an ffmpeg child process.
//
// NextFrame must be called from one goroutine at a time. Close may be
// called from another goroutine to abort a blocked NextFrame.
type Video struct {
	path string
	info StreamInfo

	cmd       *exec.Cmd
	stdout    *bufio.Reader
	frameSize int

	stderrDone chan struct{}
	tailMu     sync.Mutex
	tail       []string

	done      error // sticky terminal result of NextFrame
	closed    atomic.Bool
	waitOnce  sync.Once
	waitErr   error
	closeOnce sync.Once
}

// Open probes path, selects its best video stream and starts decoding it.
// Failures are startup errors: the returned *DecodeError names the step that
// failed and, for ErrNoVideoStream, wraps that sentinel.
//
// ctx bounds the probe only; the decoder process lives until Close.
func Open(ctx context.Context, path string, opts ...Option) (*Video, error) {
	o := newOptions(opts)

	s, err := probe(ctx, path, o)
	if err != nil {
		return nil, err
	}
	info := s.info()

	cmd := o.command(context.Background(), o.ffmpeg, ffmpegArgs(path, info)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "start", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "start", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &DecodeError{Path: path, Op: "start", Err: err}
	}

	v := &Video{
		path:       path,
		info:       info,
		cmd:        cmd,
		stdout:     bufio.NewReaderSize(stdout, 1<<20),
		frameSize:  info.Width * info.Height * 4,
		stderrDone: make(chan struct{}),
	}
	go v.streamStderr(stderr)

	vcompare.ModuleLogger("decode").Info("source opened",
		"path", path,
		"stream", info.Index,
		"codec", s.CodecName,
		"pix_fmt", s.PixFmt,
		"size", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"rate", info.FrameRate.String(),
		"frame_duration", info.FrameDuration)
	return v, nil
}

// ffmpegArgs decodes only the selected stream, converts it to RGBA with a
// bilinear scaler at the probed resolution, and writes raw frames to stdout.
// Frames are passed through without rate conversion; pacing happens in the
// player.
func ffmpegArgs(path string, info StreamInfo) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "level+warning",
		"-noautorotate",
		"-i", path,
		"-map", "0:" + strconv.Itoa(info.Index),
		"-an", "-sn", "-dn",
		"-fps_mode", "passthrough",
		"-sws_flags", "bilinear",
		"-s", strconv.Itoa(info.Width) + "x" + strconv.Itoa(info.Height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	}
}

// Path returns the file path the source was opened with.
func (v *Video) Path() string { return v.path }

// Info returns the selected stream.
func (v *Video) Info() StreamInfo { return v.info }

// NextFrame reads the next decoded frame. A clean end of output from a
// successful decoder is ErrEndOfStream; a short read or a failed decoder is
// a *DecodeError. Either result is sticky.
func (v *Video) NextFrame() (*Frame, error) {
	if v.done != nil {
		return nil, v.done
	}
	if v.closed.Load() {
		v.done = ErrClosed
		return nil, v.done
	}

	pix := make([]byte, v.frameSize)
	_, err := io.ReadFull(v.stdout, pix)
	if err == nil {
		return &Frame{Width: v.info.Width, Height: v.info.Height, Pix: pix}, nil
	}

	werr := v.wait()
	switch {
	case v.closed.Load():
		v.done = ErrClosed
	case errors.Is(err, io.EOF) && werr == nil:
		v.done = ErrEndOfStream
		vcompare.ModuleLogger("decode").Debug("end of stream", "path", v.path)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		cause := werr
		if cause == nil {
			cause = fmt.Errorf("truncated frame: %w", err)
		}
		v.done = &DecodeError{Path: v.path, Op: "decode", Err: cause, Stderr: v.stderrTail()}
	default:
		v.done = &DecodeError{Path: v.path, Op: "read", Err: err, Stderr: v.stderrTail()}
	}
	return nil, v.done
}

// Close stops the decoder process and waits for it to exit.
func (v *Video) Close() error {
	v.closeOnce.Do(func() {
		v.closed.Store(true)
		if v.cmd.Process != nil {
			_ = v.cmd.Process.Kill()
		}
		_ = v.wait()
	})
	return nil
}

// wait reaps the process once stderr has been drained.
func (v *Video) wait() error {
	v.waitOnce.Do(func() {
		<-v.stderrDone
		v.waitErr = v.cmd.Wait()
	})
	return v.waitErr
}

// streamStderr forwards decoder diagnostics to the logger at their own level
// and keeps the last lines for error reports.
func (v *Video) streamStderr(r io.Reader) {
	defer close(v.stderrDone)

	logger := vcompare.ModuleLogger("ffmpeg").With("path", v.path)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		level, msg := ParseLogLevel(line)
		logger.Log(context.Background(), slogLevel(level), msg)

		v.tailMu.Lock()
		v.tail = append(v.tail, msg)
		if len(v.tail) > stderrTail {
			v.tail = v.tail[len(v.tail)-stderrTail:]
		}
		v.tailMu.Unlock()
	}
}

func (v *Video) stderrTail() []string {
	v.tailMu.Lock()
	defer v.tailMu.Unlock()
	return append([]string(nil), v.tail...)
}
