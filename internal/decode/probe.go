package decode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// probeOutput mirrors the subset of `ffprobe -show_streams -of json` used
// for stream selection.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	BitRate      string `json:"bit_rate"`
	Disposition  struct {
		Default     int `json:"default"`
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

func (s probeStream) bitRate() int64 {
	n, err := strconv.ParseInt(s.BitRate, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// frameRate prefers the average rate and falls back to the base rate.
func (s probeStream) frameRate() Rational {
	if r := ParseRational(s.AvgFrameRate); r.Valid() {
		return r
	}
	return ParseRational(s.RFrameRate)
}

func (s probeStream) info() StreamInfo {
	rate := s.frameRate()
	return StreamInfo{
		Index:         s.Index,
		Codec:         s.CodecName,
		Width:         s.Width,
		Height:        s.Height,
		FrameRate:     rate,
		FrameDuration: rate.FrameDuration(),
	}
}

// betterThan ranks candidate video streams: real video over cover art,
// default disposition, larger picture, higher bit rate. Equal streams keep
// container order because the caller only replaces on a strict win.
func (s probeStream) betterThan(o probeStream) bool {
	if (s.Disposition.AttachedPic == 0) != (o.Disposition.AttachedPic == 0) {
		return s.Disposition.AttachedPic == 0
	}
	if s.Disposition.Default != o.Disposition.Default {
		return s.Disposition.Default > o.Disposition.Default
	}
	if a, b := s.Width*s.Height, o.Width*o.Height; a != b {
		return a > b
	}
	return s.bitRate() > o.bitRate()
}

// selectStream picks the best decodable video stream.
func selectStream(streams []probeStream) (probeStream, error) {
	var (
		best  probeStream
		found bool
	)
	for _, s := range streams {
		if s.CodecType != "video" || s.Width <= 0 || s.Height <= 0 {
			continue
		}
		if !found || s.betterThan(best) {
			best, found = s, true
		}
	}
	if !found {
		return probeStream{}, ErrNoVideoStream
	}
	return best, nil
}

func parseProbe(data []byte) (probeOutput, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return probeOutput{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return out, nil
}

// Probe runs ffprobe on path and returns the stream Open would decode.
func Probe(ctx context.Context, path string, opts ...Option) (StreamInfo, error) {
	o := newOptions(opts)
	s, err := probe(ctx, path, o)
	if err != nil {
		return StreamInfo{}, err
	}
	return s.info(), nil
}

func probe(ctx context.Context, path string, o options) (probeStream, error) {
	args := []string{"-v", "error", "-print_format", "json", "-show_streams", "--", path}
	cmd := o.command(ctx, o.ffprobe, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return probeStream{}, &DecodeError{Path: path, Op: "probe", Err: err, Stderr: lastLines(stderr.String(), stderrTail)}
	}

	out, err := parseProbe(stdout.Bytes())
	if err != nil {
		return probeStream{}, &DecodeError{Path: path, Op: "probe", Err: err}
	}
	s, err := selectStream(out.Streams)
	if err != nil {
		return probeStream{}, &DecodeError{Path: path, Op: "probe", Err: err}
	}
	return s, nil
}
