package decode

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel string
		wantMsg   string
	}{
		{"[error] Invalid data found", "error", "Invalid data found"},
		{"[warning] frame size changed", "warning", "frame size changed"},
		{"[h264 @ 0x55d0c8] [error] decode_slice_header error", "error", "[h264 @ 0x55d0c8] decode_slice_header error"},
		{"[h264 @ 0x55d0c8] no level here", "info", "[h264 @ 0x55d0c8] no level here"},
		{"plain line", "info", "plain line"},
		{"[", "info", "["},
		{"[debug]no space", "info", "[debug]no space"},
	}
	for _, tt := range tests {
		level, msg := ParseLogLevel(tt.line)
		if level != tt.wantLevel || msg != tt.wantMsg {
			t.Errorf("ParseLogLevel(%q) = (%q, %q), want (%q, %q)", tt.line, level, msg, tt.wantLevel, tt.wantMsg)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"fatal":   slog.LevelError,
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelDebug,
		"trace":   slog.LevelDebug,
		"other":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := slogLevel(in); got != want {
			t.Errorf("slogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLastLines(t *testing.T) {
	got := lastLines("a\n\nb\nc\n", 2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("lastLines() = %q, want [b c]", got)
	}
	if got := lastLines("", 3); len(got) != 0 {
		t.Errorf("lastLines(\"\") = %q, want empty", got)
	}
}
