package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix namespaces every environment override.
const envPrefix = "VCOMPARE_"

// Options is the flat CLI configuration. Every field is a flag; fields with
// an env tag can also be set through VCOMPARE_<tag>.
type Options struct {
	Width  int `flag:"width" env:"WIDTH"`
	Height int `flag:"height" env:"HEIGHT"`

	LogLevel  string `flag:"log-level" env:"LOG_LEVEL"`
	LogFormat string `flag:"log-format" env:"LOG_FORMAT"`

	StrictDecode   bool `flag:"strict-decode" env:"STRICT_DECODE"`
	AsyncDecode    bool `flag:"async-decode" env:"ASYNC_DECODE"`
	ReuseTextures  bool `flag:"reuse-textures" env:"REUSE_TEXTURES"`
	PreserveAspect bool `flag:"preserve-aspect" env:"PRESERVE_ASPECT"`

	FFmpeg  string `flag:"ffmpeg" env:"FFMPEG"`
	FFprobe string `flag:"ffprobe" env:"FFPROBE"`

	Backend string `flag:"backend" env:"BACKEND"`
	SPIRV   bool   `flag:"spirv" env:"SPIRV"`

	Snapshot     string        `flag:"snapshot" env:"SNAPSHOT"`
	Ticks        int           `flag:"ticks" env:"TICKS"`
	TickInterval time.Duration `flag:"tick-interval" env:"TICK_INTERVAL"`

	Stats bool `flag:"stats" env:"STATS"`
}

// defaultOptions returns the flag defaults.
func defaultOptions() *Options {
	return &Options{
		Width:        1280,
		Height:       720,
		LogLevel:     "info",
		LogFormat:    "text",
		FFmpeg:       "ffmpeg",
		FFprobe:      "ffprobe",
		Backend:      "all",
		Ticks:        1,
		TickInterval: 33 * time.Millisecond,
	}
}

// bindFlags registers opts' fields on fs, using the current values as
// defaults.
func bindFlags(fs *pflag.FlagSet, opts *Options) {
	fs.IntVar(&opts.Width, "width", opts.Width, "initial window width")
	fs.IntVar(&opts.Height, "height", opts.Height, "initial window height")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "log format (text, json)")
	fs.BoolVar(&opts.StrictDecode, "strict-decode", opts.StrictDecode, "end the session on any decode error instead of freezing that video")
	fs.BoolVar(&opts.AsyncDecode, "async-decode", opts.AsyncDecode, "decode each video on its own goroutine")
	fs.BoolVar(&opts.ReuseTextures, "reuse-textures", opts.ReuseTextures, "overwrite textures in place while the resolution is stable")
	fs.BoolVar(&opts.PreserveAspect, "preserve-aspect", opts.PreserveAspect, "keep each video's own aspect ratio")
	fs.StringVar(&opts.FFmpeg, "ffmpeg", opts.FFmpeg, "ffmpeg binary")
	fs.StringVar(&opts.FFprobe, "ffprobe", opts.FFprobe, "ffprobe binary")
	fs.StringVar(&opts.Backend, "backend", opts.Backend, "GPU backend for headless mode (all, vulkan, metal, dx12, gl)")
	fs.BoolVar(&opts.SPIRV, "spirv", opts.SPIRV, "load the quad shader as SPIR-V compiled by naga")
	fs.StringVar(&opts.Snapshot, "snapshot", opts.Snapshot, "render offscreen and write the last frame to this .png, .bmp or .tiff file")
	fs.IntVar(&opts.Ticks, "ticks", opts.Ticks, "ticks to render in snapshot mode")
	fs.DurationVar(&opts.TickInterval, "tick-interval", opts.TickInterval, "simulated time between snapshot ticks")
	fs.BoolVar(&opts.Stats, "stats", opts.Stats, "log a metrics summary at exit")
}

// applyEnv applies VCOMPARE_* overrides to opts. Flags set explicitly on
// the command line win over the environment.
func applyEnv(opts *Options, cmd *cobra.Command) error {
	changed := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			changed[f.Name] = true
		})
	}

	v := reflect.ValueOf(opts).Elem()
	t := v.Type()
	var errs []error
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if changed[flagName(field)] {
			continue
		}
		key := field.Tag.Get("env")
		if key == "" {
			continue
		}
		value, ok := os.LookupEnv(envPrefix + key)
		if !ok || value == "" {
			continue
		}
		if err := setFromString(v.Field(i), value); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		}
	}
	return errors.Join(errs...)
}

// flagName returns the flag tag, or the field name in kebab case.
func flagName(f reflect.StructField) string {
	if name := f.Tag.Get("flag"); name != "" {
		return name
	}
	return fieldNameToFlag(f.Name)
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LogLevel" -> "log-level".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// validate checks option values that flags cannot constrain.
func (o *Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", o.Width, o.Height)
	}
	if parseLevel(o.LogLevel) == nil {
		return fmt.Errorf("invalid log level %q", o.LogLevel)
	}
	switch o.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", o.LogFormat)
	}
	if o.Snapshot != "" {
		switch strings.ToLower(filepath.Ext(o.Snapshot)) {
		case ".png", ".bmp", ".tif", ".tiff":
		default:
			return fmt.Errorf("snapshot %q: use a .png, .bmp or .tiff file", o.Snapshot)
		}
		if o.Ticks < 1 {
			return fmt.Errorf("ticks must be at least 1, got %d", o.Ticks)
		}
		if o.TickInterval < 0 {
			return fmt.Errorf("negative tick interval %s", o.TickInterval)
		}
	}
	return nil
}
