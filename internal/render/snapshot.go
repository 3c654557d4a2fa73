// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// EncodeSnapshot writes img in the format named by ext (".png", ".bmp",
// ".tif" or ".tiff").
func EncodeSnapshot(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("render: unsupported snapshot format %q", ext)
	}
}

// WriteSnapshot encodes img to path, picking the format from its extension.
func WriteSnapshot(path string, img image.Image) (err error) {
	ext := filepath.Ext(path)
	// Fail on the format before touching the file system.
	if err := EncodeSnapshot(io.Discard, ext, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("render: create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("render: close snapshot: %w", cerr)
		}
	}()
	if err := EncodeSnapshot(f, ext, img); err != nil {
		return fmt.Errorf("render: encode snapshot: %w", err)
	}
	return nil
}
