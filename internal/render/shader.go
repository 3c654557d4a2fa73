// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"
)

//go:embed shaders/quad.wgsl
var quadShaderSource string

// Shader entry points.
const (
	vertexEntry   = "vs_main"
	fragmentEntry = "fs_main"
)

// Bind group 0 layout, shared by every instance.
const (
	bindingTexture   = 0
	bindingSampler   = 1
	bindingTransform = 2
)

// quadVertex is one corner of the unit quad: NDC position and texture
// coordinate, with v growing downwards.
type quadVertex struct {
	X, Y float32
	U, V float32
}

const quadVertexSize = 16

// quadVertices are the corners in order top-left, top-right, bottom-right,
// bottom-left.
var quadVertices = [4]quadVertex{
	{X: -1, Y: 1, U: 0, V: 0},
	{X: 1, Y: 1, U: 1, V: 0},
	{X: 1, Y: -1, U: 1, V: 1},
	{X: -1, Y: -1, U: 0, V: 1},
}

// quadIndices form two counter-clockwise triangles.
var quadIndices = [6]uint16{2, 1, 0, 3, 2, 0}

// vertexBytes serializes quadVertices for the vertex buffer.
func vertexBytes() []byte {
	buf := make([]byte, 0, len(quadVertices)*quadVertexSize)
	for _, v := range quadVertices {
		for _, f := range [4]float32{v.X, v.Y, v.U, v.V} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

// indexBytes serializes quadIndices, padded to a 4-byte multiple for
// buffer writes.
func indexBytes() []byte {
	buf := make([]byte, 0, 12)
	for _, i := range quadIndices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// compileQuadSPIRV translates the quad shader to SPIR-V words.
func compileQuadSPIRV() ([]uint32, error) {
	spirvBytes, err := naga.Compile(quadShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile quad shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile quad shader: SPIR-V length %d is not word aligned", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
