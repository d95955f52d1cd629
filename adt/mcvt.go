// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// VertexCount is the total number of height samples an MCVT chunk holds:
// an 9x9 outer grid plus an 8x8 inner grid, interleaved.
const (
	VertexCount   = 145
	OuterVertices = 81 // 9x9
	InnerVertices = 64 // 8x8
	OuterGridSize = 9
	InnerGridSize = 8
)

// McvtChunk holds one MCNK tile's 145 height samples, stored on disk as
// 17 interleaved logical rows alternating length 9 (outer) and 8 (inner):
// row 0 is outer y=0 (9 values), row 1 is inner y=0 (8 values), row 2 is
// outer y=1, and so on.
type McvtChunk struct {
	Heights [VertexCount]float32
}

// vertexIndex returns the flat index of logical column x within logical
// row (the interleaved row index in [0,16]), per the indexing formula
// validated against the wow-map-viewer reference renderer.
func vertexIndex(x, logicalRow int) int {
	return ((logicalRow+1)/2)*9 + (logicalRow/2)*8 + x
}

// GetOuterHeight returns the height of the outer 9x9 grid vertex at
// (x,y), x,y in [0,8].
func (c McvtChunk) GetOuterHeight(x, y int) float32 {
	return c.Heights[vertexIndex(x, y*2)]
}

// SetOuterHeight is the corresponding writer.
func (c *McvtChunk) SetOuterHeight(x, y int, v float32) {
	c.Heights[vertexIndex(x, y*2)] = v
}

// GetInnerHeight returns the height of the inner 8x8 LOD-transition grid
// vertex at (x,y), x,y in [0,7].
func (c McvtChunk) GetInnerHeight(x, y int) float32 {
	return c.Heights[vertexIndex(x, y*2+1)]
}

// SetInnerHeight is the corresponding writer.
func (c *McvtChunk) SetInnerHeight(x, y int, v float32) {
	c.Heights[vertexIndex(x, y*2+1)] = v
}

// MinHeight and MaxHeight scan the full 145-value array, used by the
// builder to derive bounding information without duplicating storage.
func (c McvtChunk) MinHeight() float32 {
	m := c.Heights[0]
	for _, h := range c.Heights[1:] {
		if h < m {
			m = h
		}
	}
	return m
}

func (c McvtChunk) MaxHeight() float32 {
	m := c.Heights[0]
	for _, h := range c.Heights[1:] {
		if h > m {
			m = h
		}
	}
	return m
}

const mcvtSize = VertexCount * 4

func parseMcvtChunk(payload []byte) (McvtChunk, error) {
	var c McvtChunk
	if len(payload) < mcvtSize {
		return c, newErr(KindFormatInvalid, "parseMcvtChunk", "MCVT", -1, nil)
	}
	if err := binary.Read(bytes.NewReader(payload[:mcvtSize]), binary.LittleEndian, &c.Heights); err != nil {
		return c, newErr(KindFormatInvalid, "parseMcvtChunk", "MCVT", -1, err)
	}
	return c, nil
}

func (c McvtChunk) encode() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &c.Heights)
	return buf.Bytes()
}
