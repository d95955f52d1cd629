// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "fmt"

// BGRA is a packed vertex color/light sample in the byte order the client
// stores them in: blue, green, red, alpha.
type BGRA struct {
	B, G, R, A byte
}

const mccvSize = VertexCount * 4

// MccvChunk holds one vertex-color multiplier per MCVT height sample
// (WotLK+), in the same interleaved ordering, used to tint terrain
// independent of its texture layers.
type MccvChunk struct {
	Colors [VertexCount]BGRA
}

func parseMccvChunk(payload []byte) (MccvChunk, error) {
	var c MccvChunk
	if len(payload) < mccvSize {
		return c, newErr(KindFormatInvalid, "parseMccvChunk", "MCCV", -1, fmt.Errorf("short vertex color chunk: %d bytes", len(payload)))
	}
	for i := 0; i < VertexCount; i++ {
		c.Colors[i] = BGRA{payload[i*4], payload[i*4+1], payload[i*4+2], payload[i*4+3]}
	}
	return c, nil
}

func (c MccvChunk) encode() []byte {
	buf := make([]byte, mccvSize)
	for i, col := range c.Colors {
		buf[i*4] = col.B
		buf[i*4+1] = col.G
		buf[i*4+2] = col.R
		buf[i*4+3] = col.A
	}
	return buf
}

// MclvChunk holds one baked-lighting sample per MCVT height sample
// (Cataclysm+), same layout as MCCV but representing absolute light
// rather than a tint multiplier.
type MclvChunk struct {
	Colors [VertexCount]BGRA
}

func parseMclvChunk(payload []byte) (MclvChunk, error) {
	var c MclvChunk
	if len(payload) < mccvSize {
		return c, newErr(KindFormatInvalid, "parseMclvChunk", "MCLV", -1, fmt.Errorf("short vertex lighting chunk: %d bytes", len(payload)))
	}
	for i := 0; i < VertexCount; i++ {
		c.Colors[i] = BGRA{payload[i*4], payload[i*4+1], payload[i*4+2], payload[i*4+3]}
	}
	return c, nil
}

func (c MclvChunk) encode() []byte {
	buf := make([]byte, mccvSize)
	for i, col := range c.Colors {
		buf[i*4] = col.B
		buf[i*4+1] = col.G
		buf[i*4+2] = col.R
		buf[i*4+3] = col.A
	}
	return buf
}
