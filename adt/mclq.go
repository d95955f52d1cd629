// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"encoding/binary"
	"fmt"
)

// LiquidKind distinguishes the pre-WotLK legacy liquid types, carried in
// the owning MCNK's flags rather than in MCLQ itself.
type LiquidKind int

const (
	LiquidRiver LiquidKind = iota
	LiquidOcean
	LiquidMagma
	LiquidSlime
)

// LiquidKindFromFlags derives the liquid kind from the owning MCNK's
// flag bits, per §4.10 rule 3: the parser must be told which flag was
// set since the MCLQ payload itself carries no type tag.
func LiquidKindFromFlags(flags McnkFlags) LiquidKind {
	switch {
	case flags.HasMagma():
		return LiquidMagma
	case flags.HasSlime():
		return LiquidSlime
	case flags.HasOcean():
		return LiquidOcean
	default:
		return LiquidRiver
	}
}

// MclqVertex is one of the 9x9 legacy liquid grid's height/depth samples.
// Depth is a flow/transparency value whose exact meaning is type
// dependent (vertical flow for magma, transparency for water); it is
// round-tripped without further interpretation.
type MclqVertex struct {
	Height float32
	Depth  uint32
}

// MclqChunk is the legacy (pre-WotLK) per-tile liquid surface: a 9x9
// height/depth grid plus an 8x8 render-flag grid, gated by one of the
// MCNK river/ocean/magma/slime flags.
type MclqChunk struct {
	Kind       LiquidKind
	MinHeight  float32
	MaxHeight  float32
	Vertices   [81]MclqVertex
	RenderFlags [8][8]byte
}

const mclqGridVertices = 81
const mclqSize = 8 + mclqGridVertices*8 + 64

// parseMclqChunk decodes a legacy liquid payload. kind comes from the
// owning MCNK's flags (LiquidKindFromFlags); small or garbled MCLQ
// payloads are common in early Vanilla files and the caller is expected
// to treat a decode error here as "no liquid" rather than fail the whole
// MCNK (§4.10 rule 3, §7 recoverable conditions).
func parseMclqChunk(payload []byte, kind LiquidKind) (MclqChunk, error) {
	var c MclqChunk
	c.Kind = kind
	if len(payload) < mclqSize {
		return c, newErr(KindFormatInvalid, "parseMclqChunk", "MCLQ", -1, fmt.Errorf("short legacy liquid chunk: %d of %d bytes", len(payload), mclqSize))
	}
	le := binary.LittleEndian
	c.MinHeight = float32FromBits(le.Uint32(payload[0:4]))
	c.MaxHeight = float32FromBits(le.Uint32(payload[4:8]))
	off := 8
	for i := 0; i < mclqGridVertices; i++ {
		c.Vertices[i] = MclqVertex{
			Height: float32FromBits(le.Uint32(payload[off : off+4])),
			Depth:  le.Uint32(payload[off+4 : off+8]),
		}
		off += 8
	}
	for y := 0; y < 8; y++ {
		copy(c.RenderFlags[y][:], payload[off:off+8])
		off += 8
	}
	return c, nil
}

func (c MclqChunk) encode() []byte {
	buf := make([]byte, mclqSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], float32Bits(c.MinHeight))
	le.PutUint32(buf[4:8], float32Bits(c.MaxHeight))
	off := 8
	for _, v := range c.Vertices {
		le.PutUint32(buf[off:off+4], float32Bits(v.Height))
		le.PutUint32(buf[off+4:off+8], v.Depth)
		off += 8
	}
	for _, row := range c.RenderFlags {
		copy(buf[off:off+8], row[:])
		off += 8
	}
	return buf
}
