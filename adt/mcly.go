// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// MclyFlags marks per-layer blending and animation behavior.
type MclyFlags uint32

const (
	MclyFlagAnimRotation MclyFlags = 0x1
	MclyFlagAnimSpeed    MclyFlags = 0x2
	MclyFlagAnimEnabled  MclyFlags = 0x4
	MclyFlagCompressed   MclyFlags = 0x200 // alpha map uses the RLE codec, not raw
	MclyFlagUseAlpha     MclyFlags = 0x100
	MclyFlagUseBigAlpha  MclyFlags = 0x8000 // 64x64 8-bit instead of 32x32 mip
)

// MclyLayer is one texture layer within an MCNK tile.
type MclyLayer struct {
	TextureID  uint32
	Flags      MclyFlags
	OffsInMCAL uint32
	EffectID   uint32
}

const mclyLayerSize = 16

// MaxLayers is the maximum number of blended texture layers a single
// MCNK tile can carry; terrain rendering hardware of the era could not
// blend more in a single pass.
const MaxLayers = 4

// MclyChunk is the layer list for one MCNK tile.
type MclyChunk struct {
	Layers []MclyLayer
}

func parseMclyChunk(payload []byte) (MclyChunk, error) {
	if len(payload)%mclyLayerSize != 0 {
		return MclyChunk{}, newErr(KindFormatInvalid, "parseMclyChunk", "MCLY", -1, nil)
	}
	n := len(payload) / mclyLayerSize
	layers := make([]MclyLayer, n)
	r := bytes.NewReader(payload)
	for i := range layers {
		if err := binary.Read(r, binary.LittleEndian, &layers[i]); err != nil {
			return MclyChunk{}, newErr(KindFormatInvalid, "parseMclyChunk", "MCLY", -1, err)
		}
	}
	return MclyChunk{Layers: layers}, nil
}

func (c MclyChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, l := range c.Layers {
		binary.Write(buf, binary.LittleEndian, &l)
	}
	return buf.Bytes()
}
