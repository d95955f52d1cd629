// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "encoding/binary"

// MverFileVersion is the constant value every ADT variant's MVER chunk
// carries; unlike MPQ's own header, ADT does not use this field to
// distinguish expansions — that's inferred from which chunks are
// present instead (see InferVersion).
const MverFileVersion = 18

// MverChunk is the 4-byte version tag every ADT file variant starts
// with.
type MverChunk struct {
	Version uint32
}

const mverSize = 4

func parseMverChunk(payload []byte) (MverChunk, error) {
	if len(payload) < mverSize {
		return MverChunk{}, newErr(KindFormatInvalid, "parseMverChunk", "MVER", -1, nil)
	}
	return MverChunk{Version: binary.LittleEndian.Uint32(payload[:mverSize])}, nil
}

func (c MverChunk) encode() []byte {
	buf := make([]byte, mverSize)
	binary.LittleEndian.PutUint32(buf, c.Version)
	return buf
}
