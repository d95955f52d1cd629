// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// McinTileCount is the number of MCNK tiles a root ADT always describes,
// an 16x16 grid regardless of how many tiles actually carry terrain.
const McinTileCount = 256

// McinEntry is one fixed row of the MCIN chunk: where to find the
// corresponding MCNK chunk and how large its payload is.
type McinEntry struct {
	Offset  uint32
	Size    uint32
	Flags   uint32
	AsyncID uint32 // runtime-only load-state field in the live client; round-tripped verbatim
}

const mcinEntrySize = 16

// McinChunk is present in monolithic root files and synthesized empty for
// split roots, which carry no MCIN of their own (see IsSplitRoot).
type McinChunk struct {
	Entries [McinTileCount]McinEntry
}

func parseMcinChunk(payload []byte) (McinChunk, error) {
	var c McinChunk
	if len(payload) < McinTileCount*mcinEntrySize {
		return c, newErr(KindFormatInvalid, "parseMcinChunk", "MCIN", -1, nil)
	}
	r := bytes.NewReader(payload)
	for i := range c.Entries {
		if err := binary.Read(r, binary.LittleEndian, &c.Entries[i]); err != nil {
			return c, newErr(KindFormatInvalid, "parseMcinChunk", "MCIN", -1, err)
		}
	}
	return c, nil
}

func (c McinChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, e := range c.Entries {
		binary.Write(buf, binary.LittleEndian, &e)
	}
	return buf.Bytes()
}
