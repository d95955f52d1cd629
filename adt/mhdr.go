// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// MhdrFlags is the bitfield MHDR carries alongside its chunk offsets.
type MhdrFlags uint32

const (
	mhdrFlagMFBO       MhdrFlags = 0x1 // MFBO chunk present
	mhdrFlagNorthrend  MhdrFlags = 0x2 // tile belongs to a Northrend-style map
	mhdrFlagHasVertexShading MhdrFlags = 0x4
)

func (f MhdrFlags) HasMFBO() bool { return f&mhdrFlagMFBO != 0 }

// MhdrChunk is the 64-byte record every monolithic or split root carries,
// naming (as offsets relative to the end of this header, i.e. relative to
// the start of its own payload) the top-level chunks that follow it.
type MhdrChunk struct {
	Flags    MhdrFlags
	OffsMCIN uint32
	OffsMTEX uint32
	OffsMMDX uint32
	OffsMMID uint32
	OffsMWMO uint32
	OffsMWID uint32
	OffsMDDF uint32
	OffsMODF uint32
	Reserved [28]byte
}

const mhdrSize = 64

func parseMhdrChunk(payload []byte) (MhdrChunk, error) {
	var m MhdrChunk
	if len(payload) < mhdrSize {
		return m, newErr(KindFormatInvalid, "parseMhdrChunk", "MHDR", -1, nil)
	}
	if err := binary.Read(bytes.NewReader(payload[:mhdrSize]), binary.LittleEndian, &m); err != nil {
		return m, newErr(KindFormatInvalid, "parseMhdrChunk", "MHDR", -1, err)
	}
	return m, nil
}

func (m MhdrChunk) encode() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &m)
	return buf.Bytes()
}
