// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// MmidChunk maps each MMDX model index (as referenced by MDDF.NameID) to
// its byte offset within the MMDX payload.
type MmidChunk struct {
	Offsets []uint32
}

func parseU32Array(payload []byte) ([]uint32, error) {
	if len(payload)%4 != 0 {
		return nil, newErr(KindFormatInvalid, "parseU32Array", "", -1, nil)
	}
	out := make([]uint32, len(payload)/4)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeU32Array(values []uint32) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, values)
	return buf.Bytes()
}

func parseMmidChunk(payload []byte) (MmidChunk, error) {
	offs, err := parseU32Array(payload)
	return MmidChunk{Offsets: offs}, err
}

func (c MmidChunk) encode() []byte { return encodeU32Array(c.Offsets) }

// MwidChunk is MMID's counterpart for MWMO filenames.
type MwidChunk struct {
	Offsets []uint32
}

func parseMwidChunk(payload []byte) (MwidChunk, error) {
	offs, err := parseU32Array(payload)
	return MwidChunk{Offsets: offs}, err
}

func (c MwidChunk) encode() []byte { return encodeU32Array(c.Offsets) }
