// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// MfboChunk (TBC+) gives the flight ceiling and floor as two 3x3 grids of
// planes, each plane a 9-value int16 height field matching the corner and
// edge-midpoint layout of a single ADT tile.
type MfboChunk struct {
	MaxPlane [9]int16
	MinPlane [9]int16
}

const mfboSize = 36

func parseMfboChunk(payload []byte) (MfboChunk, error) {
	var m MfboChunk
	if len(payload) < mfboSize {
		return m, newErr(KindFormatInvalid, "parseMfboChunk", "MFBO", -1, nil)
	}
	if err := binary.Read(bytes.NewReader(payload[:mfboSize]), binary.LittleEndian, &m); err != nil {
		return m, newErr(KindFormatInvalid, "parseMfboChunk", "MFBO", -1, err)
	}
	return m, nil
}

func (m MfboChunk) encode() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &m)
	return buf.Bytes()
}
