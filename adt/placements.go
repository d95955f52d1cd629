// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// DoodadPlacement is one fixed-width MDDF row: an M2 doodad instance
// placed in the world.
type DoodadPlacement struct {
	NameID   uint32
	UniqueID uint32
	Position [3]float32
	Rotation [3]float32
	Scale    uint16 // 1024 == 1.0x
	Flags    uint16
}

const doodadPlacementSize = 36

// MddfChunk is the list of M2 doodad placements referencing MMDX (via
// MMID) or, in later clients, MWMO file-data ids directly.
type MddfChunk struct {
	Placements []DoodadPlacement
}

func parseMddfChunk(payload []byte) (MddfChunk, error) {
	if len(payload)%doodadPlacementSize != 0 {
		return MddfChunk{}, newErr(KindFormatInvalid, "parseMddfChunk", "MDDF", -1, nil)
	}
	n := len(payload) / doodadPlacementSize
	placements := make([]DoodadPlacement, n)
	r := bytes.NewReader(payload)
	for i := range placements {
		if err := binary.Read(r, binary.LittleEndian, &placements[i]); err != nil {
			return MddfChunk{}, newErr(KindFormatInvalid, "parseMddfChunk", "MDDF", -1, err)
		}
	}
	return MddfChunk{Placements: placements}, nil
}

func (c MddfChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, p := range c.Placements {
		binary.Write(buf, binary.LittleEndian, &p)
	}
	return buf.Bytes()
}

// ModelPlacement is one fixed-width MODF row: a WMO instance placed in
// the world, including its bounding box (WMOs, unlike doodads, don't
// share a single canonical bounds the client can derive at load time).
type ModelPlacement struct {
	NameID    uint32
	UniqueID  uint32
	Position  [3]float32
	Rotation  [3]float32
	BoundsMin [3]float32
	BoundsMax [3]float32
	Flags     uint16
	DoodadSet uint16
	NameSet   uint16
	Padding   uint16 // scale in some post-Cataclysm clients; otherwise unused
}

const modelPlacementSize = 64

// ModfChunk is the list of WMO placements.
type ModfChunk struct {
	Placements []ModelPlacement
}

func parseModfChunk(payload []byte) (ModfChunk, error) {
	if len(payload)%modelPlacementSize != 0 {
		return ModfChunk{}, newErr(KindFormatInvalid, "parseModfChunk", "MODF", -1, nil)
	}
	n := len(payload) / modelPlacementSize
	placements := make([]ModelPlacement, n)
	r := bytes.NewReader(payload)
	for i := range placements {
		if err := binary.Read(r, binary.LittleEndian, &placements[i]); err != nil {
			return ModfChunk{}, newErr(KindFormatInvalid, "parseModfChunk", "MODF", -1, err)
		}
	}
	return ModfChunk{Placements: placements}, nil
}

func (c ModfChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, p := range c.Placements {
		binary.Write(buf, binary.LittleEndian, &p)
	}
	return buf.Bytes()
}
