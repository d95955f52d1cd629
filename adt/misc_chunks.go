// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// MtxfChunk (WotLK+) carries one u32 flag word per MTEX entry, in the
// same order as MtexChunk.Filenames.
type MtxfChunk struct {
	Flags []uint32
}

func parseMtxfChunk(payload []byte) (MtxfChunk, error) {
	flags, err := parseU32Array(payload)
	return MtxfChunk{Flags: flags}, err
}

func (c MtxfChunk) encode() []byte { return encodeU32Array(c.Flags) }

// MampChunk (Cataclysm+) is a single byte giving the texture-amplifier
// value applied uniformly across the tile.
type MampChunk struct {
	Value byte
}

func parseMampChunk(payload []byte) (MampChunk, error) {
	if len(payload) < 1 {
		return MampChunk{}, newErr(KindFormatInvalid, "parseMampChunk", "MAMP", -1, nil)
	}
	return MampChunk{Value: payload[0]}, nil
}

func (c MampChunk) encode() []byte { return []byte{c.Value} }

// MtxpEntry (MoP) is one per-layer texture-parameter record: a height and
// offset pair used for parallax/specular texturing, plus flags.
type MtxpEntry struct {
	TextureID uint32
	Flags     uint32
	Height    float32
	Offset    float32
	_         uint32 // reserved
}

const mtxpEntrySize = 20

// MtxpChunk (MoP) carries one MtxpEntry per MTEX filename.
type MtxpChunk struct {
	Entries []MtxpEntry
}

func parseMtxpChunk(payload []byte) (MtxpChunk, error) {
	if len(payload)%mtxpEntrySize != 0 {
		return MtxpChunk{}, newErr(KindFormatInvalid, "parseMtxpChunk", "MTXP", -1, nil)
	}
	n := len(payload) / mtxpEntrySize
	entries := make([]MtxpEntry, n)
	r := bytes.NewReader(payload)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return MtxpChunk{}, newErr(KindFormatInvalid, "parseMtxpChunk", "MTXP", -1, err)
		}
	}
	return MtxpChunk{Entries: entries}, nil
}

func (c MtxpChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, e := range c.Entries {
		binary.Write(buf, binary.LittleEndian, &e)
	}
	return buf.Bytes()
}

// TextureEffect is one MTFX entry: a texture-effect id that packs a
// cubemap flag and a scale nibble alongside its raw form, the way the
// client itself unpacks the field.
type TextureEffect struct {
	UseCubemap   bool
	TextureScale uint8
	RawFlags     uint32
}

func textureEffectFromRaw(id uint32) TextureEffect {
	return TextureEffect{
		UseCubemap:   id&0x1 != 0,
		TextureScale: uint8((id >> 4) & 0xF),
		RawFlags:     id,
	}
}

// MtfxChunk (Cataclysm+) carries one texture-effect id per MTEX entry
// that opts into a shader effect (cubemap reflection, scaled detail
// texturing); entries with no effect are simply absent rather than
// zero-filled, so this chunk's length need not match MTEX's.
type MtfxChunk struct {
	Effects []TextureEffect
}

func parseMtfxChunk(payload []byte) (MtfxChunk, error) {
	raw, err := parseU32Array(payload)
	if err != nil {
		return MtfxChunk{}, err
	}
	effects := make([]TextureEffect, len(raw))
	for i, id := range raw {
		effects[i] = textureEffectFromRaw(id)
	}
	return MtfxChunk{Effects: effects}, nil
}

func (c MtfxChunk) encode() []byte {
	raw := make([]uint32, len(c.Effects))
	for i, e := range c.Effects {
		raw[i] = e.RawFlags
	}
	return encodeU32Array(raw)
}

// MoP blend-mesh chunks (MBMH/MBBB/MBNV/MBMI) describe per-tile blend
// mesh geometry used to smooth WMO/terrain seams. Their internal layouts
// are sparsely documented and not needed to round-trip terrain or texture
// data, so this package keeps them as opaque passthrough blobs — the same
// treatment McalChunk gives alpha-map bytes — rather than guessing at a
// field layout it can't verify.
type rawChunk struct {
	Data []byte
}

func parseRawChunk(payload []byte) rawChunk {
	data := make([]byte, len(payload))
	copy(data, payload)
	return rawChunk{Data: data}
}

func (c rawChunk) encode() []byte { return c.Data }

type (
	MbmhChunk rawChunk
	MbbbChunk rawChunk
	MbnvChunk rawChunk
	MbmiChunk rawChunk
)
