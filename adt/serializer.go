// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"encoding/binary"
	"io"

	"github.com/kaelthas/wowdata/internal/chunkio"
)

// cursor tracks the current write position of an io.WriteSeeker so the
// serializer can jump back to patch a placeholder and return to where it
// left off, the same two-pass idiom mpq/writer.go uses to patch its
// header and tables once the archive body's real offsets are known.
type cursor struct {
	w   io.WriteSeeker
	pos int64
}

func (c *cursor) writeChunk(id string, body []byte) (start int64, err error) {
	start = c.pos
	if err := chunkio.WriteChunk(c.w, id, body); err != nil {
		return 0, err
	}
	c.pos += 8 + int64(len(body))
	return start, nil
}

// patch overwrites the bytes at offset with data, then restores the
// cursor to its prior position so the caller can keep writing forward.
func (c *cursor) patch(offset int64, data []byte) error {
	if _, err := c.w.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := c.w.Write(data); err != nil {
		return err
	}
	_, err := c.w.Seek(c.pos, io.SeekStart)
	return err
}

// Serialize writes b to w as a monolithic root ADT, per §4.13: MVER,
// MHDR, MCIN, the variable-length top-level chunks, any version-gated
// extension chunks, then 256 MCNK chunks — each built out-of-place so its
// final size is known before its header is patched in. w must support
// seeking backward, since every offset table (MHDR, MCIN, and each MCNK's
// own header) is written as a zeroed placeholder first and corrected once
// the chunks it points at have actually been laid out.
//
// Split root/texture/object files, and MCNK sub-chunks this package has
// no builder-side representation for (MCRF/MCRD/MCRW doodad and WMO
// refs, MCSH, MCCV/MCLV, MCSE, legacy MCLQ liquid), are not produced by
// this function — BuiltAdt carries no data for them. A variable-height
// water surface (WaterInfo.Vertices != nil) is likewise left out of
// MH2O, which this package can only build in its uniform-height form
// (see EncodeMh2oChunk); a tile queued with one is serialized with no
// liquid at all rather than silently truncating its data.
func Serialize(w io.WriteSeeker, b *BuiltAdt) error {
	c := &cursor{w: w}

	mver := MverChunk{Version: MverFileVersion}
	if _, err := c.writeChunk("MVER", mver.encode()); err != nil {
		return err
	}

	mhdrStart, err := c.writeChunk("MHDR", make([]byte, mhdrSize))
	if err != nil {
		return err
	}
	mhdrPayloadStart := mhdrStart + 8

	mcinStart, err := c.writeChunk("MCIN", make([]byte, McinTileCount*mcinEntrySize))
	if err != nil {
		return err
	}

	var mhdr MhdrChunk
	if b.FlightBounds != nil {
		mhdr.Flags |= mhdrFlagMFBO
	}

	relOffset := func(absolute int64) uint32 { return uint32(absolute - mhdrPayloadStart) }

	if len(b.Textures) > 0 {
		start, err := c.writeChunk("MTEX", joinNullTerminated(b.Textures))
		if err != nil {
			return err
		}
		mhdr.OffsMTEX = relOffset(start)
	}

	if len(b.Models) > 0 {
		start, err := c.writeChunk("MMDX", joinNullTerminated(b.Models))
		if err != nil {
			return err
		}
		mhdr.OffsMMDX = relOffset(start)

		start, err = c.writeChunk("MMID", encodeU32Array(b.ModelIndices))
		if err != nil {
			return err
		}
		mhdr.OffsMMID = relOffset(start)
	}

	if len(b.Wmos) > 0 {
		start, err := c.writeChunk("MWMO", joinNullTerminated(b.Wmos))
		if err != nil {
			return err
		}
		mhdr.OffsMWMO = relOffset(start)

		start, err = c.writeChunk("MWID", encodeU32Array(b.WmoIndices))
		if err != nil {
			return err
		}
		mhdr.OffsMWID = relOffset(start)
	}

	if len(b.Doodads) > 0 {
		mddf := MddfChunk{Placements: b.Doodads}
		start, err := c.writeChunk("MDDF", mddf.encode())
		if err != nil {
			return err
		}
		mhdr.OffsMDDF = relOffset(start)
	}

	if len(b.WmoPlacements) > 0 {
		modf := ModfChunk{Placements: b.WmoPlacements}
		start, err := c.writeChunk("MODF", modf.encode())
		if err != nil {
			return err
		}
		mhdr.OffsMODF = relOffset(start)
	}

	if b.FlightBounds != nil {
		if _, err := c.writeChunk("MFBO", b.FlightBounds.encode()); err != nil {
			return err
		}
	}

	if b.Version >= Cataclysm && len(b.TextureEffects) > 0 {
		mtfx := MtfxChunk{Effects: make([]TextureEffect, len(b.TextureEffects))}
		for i, raw := range b.TextureEffects {
			mtfx.Effects[i] = textureEffectFromRaw(raw)
		}
		if _, err := c.writeChunk("MTFX", mtfx.encode()); err != nil {
			return err
		}
	}

	if b.Version >= WotLK {
		var tiles [Mh2oHeaderCount]*FlatLiquid
		var any bool
		for i, mcnk := range b.Mcnks {
			if mcnk.Liquid == nil || mcnk.Liquid.Vertices != nil {
				continue
			}
			tiles[i] = &FlatLiquid{
				LiquidType: mcnk.Liquid.LiquidType,
				MinHeight:  mcnk.Liquid.MinHeight,
				MaxHeight:  mcnk.Liquid.MaxHeight,
			}
			any = true
		}
		if any {
			if _, err := c.writeChunk("MH2O", EncodeMh2oChunk(tiles)); err != nil {
				return err
			}
		}
	}

	mcin := McinChunk{}
	for i := range b.Mcnks {
		start, size, err := writeMcnk(c, &b.Mcnks[i])
		if err != nil {
			return err
		}
		mcin.Entries[i] = McinEntry{Offset: uint32(start), Size: uint32(size)}
	}

	if err := c.patch(mhdrPayloadStart, mhdr.encode()); err != nil {
		return err
	}
	return c.patch(mcinStart+8, mcin.encode())
}

// writeMcnk writes one MCNK chunk (placeholder header, sub-chunks in
// fixed order, then the patched-in real header) and returns its chunk
// start offset and total size, for the caller's MCIN row.
func writeMcnk(c *cursor, m *BuiltMcnk) (start, size int64, err error) {
	start, err = c.writeChunk("MCNK", make([]byte, mcnkHeaderSize))
	if err != nil {
		return 0, 0, err
	}
	payloadStart := start + 8

	var header McnkHeader
	header.IndexX = m.IndexX
	header.IndexY = m.IndexY
	header.SetWorldPosition(m.Position)

	heightStart, err := c.writeChunk("MCVT", m.Heights.encode())
	if err != nil {
		return 0, 0, err
	}
	normalStart, err := c.writeChunk("MCNR", m.Normals.encode())
	if err != nil {
		return 0, 0, err
	}
	header.SetOfsHeightNormal(uint32(heightStart-payloadStart+8), uint32(normalStart-payloadStart+8))

	if len(m.Layers) > 0 {
		header.NLayers = uint32(len(m.Layers))

		mcly := MclyChunk{Layers: make([]MclyLayer, len(m.Layers))}
		var alpha []byte
		for i, l := range m.Layers {
			layer := MclyLayer{TextureID: l.TextureID, Flags: l.Flags, EffectID: l.EffectID}
			if i > 0 && l.AlphaMap != nil {
				layer.OffsInMCAL = uint32(len(alpha))
				layer.Flags |= MclyFlagUseAlpha
				alpha = append(alpha, l.AlphaMap...)
			}
			mcly.Layers[i] = layer
		}

		layerStart, err := c.writeChunk("MCLY", mcly.encode())
		if err != nil {
			return 0, 0, err
		}
		header.OfsLayer = uint32(layerStart - payloadStart + 8)

		if len(alpha) > 0 {
			alphaStart, err := c.writeChunk("MCAL", alpha)
			if err != nil {
				return 0, 0, err
			}
			header.OfsAlpha = uint32(alphaStart - payloadStart + 8)
			header.SizeAlpha = uint32(len(alpha))
		}
	}

	end := c.pos
	size = end - start - 8

	// The chunk header's own size field was written against the
	// mcnkHeaderSize placeholder; the sub-chunks appended after it grew
	// the payload well past that, so it needs patching too.
	sizeField := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeField, uint32(size))
	if err := c.patch(start+4, sizeField); err != nil {
		return 0, 0, err
	}

	if err := c.patch(start+8, header.encode()); err != nil {
		return 0, 0, err
	}
	return start, size, nil
}
