// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "encoding/binary"

// Mh2oHeaderCount is the number of fixed per-tile headers MH2O always
// carries, regardless of how many actually describe liquid.
const Mh2oHeaderCount = 256

const mh2oHeaderSize = 12

// Mh2oHeader is one of the 256 fixed per-MCNK-tile records naming where
// (if anywhere) that tile's liquid instance list and attribute bitmasks
// live within the chunk.
type Mh2oHeader struct {
	OffsetInstances  uint32
	LayerCount       uint32
	OffsetAttributes uint32
}

func (h Mh2oHeader) HasLiquid() bool     { return h.LayerCount > 0 }
func (h Mh2oHeader) HasAttributes() bool { return h.OffsetAttributes != 0 }

// LiquidVertexFormat selects how an Mh2oInstance's vertex data array is
// laid out.
type LiquidVertexFormat uint16

const (
	LvfHeightDepth    LiquidVertexFormat = 0
	LvfHeightUV       LiquidVertexFormat = 1
	LvfDepthOnly      LiquidVertexFormat = 2
	LvfHeightUVDepth  LiquidVertexFormat = 3
)

const mh2oInstanceSize = 24

// Mh2oInstance is one liquid layer within a tile: a liquid type, the
// format its vertex array uses, a height range, and the sub-rectangle of
// the tile's 9x9 grid it covers.
type Mh2oInstance struct {
	LiquidType          uint16
	LvfRaw              uint16
	MinHeightLevel      float32
	MaxHeightLevel      float32
	XOffset             uint8
	YOffset             uint8
	Width               uint8
	Height              uint8
	OffsetExistsBitmap  uint32
	OffsetVertexData    uint32
}

// LVF returns the instance's vertex format, and false if LvfRaw doesn't
// name one of the four known layouts (older or malformed archives can
// leave this field holding an unrelated liquid-object id instead).
func (in Mh2oInstance) LVF() (LiquidVertexFormat, bool) {
	switch in.LvfRaw {
	case 0, 1, 2, 3:
		return LiquidVertexFormat(in.LvfRaw), true
	default:
		return 0, false
	}
}

// VertexCount is (width+1)*(height+1), the number of grid vertices this
// instance's sub-rectangle covers.
func (in Mh2oInstance) VertexCount() int {
	return (int(in.Width) + 1) * (int(in.Height) + 1)
}

// HeightDepthVertex is the LvfHeightDepth layout: a height sample plus a
// depth/flow value, used for magma and slime.
type HeightDepthVertex struct {
	Height float32
	Depth  float32
}

// HeightUvVertex is the LvfHeightUV layout: a height sample plus texture
// coordinates, used for ocean and river surfaces with no depth data.
type HeightUvVertex struct {
	Height float32
	U, V   uint16
}

// DepthOnlyVertex is the LvfDepthOnly layout: just a depth/flow value,
// used when the whole instance shares MinHeightLevel/MaxHeightLevel.
type DepthOnlyVertex struct {
	Depth float32
}

// HeightUvDepthVertex is the LvfHeightUVDepth layout, carrying all three.
type HeightUvDepthVertex struct {
	Height float32
	U, V   uint16
	Depth  float32
}

// Mh2oAttributes is the pair of 64-bit per-cell bitmasks an instance can
// carry, each a bit per 8x8 grid cell.
type Mh2oAttributes struct {
	Fishable uint64
	Deep     uint64
}

// Mh2oLayer pairs a parsed instance with whichever vertex-data slice and
// exists-bitmap it carries.
type Mh2oLayer struct {
	Instance     Mh2oInstance
	ExistsBitmap *uint64
	HeightDepth  []HeightDepthVertex
	HeightUV     []HeightUvVertex
	DepthOnly    []DepthOnlyVertex
	HeightUVDepth []HeightUvDepthVertex
}

// Mh2oTile is the decoded per-MCNK-tile liquid data: its attribute
// bitmasks, if any, and its liquid layers.
type Mh2oTile struct {
	Attributes *Mh2oAttributes
	Layers     []Mh2oLayer
}

// Mh2oChunk is the full 256-tile advanced water table, present WotLK+.
type Mh2oChunk struct {
	Tiles [Mh2oHeaderCount]Mh2oTile
}

// HasAnyLiquid reports whether at least one of the 256 headers names a
// nonempty layer list; callers use this to decide whether MH2O should be
// attached to the parsed root ADT at all or treated as absent.
func HasAnyLiquid(headers [Mh2oHeaderCount]Mh2oHeader) bool {
	for _, h := range headers {
		if h.HasLiquid() {
			return true
		}
	}
	return false
}

// ParseMh2oChunk decodes the MH2O payload (the chunk body, with its own
// 8-byte id+size header already stripped). Every offset inside MH2O is
// relative to the start of this payload. Per §4.12, a header whose
// OffsetInstances is out of bounds, or an instance whose vertex-data
// offset doesn't resolve, is simply skipped rather than failing the
// whole chunk — MH2O predates strict validation and real archives carry
// stale offsets in tiles that turn out to have no actual water.
func ParseMh2oChunk(payload []byte) (*Mh2oChunk, error) {
	if len(payload) < Mh2oHeaderCount*mh2oHeaderSize {
		return nil, newErr(KindFormatInvalid, "ParseMh2oChunk", "MH2O", -1, nil)
	}
	le := binary.LittleEndian

	var headers [Mh2oHeaderCount]Mh2oHeader
	for i := 0; i < Mh2oHeaderCount; i++ {
		off := i * mh2oHeaderSize
		headers[i] = Mh2oHeader{
			OffsetInstances:  le.Uint32(payload[off : off+4]),
			LayerCount:       le.Uint32(payload[off+4 : off+8]),
			OffsetAttributes: le.Uint32(payload[off+8 : off+12]),
		}
	}
	if !HasAnyLiquid(headers) {
		return nil, nil
	}

	chunkSize := uint32(len(payload))
	chunk := &Mh2oChunk{}

	for i, h := range headers {
		tile := &chunk.Tiles[i]

		if h.HasAttributes() && h.OffsetAttributes < chunkSize {
			end := int(h.OffsetAttributes) + 16
			if end <= len(payload) {
				tile.Attributes = &Mh2oAttributes{
					Fishable: le.Uint64(payload[h.OffsetAttributes : h.OffsetAttributes+8]),
					Deep:     le.Uint64(payload[h.OffsetAttributes+8 : h.OffsetAttributes+16]),
				}
			}
		}

		if !h.HasLiquid() || h.OffsetInstances >= chunkSize {
			continue
		}

		pos := int(h.OffsetInstances)
		for l := uint32(0); l < h.LayerCount; l++ {
			if pos+mh2oInstanceSize > len(payload) {
				break
			}
			in := Mh2oInstance{
				LiquidType:         le.Uint16(payload[pos : pos+2]),
				LvfRaw:             le.Uint16(payload[pos+2 : pos+4]),
				MinHeightLevel:     float32FromBits(le.Uint32(payload[pos+4 : pos+8])),
				MaxHeightLevel:     float32FromBits(le.Uint32(payload[pos+8 : pos+12])),
				XOffset:            payload[pos+12],
				YOffset:            payload[pos+13],
				Width:              payload[pos+14],
				Height:             payload[pos+15],
				OffsetExistsBitmap: le.Uint32(payload[pos+16 : pos+20]),
				OffsetVertexData:   le.Uint32(payload[pos+20 : pos+24]),
			}
			pos += mh2oInstanceSize

			layer := Mh2oLayer{Instance: in}

			if in.OffsetExistsBitmap != 0 && int(in.OffsetExistsBitmap)+8 <= len(payload) {
				v := le.Uint64(payload[in.OffsetExistsBitmap : in.OffsetExistsBitmap+8])
				layer.ExistsBitmap = &v
			}

			if lvf, ok := in.LVF(); ok && in.OffsetVertexData != 0 {
				n := in.VertexCount()
				base := int(in.OffsetVertexData)
				switch lvf {
				case LvfHeightDepth:
					if verts, ok := readHeightDepthVertices(payload, base, n); ok {
						layer.HeightDepth = verts
					}
				case LvfHeightUV:
					if verts, ok := readHeightUvVertices(payload, base, n); ok {
						layer.HeightUV = verts
					}
				case LvfDepthOnly:
					if verts, ok := readDepthOnlyVertices(payload, base, n); ok {
						layer.DepthOnly = verts
					}
				case LvfHeightUVDepth:
					if verts, ok := readHeightUvDepthVertices(payload, base, n); ok {
						layer.HeightUVDepth = verts
					}
				}
			}

			tile.Layers = append(tile.Layers, layer)
		}
	}

	return chunk, nil
}

func readHeightDepthVertices(payload []byte, base, n int) ([]HeightDepthVertex, bool) {
	const sz = 8
	if base+n*sz > len(payload) {
		return nil, false
	}
	le := binary.LittleEndian
	out := make([]HeightDepthVertex, n)
	for i := 0; i < n; i++ {
		p := base + i*sz
		out[i] = HeightDepthVertex{
			Height: float32FromBits(le.Uint32(payload[p : p+4])),
			Depth:  float32FromBits(le.Uint32(payload[p+4 : p+8])),
		}
	}
	return out, true
}

func readHeightUvVertices(payload []byte, base, n int) ([]HeightUvVertex, bool) {
	const sz = 8
	if base+n*sz > len(payload) {
		return nil, false
	}
	le := binary.LittleEndian
	out := make([]HeightUvVertex, n)
	for i := 0; i < n; i++ {
		p := base + i*sz
		out[i] = HeightUvVertex{
			Height: float32FromBits(le.Uint32(payload[p : p+4])),
			U:      le.Uint16(payload[p+4 : p+6]),
			V:      le.Uint16(payload[p+6 : p+8]),
		}
	}
	return out, true
}

func readDepthOnlyVertices(payload []byte, base, n int) ([]DepthOnlyVertex, bool) {
	const sz = 4
	if base+n*sz > len(payload) {
		return nil, false
	}
	le := binary.LittleEndian
	out := make([]DepthOnlyVertex, n)
	for i := 0; i < n; i++ {
		p := base + i*sz
		out[i] = DepthOnlyVertex{Depth: float32FromBits(le.Uint32(payload[p : p+4]))}
	}
	return out, true
}

// FlatLiquid describes a uniform-height water surface covering an
// entire MCNK tile: the simplest case MH2O can express, and the only
// one EncodeMh2oChunk serializes. Variable-height surfaces parsed by
// ParseMh2oChunk round-trip as data a caller can inspect, and
// Builder.AddWater accepts one, but there is no encoder for them:
// Serialize writes such a tile with no liquid.
type FlatLiquid struct {
	LiquidType           uint16
	MinHeight, MaxHeight float32
}

// EncodeMh2oChunk builds an MH2O payload from one FlatLiquid per tile
// (nil entries get a zero header, meaning no liquid on that tile).
func EncodeMh2oChunk(tiles [Mh2oHeaderCount]*FlatLiquid) []byte {
	le := binary.LittleEndian
	headerBlock := make([]byte, Mh2oHeaderCount*mh2oHeaderSize)
	var instanceBlock []byte

	instanceBase := uint32(len(headerBlock))
	for i, t := range tiles {
		off := i * mh2oHeaderSize
		if t == nil {
			continue
		}
		instOffset := instanceBase + uint32(len(instanceBlock))
		le.PutUint32(headerBlock[off:off+4], instOffset)
		le.PutUint32(headerBlock[off+4:off+8], 1)
		le.PutUint32(headerBlock[off+8:off+12], 0)

		inst := make([]byte, mh2oInstanceSize)
		le.PutUint16(inst[0:2], t.LiquidType)
		le.PutUint16(inst[2:4], uint16(LvfHeightDepth))
		le.PutUint32(inst[4:8], float32Bits(t.MinHeight))
		le.PutUint32(inst[8:12], float32Bits(t.MaxHeight))
		inst[12] = 0 // XOffset
		inst[13] = 0 // YOffset
		inst[14] = 8 // Width: full tile, (8+1)x(8+1) = 9x9 vertices
		inst[15] = 8 // Height
		le.PutUint32(inst[16:20], 0)
		le.PutUint32(inst[20:24], 0)
		instanceBlock = append(instanceBlock, inst...)
	}

	return append(headerBlock, instanceBlock...)
}

func readHeightUvDepthVertices(payload []byte, base, n int) ([]HeightUvDepthVertex, bool) {
	const sz = 12
	if base+n*sz > len(payload) {
		return nil, false
	}
	le := binary.LittleEndian
	out := make([]HeightUvDepthVertex, n)
	for i := 0; i < n; i++ {
		p := base + i*sz
		out[i] = HeightUvDepthVertex{
			Height: float32FromBits(le.Uint32(payload[p : p+4])),
			U:      le.Uint16(payload[p+4 : p+6]),
			V:      le.Uint16(payload[p+6 : p+8]),
			Depth:  float32FromBits(le.Uint32(payload[p+8 : p+12])),
		}
	}
	return out, true
}
