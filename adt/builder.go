// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"fmt"
	"math"
)

// ChunkLayer is one texture layer queued onto a chunk via AddChunkLayer,
// before it has been assembled into an on-disk MclyChunk/McalChunk pair.
// AlphaMap, when non-nil, holds one raw byte per grid cell at either
// 32x32 (legacy half resolution) or 64x64 (MclyFlagUseBigAlpha) — not yet
// RLE- or nibble-packed; that conversion is a serializer concern.
type ChunkLayer struct {
	TextureID uint32
	Flags     MclyFlags
	AlphaMap  []byte
	EffectID  uint32
}

// WaterVertex is one vertex of a builder-supplied variable-height water
// surface: a depth sample plus a 2-byte flow vector.
type WaterVertex struct {
	Depth float32
	Flow  [2]byte
}

// WaterInfo is the water queued onto a chunk via AddWater. A nil
// Vertices means a flat (uniform-height) surface between MinHeight and
// MaxHeight; a non-nil slice describes a variable-height surface sampled
// on an XRes x YRes grid.
type WaterInfo struct {
	LiquidType         uint16
	MinHeight, MaxHeight float32
	Vertices           []WaterVertex
	XRes, YRes         uint8
}

// WmoPlacementParams bundles AddWmoPlacement's arguments.
type WmoPlacementParams struct {
	Position, Rotation, BoundsMin, BoundsMax [3]float32
	Flags, DoodadSet, NameSet                uint16
}

// Builder assembles a new terrain file from scratch: textures, models,
// WMOs, per-chunk heightmaps, texture layers, doodad/WMO placements, and
// water, before Build produces a BuiltAdt ready for a serializer to emit.
type Builder struct {
	version Version

	textures []string
	models   []string
	wmos     []string

	heights [McinTileCount]McvtChunk
	layers  [McinTileCount][]ChunkLayer
	water   [McinTileCount]*WaterInfo

	doodads       []DoodadPlacement
	wmoPlacements []ModelPlacement

	flightBounds   *MfboChunk
	textureEffects []uint32
}

// NewBuilder returns a Builder for the given target version, with all 256
// chunks starting flat at height 0 and carrying no layers.
func NewBuilder(version Version) *Builder {
	return &Builder{version: version}
}

func chunkIndex(chunkX, chunkY int) (int, error) {
	if chunkX < 0 || chunkX >= 16 || chunkY < 0 || chunkY >= 16 {
		return 0, fmt.Errorf("invalid chunk indices: (%d, %d)", chunkX, chunkY)
	}
	return chunkY*16 + chunkX, nil
}

// AddTexture returns texturePath's index, adding it if not already present.
func (b *Builder) AddTexture(texturePath string) uint32 {
	for i, existing := range b.textures {
		if existing == texturePath {
			return uint32(i)
		}
	}
	b.textures = append(b.textures, texturePath)
	return uint32(len(b.textures) - 1)
}

// AddModel returns modelPath's index, adding it if not already present.
func (b *Builder) AddModel(modelPath string) uint32 {
	for i, existing := range b.models {
		if existing == modelPath {
			return uint32(i)
		}
	}
	b.models = append(b.models, modelPath)
	return uint32(len(b.models) - 1)
}

// AddWmo returns wmoPath's index, adding it if not already present.
func (b *Builder) AddWmo(wmoPath string) uint32 {
	for i, existing := range b.wmos {
		if existing == wmoPath {
			return uint32(i)
		}
	}
	b.wmos = append(b.wmos, wmoPath)
	return uint32(len(b.wmos) - 1)
}

// SetChunkHeights replaces the entire 145-height grid for one chunk.
func (b *Builder) SetChunkHeights(chunkX, chunkY int, heights McvtChunk) error {
	idx, err := chunkIndex(chunkX, chunkY)
	if err != nil {
		return err
	}
	b.heights[idx] = heights
	return nil
}

// SetOuterHeight sets a single outer (9x9) grid vertex on one chunk.
func (b *Builder) SetOuterHeight(chunkX, chunkY, vertexX, vertexY int, height float32) error {
	idx, err := chunkIndex(chunkX, chunkY)
	if err != nil {
		return err
	}
	if vertexX < 0 || vertexX >= 9 || vertexY < 0 || vertexY >= 9 {
		return fmt.Errorf("invalid outer vertex indices: (%d, %d)", vertexX, vertexY)
	}
	b.heights[idx].SetOuterHeight(vertexX, vertexY, height)
	return nil
}

// SetInnerHeight sets a single inner (8x8 control) grid vertex on one chunk.
func (b *Builder) SetInnerHeight(chunkX, chunkY, vertexX, vertexY int, height float32) error {
	idx, err := chunkIndex(chunkX, chunkY)
	if err != nil {
		return err
	}
	if vertexX < 0 || vertexX >= 8 || vertexY < 0 || vertexY >= 8 {
		return fmt.Errorf("invalid inner vertex indices: (%d, %d)", vertexX, vertexY)
	}
	b.heights[idx].SetInnerHeight(vertexX, vertexY, height)
	return nil
}

// AddChunkLayer appends a texture layer to a chunk. The first layer added
// to a chunk is its base layer and needs no alpha map; every later layer
// must carry one, sized for a 64x64 grid if flags carries
// MclyFlagUseBigAlpha, or 32x32 (the legacy half-resolution convention
// the client itself bilinearly upsamples) otherwise.
func (b *Builder) AddChunkLayer(chunkX, chunkY int, textureID uint32, flags MclyFlags, alphaMap []byte, effectID uint32) error {
	idx, err := chunkIndex(chunkX, chunkY)
	if err != nil {
		return err
	}
	if textureID >= uint32(len(b.textures)) {
		return fmt.Errorf("invalid texture id: %d", textureID)
	}
	isBaseLayer := len(b.layers[idx]) == 0
	if !isBaseLayer && alphaMap == nil {
		return fmt.Errorf("alpha map is required for non-base layers")
	}
	if alphaMap != nil {
		expected := 32 * 32
		if flags&MclyFlagUseBigAlpha != 0 {
			expected = 64 * 64
		}
		if len(alphaMap) != expected {
			return fmt.Errorf("invalid alpha map size: %d, expected %d", len(alphaMap), expected)
		}
	}
	if len(b.layers[idx]) >= MaxLayers {
		return fmt.Errorf("chunk (%d, %d) already has the maximum of %d layers", chunkX, chunkY, MaxLayers)
	}
	b.layers[idx] = append(b.layers[idx], ChunkLayer{
		TextureID: textureID,
		Flags:     flags,
		AlphaMap:  alphaMap,
		EffectID:  effectID,
	})
	return nil
}

// AddDoodad queues a doodad placement, auto-assigning its UniqueID from
// the current placement count.
func (b *Builder) AddDoodad(modelID uint32, position, rotation [3]float32, scale uint16, flags uint16) (uint32, error) {
	if modelID >= uint32(len(b.models)) {
		return 0, fmt.Errorf("invalid model id: %d", modelID)
	}
	uniqueID := uint32(len(b.doodads))
	b.doodads = append(b.doodads, DoodadPlacement{
		NameID:   modelID,
		UniqueID: uniqueID,
		Position: position,
		Rotation: rotation,
		Scale:    scale,
		Flags:    flags,
	})
	return uniqueID, nil
}

// AddWmoPlacement queues a WMO placement, auto-assigning its UniqueID
// from the current placement count.
func (b *Builder) AddWmoPlacement(wmoID uint32, p WmoPlacementParams) (uint32, error) {
	if wmoID >= uint32(len(b.wmos)) {
		return 0, fmt.Errorf("invalid wmo id: %d", wmoID)
	}
	uniqueID := uint32(len(b.wmoPlacements))
	b.wmoPlacements = append(b.wmoPlacements, ModelPlacement{
		NameID:    wmoID,
		UniqueID:  uniqueID,
		Position:  p.Position,
		Rotation:  p.Rotation,
		BoundsMin: p.BoundsMin,
		BoundsMax: p.BoundsMax,
		Flags:     p.Flags,
		DoodadSet: p.DoodadSet,
		NameSet:   p.NameSet,
	})
	return uniqueID, nil
}

// AddWater queues a liquid surface on one chunk. A nil vertices slice
// describes a flat surface between minHeight and maxHeight; otherwise
// len(vertices) must equal xRes*yRes.
func (b *Builder) AddWater(chunkX, chunkY int, liquidType uint16, minHeight, maxHeight float32, vertices []WaterVertex, xRes, yRes uint8) error {
	idx, err := chunkIndex(chunkX, chunkY)
	if err != nil {
		return err
	}
	if vertices != nil {
		expected := int(xRes) * int(yRes)
		if len(vertices) != expected {
			return fmt.Errorf("invalid vertices size: %d, expected %d", len(vertices), expected)
		}
	}
	b.water[idx] = &WaterInfo{
		LiquidType: liquidType,
		MinHeight:  minHeight,
		MaxHeight:  maxHeight,
		Vertices:   vertices,
		XRes:       xRes,
		YRes:       yRes,
	}
	return nil
}

// SetFlightBounds sets the TBC+ flight-boundary planes.
func (b *Builder) SetFlightBounds(maxPlane, minPlane [9]int16) error {
	if b.version < TBC {
		return fmt.Errorf("flight boundaries not supported in version: %s", b.version)
	}
	b.flightBounds = &MfboChunk{MaxPlane: maxPlane, MinPlane: minPlane}
	return nil
}

// AddTextureEffect queues a Cataclysm+ texture effect id.
func (b *Builder) AddTextureEffect(effectID uint32) error {
	if b.version < Cataclysm {
		return fmt.Errorf("texture effects not supported in version: %s", b.version)
	}
	b.textureEffects = append(b.textureEffects, effectID)
	return nil
}

// GenerateNormals computes a per-vertex normal map for every chunk from
// its current heightmap: a proper central-difference surface normal for
// each of the 9x9 outer vertices, and — since the reference this package
// is grounded on leaves its inner (8x8 control) vertices as an all-zero,
// physically invalid normal and says as much in its own comments — the
// nearest outer vertex's normal duplicated onto each inner vertex instead
// of leaving it unset.
func (b *Builder) GenerateNormals() [McinTileCount]McnrChunk {
	var out [McinTileCount]McnrChunk
	for i := range b.heights {
		out[i] = generateChunkNormals(&b.heights[i])
	}
	return out
}

func generateChunkNormals(h *McvtChunk) McnrChunk {
	var n McnrChunk
	for y := 0; y < OuterGridSize; y++ {
		for x := 0; x < OuterGridSize; x++ {
			height := h.GetOuterHeight(x, y)
			left, right, up, down := height, height, height, height
			if x > 0 {
				left = h.GetOuterHeight(x-1, y)
			}
			if x < OuterGridSize-1 {
				right = h.GetOuterHeight(x+1, y)
			}
			if y > 0 {
				up = h.GetOuterHeight(x, y-1)
			}
			if y < OuterGridSize-1 {
				down = h.GetOuterHeight(x, y+1)
			}
			dx := (right - left) * 0.5
			dy := (down - up) * 0.5
			nx, ny, nz := -dx, -dy, float32(1.0)
			length := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))
			n.SetOuterNormal(x, y, Normal{
				X: int8(nx / length * 127.0),
				Y: int8(ny / length * 127.0),
				Z: int8(nz / length * 127.0),
			})
		}
	}
	for y := 0; y < InnerGridSize; y++ {
		for x := 0; x < InnerGridSize; x++ {
			n.SetInnerNormal(x, y, n.GetOuterNormal(x, y))
		}
	}
	return n
}

// BuiltMcnk is one assembled chunk, ready for a serializer to lay out on
// disk — header offsets are computed during serialization, not here.
type BuiltMcnk struct {
	IndexX, IndexY uint32
	Position       [3]float32
	Heights        McvtChunk
	Normals        McnrChunk
	Layers         []ChunkLayer
	Liquid         *WaterInfo
}

// BuiltAdt is the output of Build: every piece of a new terrain file in
// plain, offset-free form.
type BuiltAdt struct {
	Version Version

	Textures     []string
	Models       []string
	ModelIndices []uint32
	Wmos         []string
	WmoIndices   []uint32

	Doodads       []DoodadPlacement
	WmoPlacements []ModelPlacement

	Mcnks []BuiltMcnk

	FlightBounds   *MfboChunk
	TextureEffects []uint32
}

// nullTerminatedOffsets computes the MMID/MWID-style byte offset of each
// name into its owning MMDX/MWMO null-terminated string table.
func nullTerminatedOffsets(names []string) []uint32 {
	offsets := make([]uint32, len(names))
	var cur uint32
	for i, name := range names {
		offsets[i] = cur
		cur += uint32(len(name)) + 1
	}
	return offsets
}

// Build assembles the queued textures, models, placements, heightmaps
// and layers into a BuiltAdt. Normals are (re)computed from the current
// heightmaps via GenerateNormals rather than requiring a separate call.
func (b *Builder) Build() *BuiltAdt {
	normals := b.GenerateNormals()

	out := &BuiltAdt{
		Version:        b.version,
		Textures:       b.textures,
		Models:         b.models,
		ModelIndices:   nullTerminatedOffsets(b.models),
		Wmos:           b.wmos,
		WmoIndices:     nullTerminatedOffsets(b.wmos),
		Doodads:        b.doodads,
		WmoPlacements:  b.wmoPlacements,
		FlightBounds:   b.flightBounds,
		TextureEffects: b.textureEffects,
	}
	if b.flightBounds == nil && b.version >= TBC {
		out.FlightBounds = &MfboChunk{}
	}

	out.Mcnks = make([]BuiltMcnk, McinTileCount)
	for i := 0; i < McinTileCount; i++ {
		chunkX, chunkY := i%16, i/16
		out.Mcnks[i] = BuiltMcnk{
			IndexX:   uint32(chunkX),
			IndexY:   uint32(chunkY),
			Position: [3]float32{float32(chunkX) * 533.3333, float32(chunkY) * 533.3333, 0},
			Heights:  b.heights[i],
			Normals:  normals[i],
			Layers:   b.layers[i],
			Liquid:   b.water[i],
		}
	}

	return out
}

// CreateFlatTerrain builds a BuiltAdt whose 256 chunks are all flat at
// baseHeight and textured with a single default ground texture.
func CreateFlatTerrain(version Version, baseHeight float32) *BuiltAdt {
	b := NewBuilder(version)
	var flat McvtChunk
	for i := range flat.Heights {
		flat.Heights[i] = baseHeight
	}
	textureID := b.AddTexture("textures/terrain/generic/grass_01.blp")
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			_ = b.SetChunkHeights(x, y, flat)
			_ = b.AddChunkLayer(x, y, textureID, 0, nil, 0)
		}
	}
	return b.Build()
}
