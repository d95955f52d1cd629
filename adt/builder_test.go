// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/orcaman/writerseeker"
)

func TestBuilderAddChunkLayerRequiresAlphaOnNonBaseLayer(t *testing.T) {
	b := NewBuilder(WotLK)
	tex := b.AddTexture("textures/terrain/grass.blp")
	if err := b.AddChunkLayer(0, 0, tex, 0, nil, 0); err != nil {
		t.Fatalf("base layer should not require an alpha map: %v", err)
	}
	if err := b.AddChunkLayer(0, 0, tex, 0, nil, 0); err == nil {
		t.Errorf("expected an error adding a second layer with no alpha map")
	}
	alpha := make([]byte, 32*32)
	if err := b.AddChunkLayer(0, 0, tex, 0, alpha, 0); err != nil {
		t.Errorf("second layer with a correctly sized alpha map should succeed: %v", err)
	}
}

func TestBuilderAddChunkLayerRejectsWrongAlphaSize(t *testing.T) {
	b := NewBuilder(WotLK)
	tex := b.AddTexture("textures/terrain/grass.blp")
	_ = b.AddChunkLayer(0, 0, tex, 0, nil, 0)
	if err := b.AddChunkLayer(0, 0, tex, 0, make([]byte, 10), 0); err == nil {
		t.Errorf("expected an error for a wrong-sized alpha map")
	}
	if err := b.AddChunkLayer(0, 0, tex, MclyFlagUseBigAlpha, make([]byte, 32*32), 0); err == nil {
		t.Errorf("expected an error when UseBigAlpha is set but the map is 32x32 sized")
	}
}

func TestBuilderAddChunkLayerMaxLayers(t *testing.T) {
	b := NewBuilder(WotLK)
	tex := b.AddTexture("textures/terrain/grass.blp")
	alpha := make([]byte, 32*32)
	if err := b.AddChunkLayer(0, 0, tex, 0, nil, 0); err != nil {
		t.Fatalf("layer 0: %v", err)
	}
	for i := 1; i < MaxLayers; i++ {
		if err := b.AddChunkLayer(0, 0, tex, 0, alpha, 0); err != nil {
			t.Fatalf("layer %d: %v", i, err)
		}
	}
	if err := b.AddChunkLayer(0, 0, tex, 0, alpha, 0); err == nil {
		t.Errorf("expected an error adding a 5th layer")
	}
}

func TestBuilderFlightBoundsRequiresTBC(t *testing.T) {
	b := NewBuilder(Vanilla)
	if err := b.SetFlightBounds([9]int16{}, [9]int16{}); err == nil {
		t.Errorf("expected an error setting flight bounds below TBC")
	}
	b2 := NewBuilder(TBC)
	if err := b2.SetFlightBounds([9]int16{1}, [9]int16{-1}); err != nil {
		t.Errorf("SetFlightBounds on TBC: %v", err)
	}
}

func TestGenerateNormalsFillsInnerVertices(t *testing.T) {
	var h McvtChunk
	for y := 0; y < OuterGridSize; y++ {
		for x := 0; x < OuterGridSize; x++ {
			h.SetOuterHeight(x, y, float32(x+y))
		}
	}
	n := generateChunkNormals(&h)
	for y := 0; y < InnerGridSize; y++ {
		for x := 0; x < InnerGridSize; x++ {
			inner := n.GetInnerNormal(x, y)
			if inner.Z == 0 && inner.X == 0 && inner.Y == 0 {
				t.Errorf("inner normal (%d,%d) left as an invalid zero vector", x, y)
			}
		}
	}
}

func TestCreateFlatTerrainBuildsAllTiles(t *testing.T) {
	built := CreateFlatTerrain(WotLK, 100)
	if len(built.Mcnks) != McinTileCount {
		t.Fatalf("got %d MCNK tiles, want %d", len(built.Mcnks), McinTileCount)
	}
	if len(built.Textures) != 1 {
		t.Fatalf("expected exactly one default texture")
	}
	for i, mcnk := range built.Mcnks {
		if len(mcnk.Layers) != 1 {
			t.Fatalf("tile %d: expected exactly one base layer, got %d", i, len(mcnk.Layers))
		}
		if mcnk.Heights.Heights[0] != 100 {
			t.Errorf("tile %d: height = %v, want 100", i, mcnk.Heights.Heights[0])
		}
	}
}

func TestSerializeParseRoundTripFlatTerrain(t *testing.T) {
	built := CreateFlatTerrain(WotLK, 64)

	var buf writerseeker.WriterSeeker
	if err := Serialize(&buf, built); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	root, warnings, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseRoot: %v", err)
	}
	for _, w := range warnings {
		t.Errorf("unexpected warning: %s", w)
	}

	if root.IsSplit {
		t.Errorf("a Serialize'd root should be monolithic")
	}
	if len(root.Textures.Filenames) != 1 || root.Textures.Filenames[0] != built.Textures[0] {
		t.Errorf("texture list mismatch: got %v, want %v", root.Textures.Filenames, built.Textures)
	}
	if len(root.Mcnks) != McinTileCount {
		t.Fatalf("got %d parsed MCNK tiles, want %d", len(root.Mcnks), McinTileCount)
	}

	for i, mcnk := range root.Mcnks {
		if mcnk.Heights == nil {
			t.Fatalf("tile %d: MCVT did not round-trip", i)
		}
		if mcnk.Heights.Heights[0] != 64 {
			t.Errorf("tile %d: height = %v, want 64", i, mcnk.Heights.Heights[0])
		}
		if mcnk.Normals == nil {
			t.Fatalf("tile %d: MCNR did not round-trip", i)
		}
		if mcnk.Layers == nil || len(mcnk.Layers.Layers) != 1 {
			t.Fatalf("tile %d: MCLY did not round-trip", i)
		}
		if mcnk.Layers.Layers[0].TextureID != 0 {
			t.Errorf("tile %d: layer texture id = %d, want 0", i, mcnk.Layers.Layers[0].TextureID)
		}
		wantLayers := []MclyLayer{{TextureID: 0}}
		if diff := cmp.Diff(wantLayers, mcnk.Layers.Layers); diff != "" {
			t.Errorf("tile %d: layer round trip mismatch (-want +got):\n%s", i, diff)
		}
		wantX, wantY := uint32(i%16), uint32(i/16)
		if mcnk.Header.IndexX != wantX || mcnk.Header.IndexY != wantY {
			t.Errorf("tile %d: index = (%d,%d), want (%d,%d)", i, mcnk.Header.IndexX, mcnk.Header.IndexY, wantX, wantY)
		}
	}
}

func TestSerializeParseRoundTripWithLayersAndWater(t *testing.T) {
	b := NewBuilder(WotLK)
	grass := b.AddTexture("textures/terrain/grass.blp")
	rock := b.AddTexture("textures/terrain/rock.blp")

	alpha := make([]byte, 64*64)
	for i := range alpha {
		alpha[i] = byte(i % 200)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if err := b.AddChunkLayer(x, y, grass, 0, nil, 0); err != nil {
				t.Fatalf("base layer (%d,%d): %v", x, y, err)
			}
			if err := b.AddChunkLayer(x, y, rock, MclyFlagUseBigAlpha, alpha, 0); err != nil {
				t.Fatalf("second layer (%d,%d): %v", x, y, err)
			}
		}
	}
	if err := b.AddWater(5, 5, 1, 10, 12, nil, 0, 0); err != nil {
		t.Fatalf("AddWater: %v", err)
	}
	built := b.Build()

	var buf writerseeker.WriterSeeker
	if err := Serialize(&buf, built); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	root, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseRoot: %v", err)
	}

	tile := root.Mcnks[5*16+5]
	if tile.Layers == nil || len(tile.Layers.Layers) != 2 {
		t.Fatalf("expected 2 layers on the watered tile, got %+v", tile.Layers)
	}
	if tile.Alpha == nil {
		t.Fatalf("expected MCAL to round-trip for the second layer's alpha map")
	}
	got := tile.Alpha.LayerAlpha(tile.Layers.Layers[1].OffsInMCAL, uint32(len(alpha)))
	if !bytes.Equal(got, alpha) {
		t.Errorf("alpha map round trip mismatch")
	}

	if root.Water == nil {
		t.Fatalf("expected MH2O to round-trip")
	}
	watered := root.Water.Tiles[5*16+5]
	if len(watered.Layers) != 1 {
		t.Fatalf("expected 1 water layer on the watered tile, got %d", len(watered.Layers))
	}
	if watered.Layers[0].Instance.MinHeightLevel != 10 || watered.Layers[0].Instance.MaxHeightLevel != 12 {
		t.Errorf("water height range mismatch: %+v", watered.Layers[0].Instance)
	}
	wantInstance := Mh2oInstance{
		LiquidType:     1,
		LvfRaw:         uint16(LvfHeightDepth),
		MinHeightLevel: 10,
		MaxHeightLevel: 12,
		Width:          8,
		Height:         8,
	}
	if diff := cmp.Diff(wantInstance, watered.Layers[0].Instance); diff != "" {
		t.Errorf("water instance round trip mismatch (-want +got):\n%s", diff)
	}

	other := root.Mcnks[0]
	if len(other.Layers.Layers) != 2 {
		t.Fatalf("expected 2 layers on tile 0 too")
	}
}

func readAll(t *testing.T, buf *writerseeker.WriterSeeker) []byte {
	t.Helper()
	r := buf.BytesReader()
	out := make([]byte, r.Len())
	if _, err := io.ReadFull(r, out); err != nil {
		t.Fatalf("read serialized bytes: %v", err)
	}
	return out
}
