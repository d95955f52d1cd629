// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"encoding/binary"
	"testing"
)

func TestMh2oNoLiquidReturnsNil(t *testing.T) {
	payload := make([]byte, Mh2oHeaderCount*mh2oHeaderSize)
	chunk, err := ParseMh2oChunk(payload)
	if err != nil {
		t.Fatalf("ParseMh2oChunk: %v", err)
	}
	if chunk != nil {
		t.Errorf("expected nil chunk when no header names a liquid layer")
	}
}

func TestMh2oFlatLiquidRoundTrip(t *testing.T) {
	var tiles [Mh2oHeaderCount]*FlatLiquid
	tiles[0] = &FlatLiquid{LiquidType: 1, MinHeight: 10, MaxHeight: 12}
	tiles[17] = &FlatLiquid{LiquidType: 2, MinHeight: -5, MaxHeight: -3.5}

	payload := EncodeMh2oChunk(tiles)
	chunk, err := ParseMh2oChunk(payload)
	if err != nil {
		t.Fatalf("ParseMh2oChunk: %v", err)
	}
	if chunk == nil {
		t.Fatalf("expected a non-nil chunk")
	}

	for i, want := range tiles {
		tile := chunk.Tiles[i]
		if want == nil {
			if len(tile.Layers) != 0 {
				t.Errorf("tile %d: expected no layers, got %d", i, len(tile.Layers))
			}
			continue
		}
		if len(tile.Layers) != 1 {
			t.Fatalf("tile %d: expected 1 layer, got %d", i, len(tile.Layers))
		}
		layer := tile.Layers[0]
		if layer.Instance.LiquidType != want.LiquidType {
			t.Errorf("tile %d: LiquidType = %d, want %d", i, layer.Instance.LiquidType, want.LiquidType)
		}
		if layer.Instance.MinHeightLevel != want.MinHeight || layer.Instance.MaxHeightLevel != want.MaxHeight {
			t.Errorf("tile %d: height range = [%v,%v], want [%v,%v]", i,
				layer.Instance.MinHeightLevel, layer.Instance.MaxHeightLevel, want.MinHeight, want.MaxHeight)
		}
		if layer.Instance.Width != 8 || layer.Instance.Height != 8 {
			t.Errorf("tile %d: expected full-tile 8x8 sub-rectangle, got %dx%d", i, layer.Instance.Width, layer.Instance.Height)
		}
		if layer.HeightDepth != nil {
			t.Errorf("tile %d: expected no vertex data for a flat instance", i)
		}
	}
}

func TestMh2oHeaderAttributes(t *testing.T) {
	headerBlock := make([]byte, Mh2oHeaderCount*mh2oHeaderSize)
	attrOffset := uint32(len(headerBlock))
	attrs := make([]byte, 16)
	for i := range attrs[:8] {
		attrs[i] = 0xFF
	}
	le := binary.LittleEndian
	le.PutUint32(headerBlock[0:4], attrOffset+16) // OffsetInstances (unused here, points past attrs)
	le.PutUint32(headerBlock[4:8], 0)             // LayerCount: no liquid
	le.PutUint32(headerBlock[8:12], attrOffset)   // OffsetAttributes

	payload := append(headerBlock, attrs...)
	chunk, err := ParseMh2oChunk(payload)
	// LayerCount is 0 for every header, so HasAnyLiquid is false and the
	// whole chunk parses as absent — attributes alone don't count as
	// liquid. This exercises that short-circuit explicitly.
	if err != nil {
		t.Fatalf("ParseMh2oChunk: %v", err)
	}
	if chunk != nil {
		t.Errorf("expected nil chunk: attributes without any liquid layer shouldn't count")
	}
}
