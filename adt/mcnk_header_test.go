// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "testing"

func TestMcnkHeaderEncodeDecodeRoundTrip(t *testing.T) {
	var h McnkHeader
	h.Flags = McnkFlagHasMCCV | McnkFlagHasRiver
	h.IndexX = 3
	h.IndexY = 12
	h.NLayers = 2
	h.AreaID = 4001
	h.SetOfsHeightNormal(200, 724)
	h.SetWorldPosition([3]float32{100.5, 200.25, 17.0})

	decoded, err := parseMcnkHeader(h.encode())
	if err != nil {
		t.Fatalf("parseMcnkHeader: %v", err)
	}
	if decoded.Flags != h.Flags || decoded.IndexX != h.IndexX || decoded.IndexY != h.IndexY {
		t.Errorf("flags/index mismatch: got %+v", decoded)
	}
	if decoded.OfsHeight() != 200 || decoded.OfsNormal() != 724 {
		t.Errorf("multipurpose offsets mismatch: height=%d normal=%d", decoded.OfsHeight(), decoded.OfsNormal())
	}
	if decoded.WorldPosition() != h.WorldPosition() {
		t.Errorf("world position mismatch: got %v, want %v", decoded.WorldPosition(), h.WorldPosition())
	}
}

func TestMcnkHeaderHolesLowRes(t *testing.T) {
	var h McnkHeader
	h.SetHoleLowRes(1, 2, true)
	h.SetHoleLowRes(3, 3, true)
	if !h.IsHoleLowRes(1, 2) {
		t.Errorf("expected hole at (1,2)")
	}
	if !h.IsHoleLowRes(3, 3) {
		t.Errorf("expected hole at (3,3)")
	}
	if h.IsHoleLowRes(0, 0) {
		t.Errorf("unexpected hole at (0,0)")
	}
	h.SetHoleLowRes(1, 2, false)
	if h.IsHoleLowRes(1, 2) {
		t.Errorf("hole at (1,2) should have cleared")
	}
}

func TestMcnkHeaderHolesHighRes(t *testing.T) {
	var h McnkHeader
	h.SetHolesHighRes(0)
	if !h.Flags.HighResHoles() {
		t.Fatalf("SetHolesHighRes should set the HighResHoles flag")
	}
	bitmap := uint64(1) << uint(3*8+5)
	h.SetHolesHighRes(bitmap)
	if !h.IsHoleHighRes(5, 3) {
		t.Errorf("expected high-res hole at (5,3)")
	}
	if h.IsHoleHighRes(0, 0) {
		t.Errorf("unexpected high-res hole at (0,0)")
	}

	// When HighResHoles is unset, the multipurpose field means something
	// else (MCVT/MCNR offsets) and HolesHighRes must refuse to decode it.
	var plain McnkHeader
	if _, ok := plain.HolesHighRes(); ok {
		t.Errorf("HolesHighRes should report false when HighResHoles is unset")
	}
}

func TestMcnkHeaderOffsetSanity(t *testing.T) {
	payload := make([]byte, mcnkHeaderSize)
	// OfsSndEmitters (bytes 88:92) set past its sanity limit.
	payload[88], payload[89], payload[90], payload[91] = 0xFF, 0xFF, 0xFF, 0x00
	h, err := parseMcnkHeader(payload)
	if err != nil {
		t.Fatalf("parseMcnkHeader: %v", err)
	}
	if h.OfsSndEmitters != 0 {
		t.Errorf("OfsSndEmitters = %d, want 0 (clamped)", h.OfsSndEmitters)
	}
}

func TestMcnkHeaderPredTexAndNoEffectDoodad(t *testing.T) {
	var h McnkHeader
	h.PredTex[3] = 0b10_01_00_11 // row 3: (x=0)->3 (x=1)->0 (x=2)->1 (x=3)->2
	if got := h.GetPredTexture(0, 3); got != 3 {
		t.Errorf("GetPredTexture(0,3) = %d, want 3", got)
	}
	if got := h.GetPredTexture(3, 3); got != 2 {
		t.Errorf("GetPredTexture(3,3) = %d, want 2", got)
	}

	h.NoEffectDoodad[2] = 0b0000_0100
	if !h.IsNoEffectDoodad(2, 2) {
		t.Errorf("expected no-effect-doodad bit set at (2,2)")
	}
	if h.IsNoEffectDoodad(0, 2) {
		t.Errorf("unexpected no-effect-doodad bit at (0,2)")
	}
}
