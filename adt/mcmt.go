// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

// MCMT, MCDD and MCBB are three later-expansion MCNK sub-chunks that, unlike
// every other sub-chunk, have no offset field in McnkHeader at all: the
// reference client locates them purely by scanning the MCNK body for their
// magic id (the same mechanism §4.10 rule 4 uses for MCVT/MCNR under
// high-resolution holes). mcnk.go's ScanForID fallback is how this package
// finds them too.

// MctmChunk (Cataclysm+ split texture files) gives one terrain material
// id per MCLY layer.
type MctmChunk struct {
	MaterialIDs []uint32
}

func parseMcmtChunk(payload []byte) (MctmChunk, error) {
	ids, err := parseU32Array(payload)
	return MctmChunk{MaterialIDs: ids}, err
}

func (c MctmChunk) encode() []byte { return encodeU32Array(c.MaterialIDs) }

// McddChunk (WoD+) is a per-cell bitmap disabling ground-effect doodads,
// the same 8x8 1-bit-per-cell shape as McnkHeader.NoEffectDoodad but
// carried as its own sub-chunk in later clients.
type McddChunk struct {
	Disabled [8]byte
}

func parseMcddChunk(payload []byte) (McddChunk, error) {
	var c McddChunk
	if len(payload) < 8 {
		return c, newErr(KindFormatInvalid, "parseMcddChunk", "MCDD", -1, nil)
	}
	copy(c.Disabled[:], payload[:8])
	return c, nil
}

func (c McddChunk) encode() []byte {
	out := make([]byte, 8)
	copy(out, c.Disabled[:])
	return out
}

func (c McddChunk) IsDisabled(x, y int) bool {
	return (c.Disabled[y]>>uint(x))&1 != 0
}

// McbbChunk (MoP+) lists blend-batch geometry used to smooth WMO/terrain
// seams. Like the MoP blend-mesh chunks (misc_chunks.go), its record
// layout isn't reliably documented, so it is kept as an opaque
// passthrough blob.
type McbbChunk rawChunk

func parseMcbbChunk(payload []byte) McbbChunk { return McbbChunk(parseRawChunk(payload)) }

func (c McbbChunk) encode() []byte { return rawChunk(c).encode() }
