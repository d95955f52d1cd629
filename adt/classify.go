// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import "github.com/kaelthas/wowdata/internal/chunkio"

// FileKind classifies which of the several files that make up a modern
// ADT tile a given byte stream is, based purely on which top-level chunks
// it carries (see §4.8).
type FileKind int

const (
	// KindMonolithicRoot is a pre-Cataclysm single-file tile: MHDR, MCIN,
	// MTEX and MCNK are all present.
	KindMonolithicRoot FileKind = iota
	// KindSplitRoot is a Cataclysm+ root tile (plain `.adt`): MHDR and
	// MCNK are present but MCIN and MTEX are not, because texture and
	// object data moved to sibling _tex/_obj files.
	KindSplitRoot
	// KindTextureFile is a `_tex0.adt`/`_tex1.adt` sibling: MTEX present,
	// no MHDR, no MMDX/MWMO.
	KindTextureFile
	// KindObjectFile is a `_obj0.adt`/`_obj1.adt` sibling: MMDX, MWMO,
	// MDDF, or MODF present, no MHDR.
	KindObjectFile
	// KindLOD is a `_lod.adt` sibling; parsing it is stubbed (see
	// ParseLOD).
	KindLOD
	// KindUnknown is returned when none of the above rules match.
	KindUnknown
)

func (k FileKind) String() string {
	switch k {
	case KindMonolithicRoot:
		return "monolithic-root"
	case KindSplitRoot:
		return "split-root"
	case KindTextureFile:
		return "texture-file"
	case KindObjectFile:
		return "object-file"
	case KindLOD:
		return "lod"
	default:
		return "unknown"
	}
}

// lodMarkerChunk is the chunk id whose presence identifies a `_lod.adt`
// sibling. The format beyond that marker is not reverse engineered widely
// enough to parse; ParseLOD returns a stub.
const lodMarkerChunk = "MLVH"

// Classify inspects d and returns the FileKind it matches.
func Classify(d *chunkio.Discovery) FileKind {
	hasMHDR := d.Has("MHDR")
	hasMCIN := d.Has("MCIN")
	hasMTEX := d.Has("MTEX")
	hasMCNK := d.Has("MCNK")

	if d.Has(lodMarkerChunk) {
		return KindLOD
	}
	if hasMHDR && hasMCIN && hasMTEX && hasMCNK {
		return KindMonolithicRoot
	}
	if hasMHDR && hasMCNK && !hasMCIN && !hasMTEX {
		return KindSplitRoot
	}
	if hasMTEX && !hasMHDR && !d.Has("MMDX") && !d.Has("MWMO") {
		return KindTextureFile
	}
	if !hasMHDR && (d.Has("MMDX") || d.Has("MWMO") || d.Has("MDDF") || d.Has("MODF")) {
		return KindObjectFile
	}
	return KindUnknown
}

// IsSplitRoot reports the detection rule §4.9 uses to decide whether a
// root file's MCIN must be synthesized empty rather than parsed: absence
// of both MCIN and MTEX.
func IsSplitRoot(d *chunkio.Discovery) bool {
	return !d.Has("MCIN") && !d.Has("MTEX")
}
