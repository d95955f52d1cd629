// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

// McrfChunk (pre-Cataclysm) is a single concatenated array of u32
// indices into the root file's MDDF list, followed by indices into its
// MODF list; the split point is the MCNK header's NDoodadRefs, since
// MCRF itself carries no count of its own.
type McrfChunk struct {
	DoodadRefs []uint32
	WmoRefs    []uint32
}

func parseMcrfChunk(payload []byte, nDoodadRefs, nMapObjRefs uint32) (McrfChunk, error) {
	all, err := parseU32Array(payload)
	if err != nil {
		return McrfChunk{}, newErr(KindFormatInvalid, "parseMcrfChunk", "MCRF", -1, err)
	}
	split := int(nDoodadRefs)
	if split > len(all) {
		split = len(all)
	}
	doodad := append([]uint32(nil), all[:split]...)
	rest := all[split:]
	wmoCount := int(nMapObjRefs)
	if wmoCount > len(rest) {
		wmoCount = len(rest)
	}
	wmo := append([]uint32(nil), rest[:wmoCount]...)
	return McrfChunk{DoodadRefs: doodad, WmoRefs: wmo}, nil
}

func (c McrfChunk) encode() []byte {
	return encodeU32Array(append(append([]uint32(nil), c.DoodadRefs...), c.WmoRefs...))
}

// McrdChunk (Cataclysm+ split object files) holds only the doodad-ref
// half of what MCRF carried pre-split.
type McrdChunk struct {
	DoodadRefs []uint32
}

func parseMcrdChunk(payload []byte) (McrdChunk, error) {
	refs, err := parseU32Array(payload)
	return McrdChunk{DoodadRefs: refs}, err
}

func (c McrdChunk) encode() []byte { return encodeU32Array(c.DoodadRefs) }

// McrwChunk (Cataclysm+ split object files) holds the WMO-ref half.
type McrwChunk struct {
	WmoRefs []uint32
}

func parseMcrwChunk(payload []byte) (McrwChunk, error) {
	refs, err := parseU32Array(payload)
	return McrwChunk{WmoRefs: refs}, err
}

func (c McrwChunk) encode() []byte { return encodeU32Array(c.WmoRefs) }
