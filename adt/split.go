// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"encoding/binary"
	"io"

	"github.com/kaelthas/wowdata/internal/chunkio"
)

// Tex0Adt is the decoded content of a Cataclysm+ `_tex0.adt`/`_tex1.adt`
// sibling: texture filenames and, per MCNK tile, the layer and alpha-map
// data that moved out of the root file at the same time MCIN/MTEX did.
type Tex0Adt struct {
	Version       Version
	Textures      []string
	TextureParams *MtxpChunk
	Mcnks         []McnkTexture
}

// McnkTexture is one simplified MCNK container as it appears in a
// texture-sibling file: no 136-byte header, just whichever of MCLY/MCAL/
// MCMT it carries back to back.
type McnkTexture struct {
	Index     int
	Layers    *MclyChunk
	Alpha     *McalChunk
	Materials *MctmChunk
}

// ParseTextureFile parses a `_tex0.adt`/`_tex1.adt` sibling, per
// split_parser's texture-file algorithm.
func ParseTextureFile(r io.ReadSeeker) (*Tex0Adt, []string, error) {
	d, err := chunkio.Discover(r)
	if err != nil {
		return nil, nil, newErr(KindFormatInvalid, "ParseTextureFile", "", -1, err)
	}
	version := InferVersion(d)
	tex := &Tex0Adt{Version: version}
	var warnings []string

	if loc, ok := d.First("MTEX"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "ParseTextureFile", "MTEX", loc.Offset, err)
		}
		tex.Textures = parseMtexChunk(payload).Filenames
	}

	if version == MoP {
		if loc, ok := d.First("MTXP"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mtxp, err := parseMtxpChunk(payload); err == nil {
					tex.TextureParams = &mtxp
				} else {
					warnings = append(warnings, "MTXP: "+err.Error())
				}
			}
		}
	}

	for i, loc := range d.Chunks("MCNK") {
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "ParseTextureFile", "MCNK", loc.Offset, err)
		}
		subs := scanEmbeddedSubchunks(payload)
		mt := McnkTexture{Index: i}
		if body, ok := subs["MCLY"]; ok {
			if l, err := parseMclyChunk(body); err == nil {
				mt.Layers = &l
			}
		}
		if body, ok := subs["MCAL"]; ok {
			a := parseMcalChunk(body)
			mt.Alpha = &a
		}
		if body, ok := subs["MCMT"]; ok {
			if m, err := parseMcmtChunk(body); err == nil {
				mt.Materials = &m
			}
		}
		tex.Mcnks = append(tex.Mcnks, mt)
	}

	return tex, warnings, nil
}

// Obj0Adt is the decoded content of a Cataclysm+ `_obj0.adt`/`_obj1.adt`
// sibling: model/WMO filenames, placements, and per-MCNK object
// references.
type Obj0Adt struct {
	Version       Version
	Models        []string
	ModelIndices  []uint32
	Wmos          []string
	WmoIndices    []uint32
	Doodads       []DoodadPlacement
	WmoPlacements []ModelPlacement
	Mcnks         []McnkObject
}

// McnkObject is one simplified MCNK container as it appears in an
// object-sibling file: no 136-byte header, just whichever of MCRD/MCRW
// it carries.
type McnkObject struct {
	Index      int
	DoodadRefs []uint32
	WmoRefs    []uint32
}

// ParseObjectFile parses a `_obj0.adt`/`_obj1.adt` sibling, per
// split_parser's object-file algorithm.
func ParseObjectFile(r io.ReadSeeker) (*Obj0Adt, []string, error) {
	d, err := chunkio.Discover(r)
	if err != nil {
		return nil, nil, newErr(KindFormatInvalid, "ParseObjectFile", "", -1, err)
	}
	version := InferVersion(d)
	obj := &Obj0Adt{Version: version}
	var warnings []string

	readStrings := func(id string) []string {
		loc, ok := d.First(id)
		if !ok {
			return nil
		}
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			warnings = append(warnings, id+": "+err.Error())
			return nil
		}
		return splitNullTerminated(payload)
	}
	readOffsets := func(id string) []uint32 {
		loc, ok := d.First(id)
		if !ok {
			return nil
		}
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			warnings = append(warnings, id+": "+err.Error())
			return nil
		}
		offs, err := parseU32Array(payload)
		if err != nil {
			warnings = append(warnings, id+": "+err.Error())
			return nil
		}
		return offs
	}

	obj.Models = readStrings("MMDX")
	obj.ModelIndices = readOffsets("MMID")
	obj.Wmos = readStrings("MWMO")
	obj.WmoIndices = readOffsets("MWID")

	if loc, ok := d.First("MDDF"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if mddf, err := parseMddfChunk(payload); err == nil {
				obj.Doodads = mddf.Placements
			}
		}
	}
	if loc, ok := d.First("MODF"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if modf, err := parseModfChunk(payload); err == nil {
				obj.WmoPlacements = modf.Placements
			}
		}
	}

	for i, loc := range d.Chunks("MCNK") {
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "ParseObjectFile", "MCNK", loc.Offset, err)
		}
		subs := scanEmbeddedSubchunks(payload)
		mo := McnkObject{Index: i}
		if body, ok := subs["MCRD"]; ok {
			if r, err := parseMcrdChunk(body); err == nil {
				mo.DoodadRefs = r.DoodadRefs
			}
		}
		if body, ok := subs["MCRW"]; ok {
			if r, err := parseMcrwChunk(body); err == nil {
				mo.WmoRefs = r.WmoRefs
			}
		}
		obj.Mcnks = append(obj.Mcnks, mo)
	}

	return obj, warnings, nil
}

// scanEmbeddedSubchunks walks a simplified MCNK container's body (as
// found in split texture/object files, which carry no 136-byte header)
// linearly from its first byte, reading an 8-byte id+size sub-header at
// each step and recording the first payload seen per id. It stops at the
// first truncated or unrecognizable header, matching the reference
// parser's "end of MCNK or invalid data" early exit.
func scanEmbeddedSubchunks(payload []byte) map[string][]byte {
	out := make(map[string][]byte)
	pos := 0
	for pos+8 <= len(payload) {
		var rawID [4]byte
		copy(rawID[:], payload[pos:pos+4])
		id := string([]byte{rawID[3], rawID[2], rawID[1], rawID[0]})
		size := binary.LittleEndian.Uint32(payload[pos+4 : pos+8])
		bodyStart := pos + 8
		bodyEnd := bodyStart + int(size)
		if bodyEnd > len(payload) {
			break
		}
		if _, seen := out[id]; !seen {
			out[id] = payload[bodyStart:bodyEnd]
		}
		pos = bodyEnd
	}
	return out
}
