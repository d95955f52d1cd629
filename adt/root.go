// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"fmt"
	"io"

	"github.com/kaelthas/wowdata/internal/chunkio"
)

// RootAdt is the decoded content of a monolithic pre-Cataclysm `.adt` or
// a Cataclysm+ split-root `.adt` (texture and object data for the latter
// live in sibling files; see ParseTextureFile/ParseObjectFile).
type RootAdt struct {
	Version Version
	IsSplit bool

	Mhdr          MhdrChunk
	Mcin          McinChunk
	Textures      MtexChunk
	Models        MmdxChunk
	ModelIndices  MmidChunk
	Wmos          MwmoChunk
	WmoIndices    MwidChunk
	Doodads       MddfChunk
	WmoPlacements ModfChunk

	FlightBounds  *MfboChunk
	Water         *Mh2oChunk
	TextureFlags  *MtxfChunk
	Amp            *MampChunk
	TextureEffects *MtfxChunk
	TextureParams  *MtxpChunk
	BlendHeader   *MbmhChunk
	BlendBatches  *MbbbChunk
	BlendVertices *MbnvChunk
	BlendIndices  *MbmiChunk

	Mcnks []*McnkChunk
}

// ParseRoot parses a monolithic or split root ADT from r, per §4.9.
// Warnings are returned for recoverable conditions (a version-gated
// optional chunk that failed to parse, an MCNK sub-chunk consistency
// mismatch) that don't abort the parse.
func ParseRoot(r io.ReadSeeker) (*RootAdt, []string, error) {
	d, err := chunkio.Discover(r)
	if err != nil {
		return nil, nil, newErr(KindFormatInvalid, "ParseRoot", "", -1, err)
	}

	if !d.Has("MHDR") {
		return nil, nil, newErr(KindMissingChunk, "ParseRoot", "MHDR", -1, fmt.Errorf("root ADT missing required MHDR"))
	}
	if !d.Has("MCNK") {
		return nil, nil, newErr(KindMissingChunk, "ParseRoot", "MCNK", -1, fmt.Errorf("root ADT missing required MCNK"))
	}

	isSplit := IsSplitRoot(d)
	if !isSplit {
		if !d.Has("MCIN") {
			return nil, nil, newErr(KindMissingChunk, "ParseRoot", "MCIN", -1, fmt.Errorf("monolithic root ADT missing required MCIN"))
		}
		if !d.Has("MTEX") {
			return nil, nil, newErr(KindMissingChunk, "ParseRoot", "MTEX", -1, fmt.Errorf("monolithic root ADT missing required MTEX"))
		}
	}

	version := InferVersion(d)
	root := &RootAdt{Version: version, IsSplit: isSplit}
	var warnings []string

	mhdrLoc, _ := d.First("MHDR")
	mhdrPayload, err := chunkio.ReadPayload(r, mhdrLoc)
	if err != nil {
		return nil, nil, newErr(KindFormatInvalid, "ParseRoot", "MHDR", mhdrLoc.Offset, err)
	}
	root.Mhdr, err = parseMhdrChunk(mhdrPayload)
	if err != nil {
		return nil, nil, err
	}

	if isSplit {
		root.Mcin = McinChunk{} // synthesized empty: split roots carry no MCIN of their own
	} else {
		loc, _ := d.First("MCIN")
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "ParseRoot", "MCIN", loc.Offset, err)
		}
		root.Mcin, err = parseMcinChunk(payload)
		if err != nil {
			return nil, nil, err
		}
	}

	if loc, ok := d.First("MTEX"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "ParseRoot", "MTEX", loc.Offset, err)
		}
		root.Textures = parseMtexChunk(payload)
	}

	if loc, ok := d.First("MMDX"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			root.Models = parseMmdxChunk(payload)
		} else {
			warnings = append(warnings, "MMDX: "+err.Error())
		}
	}
	if loc, ok := d.First("MMID"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if mmid, err := parseMmidChunk(payload); err == nil {
				root.ModelIndices = mmid
			} else {
				warnings = append(warnings, "MMID: "+err.Error())
			}
		}
	}
	if loc, ok := d.First("MWMO"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			root.Wmos = parseMwmoChunk(payload)
		} else {
			warnings = append(warnings, "MWMO: "+err.Error())
		}
	}
	if loc, ok := d.First("MWID"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if mwid, err := parseMwidChunk(payload); err == nil {
				root.WmoIndices = mwid
			} else {
				warnings = append(warnings, "MWID: "+err.Error())
			}
		}
	}
	if loc, ok := d.First("MDDF"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if mddf, err := parseMddfChunk(payload); err == nil {
				root.Doodads = mddf
			} else {
				warnings = append(warnings, "MDDF: "+err.Error())
			}
		}
	}
	if loc, ok := d.First("MODF"); ok {
		payload, err := chunkio.ReadPayload(r, loc)
		if err == nil {
			if modf, err := parseModfChunk(payload); err == nil {
				root.WmoPlacements = modf
			} else {
				warnings = append(warnings, "MODF: "+err.Error())
			}
		}
	}

	if version >= TBC {
		if loc, ok := d.First("MFBO"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mfbo, err := parseMfboChunk(payload); err == nil {
					root.FlightBounds = &mfbo
				} else {
					warnings = append(warnings, "MFBO: "+err.Error())
				}
			}
		}
	}

	if version >= WotLK {
		if loc, ok := d.First("MH2O"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mh2o, err := ParseMh2oChunk(payload); err == nil {
					root.Water = mh2o
				} else {
					warnings = append(warnings, "MH2O: "+err.Error())
				}
			}
		}
		if loc, ok := d.First("MTXF"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mtxf, err := parseMtxfChunk(payload); err == nil {
					root.TextureFlags = &mtxf
				} else {
					warnings = append(warnings, "MTXF: "+err.Error())
				}
			}
		}
	}

	if version >= Cataclysm {
		if loc, ok := d.First("MAMP"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if amp, err := parseMampChunk(payload); err == nil {
					root.Amp = &amp
				} else {
					warnings = append(warnings, "MAMP: "+err.Error())
				}
			}
		}
		if loc, ok := d.First("MTFX"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mtfx, err := parseMtfxChunk(payload); err == nil {
					root.TextureEffects = &mtfx
				} else {
					warnings = append(warnings, "MTFX: "+err.Error())
				}
			}
		}
	}

	if version == MoP {
		if loc, ok := d.First("MTXP"); ok {
			payload, err := chunkio.ReadPayload(r, loc)
			if err == nil {
				if mtxp, err := parseMtxpChunk(payload); err == nil {
					root.TextureParams = &mtxp
				} else {
					warnings = append(warnings, "MTXP: "+err.Error())
				}
			}
		}
		if loc, ok := d.First("MBMH"); ok {
			if payload, err := chunkio.ReadPayload(r, loc); err == nil {
				c := MbmhChunk(parseRawChunk(payload))
				root.BlendHeader = &c
			}
		}
		if loc, ok := d.First("MBBB"); ok {
			if payload, err := chunkio.ReadPayload(r, loc); err == nil {
				c := MbbbChunk(parseRawChunk(payload))
				root.BlendBatches = &c
			}
		}
		if loc, ok := d.First("MBNV"); ok {
			if payload, err := chunkio.ReadPayload(r, loc); err == nil {
				c := MbnvChunk(parseRawChunk(payload))
				root.BlendVertices = &c
			}
		}
		if loc, ok := d.First("MBMI"); ok {
			if payload, err := chunkio.ReadPayload(r, loc); err == nil {
				c := MbmiChunk(parseRawChunk(payload))
				root.BlendIndices = &c
			}
		}
	}

	mcnks, mcnkWarnings, err := parseMcnkLocations(r, d)
	if err != nil {
		return nil, nil, err
	}
	root.Mcnks = mcnks
	warnings = append(warnings, mcnkWarnings...)

	return root, warnings, nil
}

// parseMcnkLocations decodes every MCNK location d discovered, in file
// order.
func parseMcnkLocations(r io.ReadSeeker, d *chunkio.Discovery) ([]*McnkChunk, []string, error) {
	locs := d.Chunks("MCNK")
	mcnks := make([]*McnkChunk, 0, len(locs))
	var warnings []string
	for _, loc := range locs {
		payload, err := chunkio.ReadPayload(r, loc)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "parseMcnkLocations", "MCNK", loc.Offset, err)
		}
		mcnk, mcnkWarnings, err := ParseMcnkChunk(payload)
		if err != nil {
			return nil, nil, newErr(KindFormatInvalid, "parseMcnkLocations", "MCNK", loc.Offset, err)
		}
		mcnks = append(mcnks, mcnk)
		warnings = append(warnings, mcnkWarnings...)
	}
	return mcnks, warnings, nil
}

// LodAdt is the decoded content of a `_lod.adt` sibling. The format is
// not widely reverse engineered; parsing is stubbed per §4.8.
type LodAdt struct {
	Version Version
}

// ParseLOD returns a stub LodAdt recording only the inferred version, and
// a warning explaining why.
func ParseLOD(r io.ReadSeeker) (*LodAdt, []string, error) {
	d, err := chunkio.Discover(r)
	if err != nil {
		return nil, nil, newErr(KindFormatInvalid, "ParseLOD", "", -1, err)
	}
	return &LodAdt{Version: InferVersion(d)}, []string{"LOD file format is not fully reverse engineered; parsing is stubbed"}, nil
}
