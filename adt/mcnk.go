// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"encoding/binary"
	"fmt"

	"github.com/kaelthas/wowdata/internal/chunkio"
)

// McnkChunk is one fully-decoded terrain tile: the fixed header plus
// every sub-chunk the header's flags and offsets say is present. Every
// field besides Header is optional, matching the reference parser's
// Option-typed fields — a tile with no water has a nil Liquid, not a
// zero-valued one.
type McnkChunk struct {
	Header McnkHeader

	Heights        *McvtChunk
	Normals        *McnrChunk
	Layers         *MclyChunk
	Materials      *MctmChunk
	Refs           *McrfChunk
	DoodadRefs     *McrdChunk
	WmoRefs        *McrwChunk
	Alpha          *McalChunk
	Shadow         *McshChunk
	VertexColors   *MccvChunk
	VertexLighting *MclvChunk
	SoundEmitters  *McseChunk
	Liquid         *MclqChunk
	DoodadDisable  *McddChunk
	BlendBatches   *McbbChunk
}

// ParseMcnkChunk decodes one MCNK chunk, given the full chunk payload
// (everything after the chunk's own 8-byte id+size header, i.e. what
// chunkio.ReadPayload returns for an MCNK Location). This is the
// two-level parser of §4.10: level 1 reads the 136-byte fixed header,
// level 2 selectively decodes each sub-chunk the header says is present,
// resolving header offsets (which are relative to the MCNK chunk
// including its own 8-byte header, i.e. 8 bytes before payload[0]) against
// this payload.
func ParseMcnkChunk(payload []byte) (*McnkChunk, []string, error) {
	if len(payload) < mcnkHeaderSize {
		return nil, nil, newErr(KindFormatInvalid, "ParseMcnkChunk", "MCNK", -1, fmt.Errorf("truncated MCNK header: %d bytes", len(payload)))
	}
	header, err := parseMcnkHeader(payload)
	if err != nil {
		return nil, nil, err
	}
	m := &McnkChunk{Header: header}
	var warnings []string

	// subAt resolves a header-relative offset against payload, trusting
	// the sub-chunk's own declared size, and returns its normalised id
	// alongside the body so callers can sanity-check it matches what
	// they expected.
	subAt := func(offset uint32) (body []byte, id string, ok bool) {
		idx := int64(offset) - 8
		if idx < 0 || idx+8 > int64(len(payload)) {
			return nil, "", false
		}
		var rawID [4]byte
		copy(rawID[:], payload[idx:idx+4])
		id = string([]byte{rawID[3], rawID[2], rawID[1], rawID[0]})
		size := binary.LittleEndian.Uint32(payload[idx+4 : idx+8])
		bodyStart := idx + 8
		bodyEnd := bodyStart + int64(size)
		if bodyEnd > int64(len(payload)) {
			bodyEnd = int64(len(payload))
		}
		if bodyStart > int64(len(payload)) {
			return nil, id, false
		}
		return payload[bodyStart:bodyEnd], id, true
	}

	// subAtWithSize is the MCAL/MCSH/MCLQ override path: the sub-chunk's
	// own size field is untrustworthy (garbage on early Vanilla files,
	// always zero for MCLQ), so the caller supplies size from the MCNK
	// header instead of reading it from the sub-chunk's own header.
	subAtWithSize := func(offset, size uint32) (body []byte, ok bool) {
		idx := int64(offset) - 8
		if idx < 0 || idx+8 > int64(len(payload)) {
			return nil, false
		}
		bodyStart := idx + 8
		bodyEnd := bodyStart + int64(size)
		if bodyEnd > int64(len(payload)) {
			bodyEnd = int64(len(payload))
		}
		if bodyStart > int64(len(payload)) {
			return nil, false
		}
		return payload[bodyStart:bodyEnd], true
	}

	warn := func(chunkID string, err error) { warnings = append(warnings, chunkID+": "+err.Error()) }

	if header.HasHeight() {
		if body, id, ok := subAt(header.OfsHeight()); ok && id == "MCVT" {
			if h, err := parseMcvtChunk(body); err == nil {
				m.Heights = &h
			} else {
				warn("MCVT", err)
			}
		}
	}
	if header.HasNormal() {
		if body, id, ok := subAt(header.OfsNormal()); ok && id == "MCNR" {
			if n, err := parseMcnrChunk(body); err == nil {
				m.Normals = &n
			} else {
				warn("MCNR", err)
			}
		}
	}

	// MoP 5.3 hole-bit override (§4.10 rule 4): the multipurpose field
	// holds a hole bitmap instead of MCVT/MCNR offsets, so those two
	// sub-chunks, if present at all, must be found by linear scan.
	if header.Flags.HighResHoles() {
		rest := payload[mcnkHeaderSize:]
		if m.Heights == nil {
			if body, ok := chunkio.ScanForID(rest, "MCVT"); ok {
				if h, err := parseMcvtChunk(body); err == nil {
					m.Heights = &h
				}
			}
		}
		if m.Normals == nil {
			if body, ok := chunkio.ScanForID(rest, "MCNR"); ok {
				if n, err := parseMcnrChunk(body); err == nil {
					m.Normals = &n
				}
			}
		}
	}

	if header.HasLayer() {
		if body, id, ok := subAt(header.OfsLayer); ok && id == "MCLY" {
			if l, err := parseMclyChunk(body); err == nil {
				m.Layers = &l
			} else {
				warn("MCLY", err)
			}
		}
	}

	if header.HasRefs() {
		if body, id, ok := subAt(header.OfsRefs); ok {
			switch id {
			case "MCRF":
				if r, err := parseMcrfChunk(body, header.NDoodadRefs, header.NMapObjRefs); err == nil {
					m.Refs = &r
				} else {
					warn("MCRF", err)
				}
			case "MCRD":
				if r, err := parseMcrdChunk(body); err == nil {
					m.DoodadRefs = &r
				}
			case "MCRW":
				if r, err := parseMcrwChunk(body); err == nil {
					m.WmoRefs = &r
				}
			}
		}
	}

	if header.HasAlpha() {
		if body, ok := subAtWithSize(header.OfsAlpha, header.SizeAlpha); ok {
			a := parseMcalChunk(body)
			m.Alpha = &a
		}
	}

	if header.HasShadow() {
		if body, ok := subAtWithSize(header.OfsShadow, header.SizeShadow); ok {
			if s, err := parseMcshChunk(body); err == nil {
				m.Shadow = &s
			} else {
				warn("MCSH", err)
			}
		}
	}

	if header.HasVertexColors() {
		if body, id, ok := subAt(header.OfsMCCV); ok && id == "MCCV" {
			if c, err := parseMccvChunk(body); err == nil {
				m.VertexColors = &c
			}
		}
	}

	if header.HasBakedLighting() {
		if body, id, ok := subAt(header.OfsMCLV); ok && id == "MCLV" {
			if c, err := parseMclvChunk(body); err == nil {
				m.VertexLighting = &c
			}
		}
	}

	if header.HasSoundEmitters() {
		if body, id, ok := subAt(header.OfsSndEmitters); ok && id == "MCSE" {
			if se, err := parseMcseChunk(body); err == nil {
				m.SoundEmitters = &se
			}
		}
	}

	if header.HasLegacyLiquid() {
		// §4.10 rule 3: MCLQ's own sub-chunk header always reports size
		// zero, and a malformed placeholder is common enough in early
		// files that a decode failure here degrades to "no liquid"
		// rather than failing the whole MCNK.
		if body, ok := subAtWithSize(header.OfsLiquid, header.SizeLiquid); ok {
			kind := LiquidKindFromFlags(header.Flags)
			if lq, err := parseMclqChunk(body, kind); err == nil {
				m.Liquid = &lq
			}
		}
	}

	// MCMT, MCDD and MCBB carry no header offset at all; they are only
	// ever located by scanning the chunk body for their magic id.
	rest := payload[mcnkHeaderSize:]
	if body, ok := chunkio.ScanForID(rest, "MCMT"); ok {
		if mt, err := parseMcmtChunk(body); err == nil {
			m.Materials = &mt
		}
	}
	if body, ok := chunkio.ScanForID(rest, "MCDD"); ok {
		if dd, err := parseMcddChunk(body); err == nil {
			m.DoodadDisable = &dd
		}
	}
	if body, ok := chunkio.ScanForID(rest, "MCBB"); ok {
		bb := parseMcbbChunk(body)
		m.BlendBatches = &bb
	}

	return m, warnings, nil
}

// ValidateConsistency cross-checks the header's flag/offset-derived
// predicates against which sub-chunks actually parsed, returning a
// human-readable note for each mismatch. It never fails a parse by
// itself; callers decide whether to surface the notes.
func (m *McnkChunk) ValidateConsistency() []string {
	var notes []string
	if m.Header.HasHeight() && m.Heights == nil {
		notes = append(notes, "header claims MCVT present but it did not parse")
	}
	if m.Header.HasAlpha() && m.Alpha == nil {
		notes = append(notes, "header claims MCAL present but it did not parse")
	}
	if m.Header.HasLegacyLiquid() && m.Liquid == nil {
		notes = append(notes, "header claims legacy liquid present but MCLQ did not parse")
	}
	return notes
}
