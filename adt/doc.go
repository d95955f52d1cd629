// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

// Package adt implements the ADT terrain-tile format used by Blizzard's
// World of Warcraft client to describe one 533.33x533.33 yard map tile:
// heightmaps, texture layers and alpha blending, water, doodad and WMO
// placements, and the handful of per-expansion extension chunks layered
// on top as the format grew.
//
// Supported on read: the monolithic single-file layout used through
// Wrath of the Lich King, and the Cataclysm+ split layout, where a root
// `.adt` (MHDR/MCNK only) is paired with `_tex0`/`_tex1` (MTEX, per-MCNK
// MCLY/MCAL/MCMT) and `_obj0`/`_obj1` (MMDX/MWMO/MDDF/MODF, per-MCNK
// MCRD/MCRW) siblings; Classify and IsSplitRoot detect which layout a
// given file uses from its chunk set alone, and InferVersion derives
// the highest expansion its chunks are consistent with. `_lod.adt`
// siblings are detected but parsed only as a stub (ParseLOD), since
// their format isn't widely reverse engineered.
//
// Every sub-chunk an MCNK tile can carry is supported: the 9x9/8x8
// interleaved height (MCVT) and normal (MCNR) grids, up to four blended
// texture layers (MCLY) with their alpha maps (MCAL, all three codecs —
// raw 8-bit, packed 4-bit, and the control-byte RLE scheme), static
// shadow bitmaps (MCSH), vertex colors and baked lighting (MCCV/MCLV),
// ambient sound emitters (MCSE), legacy per-tile liquid (MCLQ) and its
// WotLK+ replacement (MH2O, all four vertex-data layouts), doodad/WMO
// refs in both their pre-split (MCRF) and split (MCRD/MCRW) forms, and
// the later expansion chunks with no header offset at all (MCMT, MCDD,
// MCBB), located by scanning the chunk body the way the game client
// itself does once an offset table can no longer be trusted.
//
// Building new terrain is supported through Builder, a fluent
// staged-accumulation API — the same idiom this module's mpq package
// uses for its own writer — that assembles textures, heightmaps,
// texture layers, placements and water into a BuiltAdt, and Serialize,
// which emits a BuiltAdt as a monolithic root ADT.
//
// Not supported: serializing the Cataclysm+ split layout (Serialize
// only ever produces a monolithic root), MCRF/MCRD/MCRW/MCSH/MCCV/MCLV/
// MCSE on the write side (Builder has no construction API for them),
// and a variable-height MH2O water surface on the write side (Builder
// accepts one but Serialize only emits the uniform-height case — see
// EncodeMh2oChunk).
package adt
