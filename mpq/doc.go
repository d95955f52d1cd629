// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

// Package mpq implements the MPQ ("Mo'PaQ") archive format used by
// Blizzard's Warcraft III, World of Warcraft, and StarCraft II game
// clients.
//
// Supported on read: format versions 1 through 4 (version 3/4 header
// fields are parsed and validated; this package's own writer only
// produces versions 1/2), the classic hash/block tables, the V2 hi-block
// table extension, V3+ HET extended hash tables, single-unit and
// sector-based files, per-sector and whole-file Adler32 checksums, and
// weak (RSA-512+MD5) and strong (RSA-2048+SHA-1) digital signature
// verification.
//
// Supported compression codecs: zlib, bzip2, LZMA, PKWare DCL ("implode"),
// the ADPCM mono/stereo codec used for wave audio, the adaptive Huffman
// codec audio files combine with ADPCM, and the sparse/RLE codec. The
// PKWare decoder handles the sliding-window length/distance side of the
// format in full but reads literal bytes as raw 8-bit values rather than
// through PKWARE's fixed Huffman literal tables — see pkware.go.
//
// Not supported: BET extended block tables (HET lookups resolve a name to
// a classic block table index; BET's own richer per-file flag/size fields
// are not parsed), on-the-fly patch-archive chain traversal (callers that
// need to apply a patch chain should read each archive's
// (patch_metadata) via ReadPatchMetadata and apply patches themselves),
// and generating new strong signatures (Blizzard's private key is not
// something any archive author besides Blizzard can hold).
package mpq
