// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"io"
)

// Archive format constants.
const (
	mpqMagic = 0x1A51504D // "MPQ\x1A" little-endian
	userDataMagic = 0x1B51504D // "MPQ\x1B", marks a user-data shunt block

	formatVersion1 = 0 // original, up to 4GB
	formatVersion2 = 1 // extended, Burning Crusade+
	formatVersion3 = 2 // Cataclysm+, adds 64-bit archive size and BET/HET
	formatVersion4 = 3 // adds MD5 integrity digests and raw chunk checksums

	headerSizeV1 = 0x20
	headerSizeV2 = 0x2C
	headerSizeV3 = 0x44
	headerSizeV4 = 0xD0

	// Block table entry flags.
	fileImplode      = 0x00000100
	fileCompress     = 0x00000200
	fileEncrypted    = 0x00010000
	fileFixKey       = 0x00020000
	filePatchFile    = 0x00100000
	fileSingleUnit   = 0x01000000
	fileDeleteMarker = 0x02000000
	fileSectorCRC    = 0x04000000
	fileExists       = 0x80000000

	hashTableEmpty   = 0xFFFFFFFF
	hashTableDeleted = 0xFFFFFFFE

	localeNeutral = 0x00000000

	defaultSectorSizeShift = 12
	defaultSectorSize      = 1 << defaultSectorSizeShift
)

// baseHeader is the 32-byte V1 archive header.
type baseHeader struct {
	Magic            uint32
	HeaderSize       uint32
	ArchiveSize      uint32
	FormatVersion    uint16
	SectorSizeShift  uint16
	HashTableOffset  uint32
	BlockTableOffset uint32
	HashTableSize    uint32
	BlockTableSize   uint32
}

// extendedHeader holds the 12 bytes of extra V2 fields.
type extendedHeader struct {
	HiBlockTableOffset64 uint64
	HashTableOffsetHi    uint16
	BlockTableOffsetHi   uint16
}

// headerV3 holds the 24 bytes of extra V3 fields (64-bit archive size and
// BET/HET offsets).
type headerV3 struct {
	ArchiveSize64  uint64
	BetTableOffset uint64
	HetTableOffset uint64
}

// headerV4 holds the remaining V4 fields: compressed table sizes, raw chunk
// parameters, and six MD5 digests covering the block table, hash table,
// hi-block table, BET table, HET table and the header itself.
type headerV4 struct {
	HashTableSize64     uint64
	BlockTableSize64    uint64
	HiBlockTableSize64  uint64
	HetTableSize64      uint64
	BetTableSize64      uint64
	RawChunkSize        uint32
	MD5BlockTable       [16]byte
	MD5HashTable        [16]byte
	MD5HiBlockTable     [16]byte
	MD5BetTable         [16]byte
	MD5HetTable         [16]byte
	MD5MpqHeader        [16]byte
}

// archiveHeader is the union of every header generation; fields beyond what
// FormatVersion declares are simply left at their zero value.
type archiveHeader struct {
	baseHeader
	extendedHeader
	headerV3
	headerV4

	// ArchiveOffset is the absolute byte offset of this header within the
	// underlying file. MPQ archives may be embedded after arbitrary
	// "shunt" data (e.g. an .exe self-extractor stub or patch user-data
	// block), and every table/file offset in the header is relative to
	// this point rather than to byte 0 of the file.
	ArchiveOffset uint64
}

func (h *archiveHeader) getHashTableOffset64() uint64 {
	if h.FormatVersion >= formatVersion2 {
		return uint64(h.HashTableOffset) | (uint64(h.HashTableOffsetHi) << 32)
	}
	return uint64(h.HashTableOffset)
}

func (h *archiveHeader) getBlockTableOffset64() uint64 {
	if h.FormatVersion >= formatVersion2 {
		return uint64(h.BlockTableOffset) | (uint64(h.BlockTableOffsetHi) << 32)
	}
	return uint64(h.BlockTableOffset)
}

func (h *archiveHeader) setHashTableOffset64(offset uint64) {
	h.HashTableOffset = uint32(offset)
	h.HashTableOffsetHi = uint16(offset >> 32)
}

func (h *archiveHeader) setBlockTableOffset64(offset uint64) {
	h.BlockTableOffset = uint32(offset)
	h.BlockTableOffsetHi = uint16(offset >> 32)
}

// hasHetBet reports whether this header generation carries the extended
// hash/block tables (HET/BET), introduced in V3.
func (h *archiveHeader) hasHetBet() bool {
	return h.FormatVersion >= formatVersion3 && h.HetTableOffset != 0 && h.BetTableOffset != 0
}

type hashTableEntry struct {
	HashA      uint32
	HashB      uint32
	Locale     uint16
	Platform   uint16
	BlockIndex uint32
}

type blockTableEntry struct {
	FilePos        uint32
	CompressedSize uint32
	FileSize       uint32
	Flags          uint32
}

// blockTableEntryEx adds the 64-bit file-position extension carried in the
// hi-block table (V2+).
type blockTableEntryEx struct {
	blockTableEntry
	FilePosHi uint16
}

func (b *blockTableEntryEx) getFilePos64() uint64 {
	return uint64(b.FilePos) | (uint64(b.FilePosHi) << 32)
}

func (b *blockTableEntryEx) setFilePos64(pos uint64) {
	b.FilePos = uint32(pos)
	b.FilePosHi = uint16(pos >> 32)
}

// readArchiveHeader reads every header generation present, per
// h.HeaderSize/h.FormatVersion. The caller is responsible for having seeked
// to the header's start and for recording ArchiveOffset itself.
func readArchiveHeader(r io.ReadSeeker) (*archiveHeader, error) {
	h := &archiveHeader{}

	if err := binary.Read(r, binary.LittleEndian, &h.baseHeader); err != nil {
		return nil, err
	}

	if h.FormatVersion >= formatVersion2 && h.HeaderSize >= headerSizeV2 {
		if err := binary.Read(r, binary.LittleEndian, &h.extendedHeader); err != nil {
			return nil, err
		}
	}

	if h.FormatVersion >= formatVersion3 && h.HeaderSize >= headerSizeV3 {
		if err := binary.Read(r, binary.LittleEndian, &h.headerV3); err != nil {
			return nil, err
		}
	}

	if h.FormatVersion >= formatVersion4 && h.HeaderSize >= headerSizeV4 {
		if err := binary.Read(r, binary.LittleEndian, &h.headerV4); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// writeArchiveHeader writes only the generations up to h.FormatVersion; this
// package's writer only ever produces V1/V2 archives (see writer.go), so the
// V3/V4 branches exist for header round-tripping in OpenForModify but are
// not exercised by the builder.
func writeArchiveHeader(w io.Writer, h *archiveHeader) error {
	if err := binary.Write(w, binary.LittleEndian, &h.baseHeader); err != nil {
		return err
	}
	if h.FormatVersion >= formatVersion2 {
		if err := binary.Write(w, binary.LittleEndian, &h.extendedHeader); err != nil {
			return err
		}
	}
	if h.FormatVersion >= formatVersion3 {
		if err := binary.Write(w, binary.LittleEndian, &h.headerV3); err != nil {
			return err
		}
	}
	if h.FormatVersion >= formatVersion4 {
		if err := binary.Write(w, binary.LittleEndian, &h.headerV4); err != nil {
			return err
		}
	}
	return nil
}

func readUint32Array(r io.Reader, data []uint32) error {
	return binary.Read(r, binary.LittleEndian, data)
}

func readUint16Array(r io.Reader, data []uint16) error {
	return binary.Read(r, binary.LittleEndian, data)
}

func writeUint32Array(w io.Writer, data []uint32) error {
	return binary.Write(w, binary.LittleEndian, data)
}

func writeUint16Array(w io.Writer, data []uint16) error {
	return binary.Write(w, binary.LittleEndian, data)
}
