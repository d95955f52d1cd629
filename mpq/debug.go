// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"strings"
)

// DebugInfo summarizes an open archive's header and table layout, for
// diagnostic tools and tests rather than for any runtime decision this
// package itself makes.
type DebugInfo struct {
	FormatVersion    uint16
	ArchiveOffset    uint64
	HashTableOffset  uint64
	HashTableSize    uint32
	BlockTableOffset uint64
	BlockTableSize   uint32
	HasHetBet        bool
	FileCount        int
}

// DebugInfo reports a.header and table sizes in one call, for tools that
// want to print an archive summary without reaching into package-private
// fields directly.
func (a *Archive) DebugInfo() DebugInfo {
	fileCount := 0
	for _, b := range a.blockTable {
		if b.Flags&fileExists != 0 {
			fileCount++
		}
	}

	return DebugInfo{
		FormatVersion:    a.header.FormatVersion,
		ArchiveOffset:    a.header.ArchiveOffset,
		HashTableOffset:  a.header.getHashTableOffset64(),
		HashTableSize:    a.header.HashTableSize,
		BlockTableOffset: a.header.getBlockTableOffset64(),
		BlockTableSize:   a.header.BlockTableSize,
		HasHetBet:        a.header.hasHetBet(),
		FileCount:        fileCount,
	}
}

// blockFlagNames pairs each block table flag with its display name, used by
// FormatBlockFlags and test diagnostics.
var blockFlagNames = []struct {
	flag uint32
	name string
}{
	{fileImplode, "IMPLODE"},
	{fileCompress, "COMPRESS"},
	{fileEncrypted, "ENCRYPTED"},
	{fileFixKey, "FIX_KEY"},
	{filePatchFile, "PATCH"},
	{fileSingleUnit, "SINGLE_UNIT"},
	{fileDeleteMarker, "DELETE_MARKER"},
	{fileSectorCRC, "SECTOR_CRC"},
	{fileExists, "EXISTS"},
}

// FormatBlockFlags renders a block table entry's flag word as a
// human-readable list, e.g. "0x81000200 (COMPRESS | SINGLE_UNIT | EXISTS)".
func FormatBlockFlags(flags uint32) string {
	var names []string
	for _, f := range blockFlagNames {
		if flags&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("0x%08X (none)", flags)
	}
	return fmt.Sprintf("0x%08X (%s)", flags, strings.Join(names, " | "))
}

// HexDump renders data as a classic 16-bytes-per-line offset/hex/ASCII
// dump, truncated to maxBytes (0 means unlimited).
func HexDump(data []byte, maxBytes int) string {
	limit := len(data)
	if maxBytes > 0 && maxBytes < limit {
		limit = maxBytes
	}

	var b strings.Builder
	for offset := 0; offset < limit; offset += 16 {
		end := offset + 16
		if end > limit {
			end = limit
		}
		chunk := data[offset:end]

		fmt.Fprintf(&b, "%08X  ", offset)
		for i := 0; i < 16; i++ {
			if i < len(chunk) {
				fmt.Fprintf(&b, "%02X ", chunk[i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}

		b.WriteString(" |")
		for _, by := range chunk {
			if by >= 0x20 && by < 0x7F {
				b.WriteByte(by)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}

	if limit < len(data) {
		fmt.Fprintf(&b, "... (%d more bytes)\n", len(data)-limit)
	}
	return b.String()
}
