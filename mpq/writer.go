// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"io"
	"os"

	"github.com/orcaman/writerseeker"
)

// writeArchive serializes a.pendingFiles (plus a generated (listfile) and
// (attributes)) to a.tempPath as a complete MPQ archive. File data is
// written straight to the temp file after room left for the header, then
// the hash and block tables; the header is written at offset 0 last, since
// the hash/block table offsets depend on the total size of every preceding
// file.
func (a *Archive) writeArchive() error {
	out, err := os.Create(a.tempPath)
	if err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}
	defer out.Close()

	hashTableSize := a.header.HashTableSize
	if hashTableSize == 0 {
		hashTableSize = nextPowerOf2(uint32(float64(len(a.pendingFiles)+2) * 1.5))
	}

	hashTable := make([]hashTableEntry, hashTableSize)
	for i := range hashTable {
		hashTable[i].BlockIndex = hashTableEmpty
	}
	blockTable := make([]blockTableEntryEx, 0, len(a.pendingFiles)+2)

	var headerSize, formatVer uint32
	if a.formatVersion == FormatV2 {
		headerSize, formatVer = headerSizeV2, formatVersion2
	} else {
		headerSize, formatVer = headerSizeV1, formatVersion1
	}

	// Reserve space for the header; the real header is patched in after
	// tables are known, at the very end.
	if _, err := out.Seek(int64(headerSize), io.SeekStart); err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}

	sectorSize := a.sectorSize
	if sectorSize == 0 {
		sectorSize = defaultSectorSize
	}

	listfileEntries := make([]string, 0, len(a.pendingFiles))
	attrs := newAttributesWriter(len(a.pendingFiles))

	for fileIdx, pf := range a.pendingFiles {
		if pf.isDeleteMarker {
			if err := a.addToHashTable(hashTable, pf.mpqPath, uint32(len(blockTable))); err != nil {
				return err
			}
			blockTable = append(blockTable, blockTableEntryEx{blockTableEntry: blockTableEntry{
				Flags: fileExists | fileDeleteMarker,
			}})
			listfileEntries = append(listfileEntries, pf.mpqPath)
			attrs.setEntry(fileIdx, nil)
			continue
		}
		attrs.setEntry(fileIdx, pf.data)

		pos, err := out.Seek(0, io.SeekCurrent)
		if err != nil {
			return newErr(KindIO, "writeArchive", pf.mpqPath, -1, err)
		}

		compressedSize, flags, err := writeSectoredFile(out, pf.data, sectorSize, pf.generateCRC)
		if err != nil {
			return newErr(KindIO, "writeArchive", pf.mpqPath, -1, err)
		}
		if pf.isPatchFile {
			flags |= filePatchFile
		}

		if err := a.addToHashTable(hashTable, pf.mpqPath, uint32(len(blockTable))); err != nil {
			return err
		}
		block := blockTableEntryEx{blockTableEntry: blockTableEntry{
			CompressedSize: compressedSize,
			FileSize:       uint32(len(pf.data)),
			Flags:          flags | fileExists,
		}}
		block.setFilePos64(uint64(pos))
		blockTable = append(blockTable, block)
		listfileEntries = append(listfileEntries, pf.mpqPath)
	}

	// (listfile): a newline-joined member list, stored like any other file.
	var lfBuf writerseeker.WriterSeeker
	for _, name := range listfileEntries {
		fmt.Fprintf(&lfBuf, "%s\r\n", name)
	}
	listfileData := lfBuf.BytesReader()
	listfileBytes, err := io.ReadAll(listfileData)
	if err != nil {
		return newErr(KindIO, "writeArchive", "(listfile)", -1, err)
	}

	attributesBytes, err := attrs.build()
	if err != nil {
		return newErr(KindIO, "writeArchive", "(attributes)", -1, err)
	}

	specials := []struct {
		name string
		data []byte
	}{
		{"(listfile)", listfileBytes},
	}
	if attributesBytes != nil {
		specials = append(specials, struct {
			name string
			data []byte
		}{"(attributes)", attributesBytes})
	}

	for _, special := range specials {
		pos, err := out.Seek(0, io.SeekCurrent)
		if err != nil {
			return newErr(KindIO, "writeArchive", special.name, -1, err)
		}
		compressedSize, flags, err := writeSectoredFile(out, special.data, sectorSize, false)
		if err != nil {
			return newErr(KindIO, "writeArchive", special.name, -1, err)
		}
		if err := a.addToHashTable(hashTable, special.name, uint32(len(blockTable))); err != nil {
			return err
		}
		block := blockTableEntryEx{blockTableEntry: blockTableEntry{
			CompressedSize: compressedSize,
			FileSize:       uint32(len(special.data)),
			Flags:          flags | fileExists,
		}}
		block.setFilePos64(uint64(pos))
		blockTable = append(blockTable, block)
	}

	hashTableOffset, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}
	hashData := make([]uint32, len(hashTable)*4)
	for i, e := range hashTable {
		hashData[i*4] = e.HashA
		hashData[i*4+1] = e.HashB
		hashData[i*4+2] = uint32(e.Locale) | uint32(e.Platform)<<16
		hashData[i*4+3] = e.BlockIndex
	}
	encryptBlock(hashData, hashString("(hash table)", hashTypeFileKey))
	if err := writeUint32Array(out, hashData); err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}

	blockTableOffset, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}
	blockData := make([]uint32, len(blockTable)*4)
	for i, b := range blockTable {
		blockData[i*4] = b.FilePos
		blockData[i*4+1] = b.CompressedSize
		blockData[i*4+2] = b.FileSize
		blockData[i*4+3] = b.Flags
	}
	encryptBlock(blockData, hashString("(block table)", hashTypeFileKey))
	if err := writeUint32Array(out, blockData); err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}

	archiveEnd, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}

	header := &archiveHeader{
		baseHeader: baseHeader{
			Magic:            mpqMagic,
			HeaderSize:       headerSize,
			ArchiveSize:      uint32(archiveEnd),
			FormatVersion:    uint16(formatVer),
			SectorSizeShift:  defaultSectorSizeShift,
			HashTableOffset:  uint32(hashTableOffset),
			BlockTableOffset: uint32(blockTableOffset),
			HashTableSize:    hashTableSize,
			BlockTableSize:   uint32(len(blockTable)),
		},
	}
	if a.formatVersion == FormatV2 {
		header.setHashTableOffset64(uint64(hashTableOffset))
		header.setBlockTableOffset64(uint64(blockTableOffset))
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}
	if err := writeArchiveHeader(out, header); err != nil {
		return newErr(KindIO, "writeArchive", a.path, -1, err)
	}

	a.header = header
	a.hashTable = hashTable
	a.blockTable = blockTable
	return nil
}

// writeSectoredFile writes data to w as a sector-compressed file body
// (or a single stored sector if compression doesn't shrink it), returning
// the bytes written and the block flags to record.
func writeSectoredFile(w io.Writer, data []byte, sectorSize uint32, generateCRC bool) (uint32, uint32, error) {
	if len(data) == 0 {
		return 0, fileCompress, nil
	}

	numSectors := (uint32(len(data)) + sectorSize - 1) / sectorSize
	offsets := make([]uint32, numSectors+1)
	sectors := make([][]byte, numSectors)

	for i := uint32(0); i < numSectors; i++ {
		start := i * sectorSize
		end := start + sectorSize
		if end > uint32(len(data)) {
			end = uint32(len(data))
		}
		raw := data[start:end]

		compressed, err := compressData(raw)
		if err != nil {
			return 0, 0, err
		}
		if len(compressed) < len(raw) {
			sectors[i] = compressed
		} else {
			sectors[i] = raw
		}
	}

	headerSize := (numSectors + 1) * 4
	if generateCRC {
		headerSize += numSectors * 4
	}

	offsets[0] = headerSize
	for i, s := range sectors {
		offsets[i+1] = offsets[i] + uint32(len(s))
	}

	var written uint32
	if err := writeUint32Array(w, offsets); err != nil {
		return 0, 0, err
	}
	written += (numSectors + 1) * 4

	if generateCRC {
		crcs := make([]uint32, numSectors)
		for i, s := range sectors {
			crcs[i] = adler32(s)
		}
		if err := writeUint32Array(w, crcs); err != nil {
			return 0, 0, err
		}
		written += numSectors * 4
	}

	for _, s := range sectors {
		if _, err := w.Write(s); err != nil {
			return 0, 0, err
		}
		written += uint32(len(s))
	}

	flags := uint32(fileCompress)
	if generateCRC {
		flags |= fileSectorCRC
	}
	return written, flags, nil
}

// addToHashTable inserts mpqPath into hashTable via linear probing,
// recording blockIndex as its block table slot.
func (a *Archive) addToHashTable(hashTable []hashTableEntry, mpqPath string, blockIndex uint32) error {
	size := uint32(len(hashTable))
	hashA := hashString(mpqPath, hashTypeNameA)
	hashB := hashString(mpqPath, hashTypeNameB)
	start := hashString(mpqPath, hashTypeTableOffset) % size

	for i := uint32(0); i < size; i++ {
		idx := (start + i) % size
		if hashTable[idx].BlockIndex == hashTableEmpty || hashTable[idx].BlockIndex == hashTableDeleted {
			hashTable[idx] = hashTableEntry{
				HashA:      hashA,
				HashB:      hashB,
				Locale:     localeNeutral,
				BlockIndex: blockIndex,
			}
			return nil
		}
	}
	return newErr(KindResourceExhaustion, "addToHashTable", mpqPath, -1, fmt.Errorf("hash table full (%d entries)", size))
}
