// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatVersion selects which MPQ generation an archive is built or
// interpreted as.
type FormatVersion int

const (
	// FormatV1 is the original format (up to 4GB), compatible with every
	// MPQ-based game.
	FormatV1 FormatVersion = 0
	// FormatV2 is the extended format (>4GB), required for WoW: Burning
	// Crusade and later.
	FormatV2 FormatVersion = 1
)

// Archive represents an open MPQ archive handle. An Archive is not safe for
// concurrent use from multiple goroutines; callers needing concurrent
// access should open independent handles.
type Archive struct {
	file          *os.File
	path          string
	tempPath      string
	mode          string // "r" read, "w" write (fresh build), "m" modify
	header        *archiveHeader
	hashTable     []hashTableEntry
	blockTable    []blockTableEntryEx
	het           *hetTable
	bet           *betTable
	pendingFiles  []pendingFile
	removedFiles  map[string]bool
	sectorSize    uint32
	formatVersion FormatVersion
	limits        Limits

	// Warnings accumulates non-fatal conditions encountered while reading
	// or writing (a corrupt optional table, a listfile entry that could
	// not be resolved). Callers may inspect or ignore it.
	Warnings []string
}

type pendingFile struct {
	srcPath        string
	mpqPath        string
	data           []byte
	generateCRC    bool
	isPatchFile    bool
	isDeleteMarker bool
}

// Create creates a new V1-format archive able to hold up to maxFiles files.
func Create(path string, maxFiles int, opts ...Option) (*Archive, error) {
	return CreateWithVersion(path, maxFiles, FormatV1, opts...)
}

// CreateV2 creates a new V2-format archive (>4GB capable).
func CreateV2(path string, maxFiles int, opts ...Option) (*Archive, error) {
	return CreateWithVersion(path, maxFiles, FormatV2, opts...)
}

// CreateWithVersion creates a new archive with an explicit format version.
func CreateWithVersion(path string, maxFiles int, version FormatVersion, opts ...Option) (*Archive, error) {
	oo := defaultOpenOptions()
	for _, opt := range opts {
		opt(&oo)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, newErr(KindIO, "mpq.Create", path, -1, err)
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, "mpq_*.tmp")
	if err != nil {
		return nil, newErr(KindIO, "mpq.Create", path, -1, err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()

	hashTableSize := nextPowerOf2(uint32(float64(maxFiles) * 1.5))
	if hashTableSize < 16 {
		hashTableSize = 16
	}

	var headerSize uint32
	var formatVer uint16
	if version == FormatV2 {
		headerSize, formatVer = headerSizeV2, formatVersion2
	} else {
		headerSize, formatVer = headerSizeV1, formatVersion1
	}

	header := &archiveHeader{
		baseHeader: baseHeader{
			Magic:           mpqMagic,
			HeaderSize:      headerSize,
			FormatVersion:   formatVer,
			SectorSizeShift: defaultSectorSizeShift,
			HashTableSize:   hashTableSize,
		},
	}

	return &Archive{
		path:          path,
		tempPath:      tempPath,
		mode:          "w",
		header:        header,
		hashTable:     make([]hashTableEntry, hashTableSize),
		blockTable:    make([]blockTableEntryEx, 0, maxFiles),
		pendingFiles:  make([]pendingFile, 0, maxFiles),
		removedFiles:  make(map[string]bool),
		sectorSize:    defaultSectorSize,
		formatVersion: version,
		limits:        oo.limits,
	}, nil
}

// Open opens an existing archive for reading. Both V1 and V2 headers are
// understood; V3/V4 headers are parsed for their extra fields but this
// package's classic-table read path is still used unless the archive
// additionally carries HET/BET tables, in which case HET is consulted as a
// fallback for findFile.
func Open(path string, opts ...Option) (*Archive, error) {
	oo := defaultOpenOptions()
	for _, opt := range opts {
		opt(&oo)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, newErr(KindIO, "mpq.Open", path, -1, err)
	}

	a, err := loadArchive(file, path, oo.limits)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.mode = "r"
	return a, nil
}

// OpenForModify opens an existing archive for in-place modification; the
// archive is rewritten to disk when Close is called.
func OpenForModify(path string, opts ...Option) (*Archive, error) {
	oo := defaultOpenOptions()
	for _, opt := range opts {
		opt(&oo)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, newErr(KindIO, "mpq.OpenForModify", path, -1, err)
	}

	a, err := loadArchive(file, path, oo.limits)
	if err != nil {
		file.Close()
		return nil, err
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, "mpq_*.tmp")
	if err != nil {
		file.Close()
		return nil, newErr(KindIO, "mpq.OpenForModify", path, -1, err)
	}
	a.tempPath = tempFile.Name()
	tempFile.Close()

	a.mode = "m"
	a.pendingFiles = make([]pendingFile, 0)
	a.removedFiles = make(map[string]bool)
	if a.header.FormatVersion >= formatVersion2 {
		a.formatVersion = FormatV2
	} else {
		a.formatVersion = FormatV1
	}
	return a, nil
}

// loadArchive does the shared header/table loading for Open and
// OpenForModify.
func loadArchive(file *os.File, path string, limits Limits) (*Archive, error) {
	header, err := findArchiveHeader(file)
	if err != nil {
		return nil, newErr(KindFormatInvalid, "mpq.Open", path, -1, err)
	}

	if header.Magic != mpqMagic {
		return nil, newErr(KindFormatInvalid, "mpq.Open", path, -1, fmt.Errorf("bad magic 0x%08X", header.Magic))
	}
	if header.FormatVersion > formatVersion4 {
		return nil, newErr(KindUnsupportedVersion, "mpq.Open", path, -1, fmt.Errorf("format version %d", header.FormatVersion))
	}
	if err := limits.checkTableSize("hash", header.HashTableSize, limits.MaxHashTableEntries); err != nil {
		return nil, newErr(KindSecurityViolation, "mpq.Open", path, -1, err)
	}
	if err := limits.checkTableSize("block", header.BlockTableSize, limits.MaxBlockTableEntries); err != nil {
		return nil, newErr(KindSecurityViolation, "mpq.Open", path, -1, err)
	}

	hashTable, err := readHashTable(file, header)
	if err != nil {
		return nil, newErr(KindIO, "mpq.Open", path, -1, err)
	}

	blockTable, err := readBlockTable(file, header)
	if err != nil {
		return nil, newErr(KindIO, "mpq.Open", path, -1, err)
	}

	a := &Archive{
		file:       file,
		path:       path,
		header:     header,
		hashTable:  hashTable,
		blockTable: blockTable,
		sectorSize: 1 << header.SectorSizeShift,
		limits:     limits,
	}

	if header.hasHetBet() {
		if het, err := a.loadHetTable(); err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("HET table unavailable: %v", err))
		} else {
			a.het = het
		}
		if bet, err := a.loadBetTable(); err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("BET table unavailable: %v", err))
		} else {
			a.bet = bet
		}
	}

	return a, nil
}

func readHashTable(file *os.File, header *archiveHeader) ([]hashTableEntry, error) {
	offset := header.getHashTableOffset64() + header.ArchiveOffset
	if _, err := file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	data := make([]uint32, header.HashTableSize*4)
	if err := readUint32Array(file, data); err != nil {
		return nil, err
	}
	decryptBlock(data, hashString("(hash table)", hashTypeFileKey))

	table := make([]hashTableEntry, header.HashTableSize)
	for i := range table {
		table[i] = hashTableEntry{
			HashA:      data[i*4],
			HashB:      data[i*4+1],
			Locale:     uint16(data[i*4+2] & 0xFFFF),
			Platform:   uint16(data[i*4+2] >> 16),
			BlockIndex: data[i*4+3],
		}
	}
	return table, nil
}

func readBlockTable(file *os.File, header *archiveHeader) ([]blockTableEntryEx, error) {
	offset := header.getBlockTableOffset64() + header.ArchiveOffset
	if _, err := file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}

	data := make([]uint32, header.BlockTableSize*4)
	if err := readUint32Array(file, data); err != nil {
		return nil, err
	}
	decryptBlock(data, hashString("(block table)", hashTypeFileKey))

	table := make([]blockTableEntryEx, header.BlockTableSize)
	for i := range table {
		table[i] = blockTableEntryEx{
			blockTableEntry: blockTableEntry{
				FilePos:        data[i*4],
				CompressedSize: data[i*4+1],
				FileSize:       data[i*4+2],
				Flags:          data[i*4+3],
			},
		}
	}

	if header.FormatVersion >= formatVersion2 && header.HiBlockTableOffset64 != 0 {
		hiOffset := header.HiBlockTableOffset64 + header.ArchiveOffset
		if _, err := file.Seek(int64(hiOffset), io.SeekStart); err != nil {
			return nil, err
		}
		hi := make([]uint16, header.BlockTableSize)
		if err := readUint16Array(file, hi); err != nil {
			return nil, err
		}
		for i := range table {
			table[i].FilePosHi = hi[i]
		}
	}

	return table, nil
}

func (a *Archive) loadHetTable() (*hetTable, error) {
	if _, err := a.file.Seek(int64(a.header.HetTableOffset+a.header.ArchiveOffset), io.SeekStart); err != nil {
		return nil, err
	}
	raw := make([]byte, 4096)
	n, err := a.file.Read(raw)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return parseHetTable(raw[:n])
}

func (a *Archive) loadBetTable() (*betTable, error) {
	if _, err := a.file.Seek(int64(a.header.BetTableOffset+a.header.ArchiveOffset), io.SeekStart); err != nil {
		return nil, err
	}
	raw := make([]byte, 8192)
	n, err := a.file.Read(raw)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return parseBetTable(raw[:n])
}

// findArchiveHeader locates the MPQ header within f. Archives are
// frequently shipped with an arbitrary "shunt" prefix — a self-extracting
// installer stub, a patch user-data block — before the real header, so the
// header is not assumed to start at byte 0. Per the format's own
// constraint, a header can only begin on a 512-byte boundary.
func findArchiveHeader(f *os.File) (*archiveHeader, error) {
	const scanStep = 512
	var probe [4]byte

	for offset := int64(0); ; offset += scanStep {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		n, err := f.Read(probe[:])
		if err == io.EOF || n < 4 {
			return nil, fmt.Errorf("no MPQ header found")
		}
		if err != nil {
			return nil, err
		}

		magic := binary.LittleEndian.Uint32(probe[:])
		if magic != mpqMagic {
			continue
		}

		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		header, err := readArchiveHeader(f)
		if err != nil {
			return nil, err
		}
		header.ArchiveOffset = uint64(offset)
		return header, nil
	}
}

// AddFile adds a file from disk to a "w"/"m"-mode archive.
func (a *Archive) AddFile(srcPath, mpqPath string) error {
	return a.AddFileWithOptions(srcPath, mpqPath, false)
}

// AddFileWithCRC is AddFile with per-sector/single-unit Adler32 generation
// enabled.
func (a *Archive) AddFileWithCRC(srcPath, mpqPath string) error {
	return a.AddFileWithOptions(srcPath, mpqPath, true)
}

// AddFileWithOptions adds a file with explicit CRC generation control.
func (a *Archive) AddFileWithOptions(srcPath, mpqPath string, generateCRC bool) error {
	if a.mode != "w" && a.mode != "m" {
		return newErr(KindIO, "AddFile", mpqPath, -1, fmt.Errorf("archive not opened for writing"))
	}

	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")
	if err := validatePath(mpqPath); err != nil {
		return newErr(KindSecurityViolation, "AddFile", mpqPath, -1, err)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return newErr(KindIO, "AddFile", mpqPath, -1, err)
	}

	a.pendingFiles = append(a.pendingFiles, pendingFile{
		srcPath:     srcPath,
		mpqPath:     mpqPath,
		data:        data,
		generateCRC: generateCRC,
	})
	return nil
}

// AddPatchFile adds a file marked FILE_PATCH_FILE, for archives that will
// be consumed by a caller-owned patch-chain mechanism (this package does
// not itself implement on-the-fly chain traversal).
func (a *Archive) AddPatchFile(srcPath, mpqPath string) error {
	if a.mode != "w" && a.mode != "m" {
		return newErr(KindIO, "AddPatchFile", mpqPath, -1, fmt.Errorf("archive not opened for writing"))
	}
	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")
	if err := validatePath(mpqPath); err != nil {
		return newErr(KindSecurityViolation, "AddPatchFile", mpqPath, -1, err)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return newErr(KindIO, "AddPatchFile", mpqPath, -1, err)
	}

	a.pendingFiles = append(a.pendingFiles, pendingFile{
		srcPath: srcPath, mpqPath: mpqPath, data: data, isPatchFile: true,
	})
	return nil
}

// AddDeleteMarker adds a FILE_DELETE_MARKER entry for mpqPath.
func (a *Archive) AddDeleteMarker(mpqPath string) error {
	if a.mode != "w" && a.mode != "m" {
		return newErr(KindIO, "AddDeleteMarker", mpqPath, -1, fmt.Errorf("archive not opened for writing"))
	}
	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")
	a.pendingFiles = append(a.pendingFiles, pendingFile{mpqPath: mpqPath, isDeleteMarker: true})
	return nil
}

// RemoveFile marks mpqPath for removal; only valid on an OpenForModify
// handle.
func (a *Archive) RemoveFile(mpqPath string) error {
	if a.mode != "m" {
		return newErr(KindIO, "RemoveFile", mpqPath, -1, fmt.Errorf("archive not opened for modification"))
	}
	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")
	if !a.HasFile(mpqPath) {
		return newErr(KindNotFound, "RemoveFile", mpqPath, -1, nil)
	}
	a.removedFiles[mpqPath] = true
	return nil
}

// ExtractFile decompresses and decrypts mpqPath and writes it to destPath.
func (a *Archive) ExtractFile(mpqPath, destPath string) error {
	data, err := a.ReadFile(mpqPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return newErr(KindIO, "ExtractFile", mpqPath, -1, err)
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return newErr(KindIO, "ExtractFile", mpqPath, -1, err)
	}
	return nil
}

// ReadFile decompresses and decrypts mpqPath, returning its contents in
// memory. ExtractFile is ReadFile plus a write to disk.
func (a *Archive) ReadFile(mpqPath string) ([]byte, error) {
	if a.mode != "r" && a.mode != "m" {
		return nil, newErr(KindIO, "ReadFile", mpqPath, -1, fmt.Errorf("archive not opened for reading"))
	}
	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")

	block, err := a.findFile(mpqPath)
	if err != nil {
		return nil, err
	}

	blockPos := block.getFilePos64()
	filePos := blockPos + a.header.ArchiveOffset
	if _, err := a.file.Seek(int64(filePos), io.SeekStart); err != nil {
		return nil, newErr(KindIO, "ReadFile", mpqPath, int64(filePos), err)
	}

	compressedData := make([]byte, block.CompressedSize)
	if _, err := io.ReadFull(a.file, compressedData); err != nil {
		return nil, newErr(KindIO, "ReadFile", mpqPath, int64(filePos), err)
	}

	if err := a.limits.checkDecompressedSize(block.FileSize, block.CompressedSize); err != nil {
		return nil, newErr(KindResourceExhaustion, "ReadFile", mpqPath, int64(filePos), err)
	}

	var fileData []byte

	switch {
	case block.Flags&fileEncrypted != 0:
		key := getFileKey(mpqPath, blockPos, block.FileSize, block.Flags)
		if block.Flags&fileSingleUnit != 0 {
			fileData, err = a.decryptAndDecompressSingleUnit(compressedData, block, key)
		} else {
			fileData, err = a.decryptAndDecompressSectors(compressedData, block, key)
		}
		if err != nil {
			return nil, newErr(KindCrypto, "ReadFile", mpqPath, int64(filePos), err)
		}

	case block.Flags&fileCompress != 0:
		if block.Flags&fileSingleUnit != 0 {
			fileData, err = a.decompressSingleUnit(compressedData, block)
		} else {
			fileData, err = a.decompressSectors(compressedData, block)
		}
		if err != nil {
			return nil, newErr(KindCompression, "ReadFile", mpqPath, int64(filePos), err)
		}

	default:
		fileData, err = a.validateOptionalCRC(compressedData, block)
		if err != nil {
			return nil, newErr(KindChecksumMismatch, "ReadFile", mpqPath, int64(filePos), err)
		}
	}

	return fileData, nil
}

func (a *Archive) decompressSingleUnit(data []byte, block *blockTableEntryEx) ([]byte, error) {
	if block.Flags&fileSectorCRC != 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("missing sector CRC for single unit file")
		}
		payload := data[:len(data)-4]
		crcExpected := binary.LittleEndian.Uint32(data[len(data)-4:])
		decompressed, err := decompressData(payload, block.FileSize)
		if err != nil {
			return nil, err
		}
		if adler32(decompressed) != crcExpected {
			return nil, fmt.Errorf("sector CRC mismatch")
		}
		return decompressed, nil
	}
	if block.CompressedSize < block.FileSize {
		return decompressData(data, block.FileSize)
	}
	return data, nil
}

func (a *Archive) validateOptionalCRC(data []byte, block *blockTableEntryEx) ([]byte, error) {
	if block.Flags&fileSingleUnit != 0 && block.Flags&fileSectorCRC != 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("missing sector CRC for single unit file")
		}
		payload := data[:len(data)-4]
		crcExpected := binary.LittleEndian.Uint32(data[len(data)-4:])
		if adler32(payload) != crcExpected {
			return nil, fmt.Errorf("sector CRC mismatch")
		}
		return payload, nil
	}
	return data, nil
}

func (a *Archive) decryptAndDecompressSingleUnit(data []byte, block *blockTableEntryEx, key uint32) ([]byte, error) {
	decryptBytes(data, key)

	if block.Flags&fileCompress != 0 && block.CompressedSize < block.FileSize {
		return decompressData(data, block.FileSize)
	}
	if block.Flags&fileSectorCRC != 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("missing sector CRC for single unit file")
		}
		payload := data[:len(data)-4]
		crcExpected := binary.LittleEndian.Uint32(data[len(data)-4:])
		if adler32(payload) != crcExpected {
			return nil, fmt.Errorf("sector CRC mismatch")
		}
		return payload, nil
	}
	return data, nil
}

func (a *Archive) decryptAndDecompressSectors(data []byte, block *blockTableEntryEx, key uint32) ([]byte, error) {
	numSectors := (block.FileSize + a.sectorSize - 1) / a.sectorSize
	offsetTableSize := (numSectors + 1) * 4

	if uint32(len(data)) < offsetTableSize {
		return nil, fmt.Errorf("data too small for sector offset table")
	}

	offsetTable := make([]uint32, numSectors+1)
	for i := range offsetTable {
		offsetTable[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	decryptBlock(offsetTable, key-1)

	var sectorCRCs []uint32
	dataOffset := offsetTableSize
	if block.Flags&fileSectorCRC != 0 {
		firstDataOffset := offsetTable[0]
		crcTableEnd := offsetTableSize + numSectors*4
		if firstDataOffset >= crcTableEnd {
			if crcTableEnd > uint32(len(data)) {
				return nil, fmt.Errorf("sector CRC table out of range")
			}
			sectorCRCs = make([]uint32, numSectors)
			for i := uint32(0); i < numSectors; i++ {
				sectorCRCs[i] = binary.LittleEndian.Uint32(data[offsetTableSize+i*4:])
			}
			decryptBlock(sectorCRCs, key-1+numSectors)
			dataOffset = crcTableEnd
		}
	}
	_ = dataOffset

	result := make([]byte, 0, block.FileSize)
	for i := uint32(0); i < numSectors; i++ {
		sectorStart, sectorEnd := offsetTable[i], offsetTable[i+1]
		if sectorStart > uint32(len(data)) || sectorEnd > uint32(len(data)) || sectorEnd < sectorStart {
			return nil, fmt.Errorf("invalid sector offsets %d-%d", sectorStart, sectorEnd)
		}

		sectorData := make([]byte, sectorEnd-sectorStart)
		copy(sectorData, data[sectorStart:sectorEnd])
		decryptBytes(sectorData, key+i)

		expectedSize := a.sectorSize
		if i == numSectors-1 {
			expectedSize = block.FileSize - i*a.sectorSize
		}

		var sectorOutput []byte
		if block.Flags&fileCompress != 0 && uint32(len(sectorData)) < expectedSize {
			decompressed, err := decompressData(sectorData, expectedSize)
			if err != nil {
				return nil, fmt.Errorf("decompress sector %d: %w", i, err)
			}
			sectorOutput = decompressed
		} else {
			sectorOutput = sectorData
		}

		if len(sectorCRCs) > 0 && adler32(sectorOutput) != sectorCRCs[i] {
			return nil, fmt.Errorf("sector CRC mismatch for sector %d", i)
		}

		result = append(result, sectorOutput...)
	}
	return result, nil
}

func (a *Archive) decompressSectors(data []byte, block *blockTableEntryEx) ([]byte, error) {
	numSectors := (block.FileSize + a.sectorSize - 1) / a.sectorSize
	offsetTableSize := (numSectors + 1) * 4

	if uint32(len(data)) < offsetTableSize {
		return nil, fmt.Errorf("data too small for sector offset table")
	}

	offsetTable := make([]uint32, numSectors+1)
	for i := range offsetTable {
		offsetTable[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	result := make([]byte, 0, block.FileSize)
	for i := uint32(0); i < numSectors; i++ {
		sectorStart, sectorEnd := offsetTable[i], offsetTable[i+1]
		if sectorStart > uint32(len(data)) || sectorEnd > uint32(len(data)) || sectorEnd < sectorStart {
			return nil, fmt.Errorf("invalid sector offsets %d-%d", sectorStart, sectorEnd)
		}
		sectorData := data[sectorStart:sectorEnd]

		expectedSize := a.sectorSize
		if i == numSectors-1 {
			expectedSize = block.FileSize - i*a.sectorSize
		}

		if uint32(len(sectorData)) < expectedSize {
			decompressed, err := decompressData(sectorData, expectedSize)
			if err != nil {
				return nil, fmt.Errorf("decompress sector %d: %w", i, err)
			}
			result = append(result, decompressed...)
		} else {
			result = append(result, sectorData...)
		}
	}
	return result, nil
}

// ListFiles returns the archive's (listfile) contents, one entry per line.
func (a *Archive) ListFiles() ([]string, error) {
	if a.mode != "r" && a.mode != "m" {
		return nil, newErr(KindIO, "ListFiles", "", -1, fmt.Errorf("archive not opened for reading"))
	}

	data, err := a.ReadFile("(listfile)")
	if err != nil {
		return nil, err
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	var files []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && line != "(listfile)" {
			files = append(files, line)
		}
	}
	return files, nil
}

// HasFile reports whether mpqPath is present (and not a deletion marker).
func (a *Archive) HasFile(mpqPath string) bool {
	if a.mode == "w" {
		mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")
		for _, f := range a.pendingFiles {
			if strings.EqualFold(f.mpqPath, mpqPath) {
				return !f.isDeleteMarker
			}
		}
		return false
	}

	block, err := a.findFile(mpqPath)
	if err != nil {
		return false
	}
	return block.Flags&fileDeleteMarker == 0
}

// IsDeleteMarker reports whether mpqPath is a FILE_DELETE_MARKER entry.
func (a *Archive) IsDeleteMarker(mpqPath string) bool {
	block, err := a.findFile(mpqPath)
	if err != nil {
		return false
	}
	return block.Flags&fileDeleteMarker != 0
}

// IsPatchFile reports whether mpqPath is marked FILE_PATCH_FILE.
func (a *Archive) IsPatchFile(mpqPath string) bool {
	block, err := a.findFile(mpqPath)
	if err != nil {
		return false
	}
	return block.Flags&filePatchFile != 0
}

// Close finalizes the archive. For a read handle this just closes the
// underlying file; for a write or modify handle it writes the archive to
// disk (atomically, via a temp file and rename).
func (a *Archive) Close() error {
	if a.mode == "r" {
		if a.file != nil {
			return a.file.Close()
		}
		return nil
	}

	if a.mode == "m" {
		if err := a.buildModifiedFileList(); err != nil {
			if a.file != nil {
				a.file.Close()
			}
			os.Remove(a.tempPath)
			return err
		}
		if a.file != nil {
			a.file.Close()
			a.file = nil
		}
	}

	if err := a.writeArchive(); err != nil {
		os.Remove(a.tempPath)
		return err
	}

	os.Remove(a.path)
	if err := os.Rename(a.tempPath, a.path); err != nil {
		if err := copyFile(a.tempPath, a.path); err != nil {
			os.Remove(a.tempPath)
			return newErr(KindIO, "Close", a.path, -1, err)
		}
		os.Remove(a.tempPath)
	}
	return nil
}

func (a *Archive) buildModifiedFileList() error {
	fileList, err := a.ListFiles()
	if err != nil {
		return err
	}

	pendingMap := make(map[string]pendingFile)
	for _, pf := range a.pendingFiles {
		pendingMap[strings.ReplaceAll(pf.mpqPath, "/", "\\")] = pf
	}

	newPendingFiles := make([]pendingFile, 0)

	for _, mpqPath := range fileList {
		normalized := strings.ReplaceAll(mpqPath, "/", "\\")
		if a.removedFiles[normalized] {
			continue
		}
		if normalized == "(listfile)" || normalized == "(attributes)" {
			continue
		}

		if pending, exists := pendingMap[normalized]; exists {
			newPendingFiles = append(newPendingFiles, pending)
			delete(pendingMap, normalized)
			continue
		}

		block, err := a.findFile(normalized)
		if err != nil {
			continue
		}
		if block.Flags&fileDeleteMarker != 0 {
			newPendingFiles = append(newPendingFiles, pendingFile{mpqPath: normalized, isDeleteMarker: true})
			continue
		}

		extracted, err := a.ReadFile(normalized)
		if err != nil {
			return err
		}
		newPendingFiles = append(newPendingFiles, pendingFile{
			mpqPath:     normalized,
			data:        extracted,
			generateCRC: block.Flags&fileSectorCRC != 0,
			isPatchFile: block.Flags&filePatchFile != 0,
		})
	}

	for _, pending := range pendingMap {
		newPendingFiles = append(newPendingFiles, pending)
	}

	a.pendingFiles = newPendingFiles
	return nil
}

// findFile resolves mpqPath to its block table entry, trying the classic
// hash table first and the HET table (if present) as a fallback.
func (a *Archive) findFile(mpqPath string) (*blockTableEntryEx, error) {
	mpqPath = strings.ReplaceAll(mpqPath, "/", "\\")

	hashA := hashString(mpqPath, hashTypeNameA)
	hashB := hashString(mpqPath, hashTypeNameB)
	startIndex := hashString(mpqPath, hashTypeTableOffset) % a.header.HashTableSize

	for i := uint32(0); i < a.header.HashTableSize; i++ {
		idx := (startIndex + i) % a.header.HashTableSize
		entry := &a.hashTable[idx]

		if entry.BlockIndex == hashTableEmpty {
			break
		}
		if entry.BlockIndex == hashTableDeleted {
			continue
		}
		if entry.HashA == hashA && entry.HashB == hashB && entry.BlockIndex < uint32(len(a.blockTable)) {
			block := &a.blockTable[entry.BlockIndex]
			if block.Flags&fileExists != 0 {
				return block, nil
			}
		}
	}

	if a.het != nil {
		if idx, ok := a.het.lookup(mpqPath); ok && idx < uint32(len(a.blockTable)) {
			block := &a.blockTable[idx]
			if block.Flags&fileExists != 0 {
				return block, nil
			}
		}
	}

	return nil, newErr(KindNotFound, "findFile", mpqPath, -1, nil)
}

func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// PatchMetadata describes the (patch_metadata) special file carried by
// patch archives, identifying which base file a patch applies to.
type PatchMetadata struct {
	BaseMD5      [16]byte
	PatchMD5     [16]byte
	BaseFileSize uint32
}

// ReadPatchMetadata reads the optional (patch_metadata) file. It returns
// (nil, nil) if the archive carries none.
func (a *Archive) ReadPatchMetadata() (*PatchMetadata, error) {
	data, err := a.ReadFile("(patch_metadata)")
	if err != nil {
		return nil, nil
	}
	if len(data) < 36 {
		return nil, newErr(KindFormatInvalid, "ReadPatchMetadata", "(patch_metadata)", -1, fmt.Errorf("too small"))
	}

	meta := &PatchMetadata{}
	copy(meta.BaseMD5[:], data[0:16])
	copy(meta.PatchMD5[:], data[16:32])
	meta.BaseFileSize = binary.LittleEndian.Uint32(data[32:36])
	return meta, nil
}
