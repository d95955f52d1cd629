// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Limits bounds the resources a single archive handle is willing to spend
// decoding a file, guarding against the classic archive-bomb shapes: a
// compressed sector that claims an enormous uncompressed size, or a hash/
// block table large enough to be an allocation-exhaustion attack on its own.
//
// The zero value is not usable; construct with DefaultLimits or an option.
type Limits struct {
	// MaxFileSize is the largest uncompressed file size this package will
	// allocate a buffer for.
	MaxFileSize uint32
	// MaxCompressionRatio caps uncompressedSize/compressedSize; a sector
	// claiming a ratio above this is treated as a security violation rather
	// than decompressed.
	MaxCompressionRatio uint32
	// MaxHashTableEntries and MaxBlockTableEntries bound table sizes read
	// from an untrusted header before any allocation happens.
	MaxHashTableEntries  uint32
	MaxBlockTableEntries uint32
}

// DefaultLimits returns the budget this package uses unless a caller
// supplies its own via an Option.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:          512 * 1024 * 1024, // 512 MiB: largest known client files are well under this
		MaxCompressionRatio:  1000,
		MaxHashTableEntries:  1 << 20,
		MaxBlockTableEntries: 1 << 20,
	}
}

// Option configures an Archive at Open/Create time.
type Option func(*openOptions)

type openOptions struct {
	limits Limits
}

func defaultOpenOptions() openOptions {
	return openOptions{limits: DefaultLimits()}
}

// WithLimits overrides the resource budget used for table-size validation
// and decompression-bomb defence.
func WithLimits(l Limits) Option {
	return func(o *openOptions) { o.limits = l }
}

// checkTableSize rejects a header whose declared hash/block table size would
// require an implausibly large allocation before a single byte of the table
// has been read.
func (l Limits) checkTableSize(kind string, n, max uint32) error {
	if n > max {
		return fmt.Errorf("%s table size %d exceeds limit %d", kind, n, max)
	}
	return nil
}

// checkDecompressedSize rejects an (uncompressedSize, compressedSize) pair
// whose implied ratio or absolute size look like a compression bomb rather
// than legitimate client data.
func (l Limits) checkDecompressedSize(uncompressed, compressed uint32) error {
	if uncompressed > l.MaxFileSize {
		return fmt.Errorf("uncompressed size %s exceeds limit %s",
			humanize.Bytes(uint64(uncompressed)), humanize.Bytes(uint64(l.MaxFileSize)))
	}
	if compressed > 0 {
		ratio := uint64(uncompressed) / uint64(compressed)
		if ratio > uint64(l.MaxCompressionRatio) {
			return fmt.Errorf("compression ratio %d:1 exceeds limit %d:1", ratio, l.MaxCompressionRatio)
		}
	}
	return nil
}

// reservedDeviceNames are Windows device names that must never appear as an
// archive member's base name; StormLib rejects these because extracting one
// naively on Windows opens the device instead of creating a file.
var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// validatePath rejects archive member names that could escape an extraction
// root (".." segments), contain embedded NULs, or name a reserved device.
func validatePath(mpqPath string) error {
	if strings.ContainsRune(mpqPath, 0) {
		return fmt.Errorf("embedded NUL in path %q", mpqPath)
	}
	normalized := strings.ReplaceAll(mpqPath, "\\", "/")
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return fmt.Errorf("path traversal segment in %q", mpqPath)
		}
		base := seg
		if i := strings.IndexByte(base, '.'); i >= 0 {
			base = base[:i]
		}
		if reservedDeviceNames[strings.ToUpper(base)] {
			return fmt.Errorf("reserved device name in path %q", mpqPath)
		}
	}
	return nil
}
