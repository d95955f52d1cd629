// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// Compression tag bytes. LZMA (0x12) is a distinct value, not a bit within
// the flag mask the others form; compressionHuffman/ADPCM are only ever
// combined with a primary codec for audio files.
const (
	compressionHuffman   = 0x01
	compressionZlib      = 0x02
	compressionPKWare    = 0x08
	compressionBzip2     = 0x10
	compressionSparse    = 0x20
	compressionADPCMMono = 0x40
	compressionADPCM     = 0x80
	compressionLZMA      = 0x12
)

// compressData compresses a sector or single-unit payload with zlib, the
// codec this package always writes (MPQ readers are required to support
// zlib unconditionally, which makes it the only safe choice for a writer
// that doesn't know its target client's supported codec set).
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(compressionZlib)

	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}

	return buf.Bytes(), nil
}

// decompressData decompresses one sector or single-unit payload.
// The decode order for multi-codec tags runs outermost to innermost:
// sparse, then Huffman, then ADPCM, then the primary codec (zlib / PKWare /
// bzip2 / LZMA) — the reverse of how compressData-side pipelines apply them.
func decompressData(data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) == 0 {
		return nil, newErr(KindCompression, "decompressData", "", -1, fmt.Errorf("empty compressed payload"))
	}

	tag := data[0]
	payload := data[1:]

	switch tag {
	case compressionZlib:
		return decompressZlib(payload, uncompressedSize)
	case compressionPKWare:
		return decompressPKWare(payload, uncompressedSize)
	case compressionBzip2:
		return decompressBzip2(payload, uncompressedSize)
	case compressionLZMA:
		return decompressLZMA(payload, uncompressedSize)
	case compressionHuffman:
		return decompressHuffman(payload, uncompressedSize)
	case compressionADPCMMono:
		return decompressADPCM(payload, uncompressedSize, 1)
	case compressionADPCM:
		return decompressADPCM(payload, uncompressedSize, 2)
	case compressionSparse:
		return decompressSparse(payload, uncompressedSize)
	}

	// Multi-codec pipeline: tag is a bitmask of the stages applied, in the
	// order listed in the doc comment above. Each stage's own expected
	// output size is the final uncompressedSize; only the primary codec
	// actually changes the byte count in practice for game data.
	result := payload
	var err error

	if tag&compressionSparse != 0 {
		result, err = decompressSparse(result, uncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("multi sparse: %w", err)
		}
	}
	if tag&compressionHuffman != 0 {
		result, err = decompressHuffman(result, uncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("multi huffman: %w", err)
		}
	}
	if tag&compressionADPCM != 0 {
		result, err = decompressADPCM(result, uncompressedSize, 2)
		if err != nil {
			return nil, fmt.Errorf("multi adpcm stereo: %w", err)
		}
	} else if tag&compressionADPCMMono != 0 {
		result, err = decompressADPCM(result, uncompressedSize, 1)
		if err != nil {
			return nil, fmt.Errorf("multi adpcm mono: %w", err)
		}
	}
	if tag&compressionBzip2 != 0 {
		result, err = decompressBzip2(result, uncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("multi bzip2: %w", err)
		}
	} else if tag&compressionZlib != 0 {
		result, err = decompressZlib(result, uncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("multi zlib: %w", err)
		}
	} else if tag&compressionPKWare != 0 {
		result, err = decompressPKWare(result, uncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("multi pkware: %w", err)
		}
	}

	if len(result) == 0 {
		return nil, newErr(KindCompression, "decompressData", "", -1, fmt.Errorf("unsupported compression tag 0x%02X", tag))
	}
	return result, nil
}

func decompressZlib(data []byte, uncompressedSize uint32) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, newErr(KindCompression, "decompressZlib", "", -1, err)
	}
	defer r.Close()

	result := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, result)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindCompression, "decompressZlib", "", -1, err)
	}
	return result[:n], nil
}

func decompressBzip2(data []byte, uncompressedSize uint32) ([]byte, error) {
	r := bzip2.NewReader(bytes.NewReader(data))

	result := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, result)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindCompression, "decompressBzip2", "", -1, err)
	}
	return result[:n], nil
}

// decompressLZMA decompresses MPQ's LZMA sub-format: a 5-byte properties
// header (the classic lc/lp/pb + dictionary size packing) followed by a raw
// LZMA1 stream with no embedded size field, since MPQ already knows the
// uncompressed size from the block table. ulikunitz/xz's reader expects the
// classic .lzma container layout (5-byte props + 8-byte little-endian
// uncompressed size), so the size is synthesized here before handing the
// stream to the library.
func decompressLZMA(data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) < 5 {
		return nil, newErr(KindCompression, "decompressLZMA", "", -1, fmt.Errorf("truncated LZMA properties"))
	}

	var header bytes.Buffer
	header.Write(data[:5])
	binary.Write(&header, binary.LittleEndian, uint64(uncompressedSize))
	header.Write(data[5:])

	r, err := lzma.NewReader(bytes.NewReader(header.Bytes()))
	if err != nil {
		return nil, newErr(KindCompression, "decompressLZMA", "", -1, err)
	}

	result := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, result)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindCompression, "decompressLZMA", "", -1, err)
	}
	return result[:n], nil
}
