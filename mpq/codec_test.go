// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"testing"
)

func TestCompressDecompressZlibRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	compressed, err := compressData(data)
	if err != nil {
		t.Fatalf("compressData: %v", err)
	}
	if compressed[0] != compressionZlib {
		t.Fatalf("compressData tag = 0x%02X, want 0x%02X", compressed[0], compressionZlib)
	}

	decompressed, err := decompressData(compressed, uint32(len(data)))
	if err != nil {
		t.Fatalf("decompressData: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Errorf("round trip mismatch")
	}
}

func TestDecompressDataEmptyPayload(t *testing.T) {
	if _, err := decompressData(nil, 0); err == nil {
		t.Errorf("expected an error decompressing an empty payload")
	}
}

func TestCompressSparseRoundTrip(t *testing.T) {
	data := make([]byte, 10000)
	for i := 1000; i < 1050; i++ {
		data[i] = byte(i)
	}

	compressed := compressSparse(data)
	decompressed, err := decompressSparse(compressed, uint32(len(data)))
	if err != nil {
		t.Fatalf("decompressSparse: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Errorf("sparse round trip mismatch")
	}
}

func TestChecksums(t *testing.T) {
	data := []byte("StormLib compatible checksum test data")

	a := adler32(data)
	if a == 0 {
		t.Errorf("adler32 returned 0 for non-empty input")
	}
	c := crc32sum(data)
	if c == 0 {
		t.Errorf("crc32sum returned 0 for non-empty input")
	}

	// Both must be deterministic.
	if adler32(data) != a {
		t.Errorf("adler32 is not deterministic")
	}
	if crc32sum(data) != c {
		t.Errorf("crc32sum is not deterministic")
	}
}
