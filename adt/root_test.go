// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"testing"

	"github.com/kaelthas/wowdata/internal/chunkio"
	"github.com/orcaman/writerseeker"
)

func mustWriteChunk(t *testing.T, w *writerseeker.WriterSeeker, id string, body []byte) {
	t.Helper()
	if err := chunkio.WriteChunk(w, id, body); err != nil {
		t.Fatalf("WriteChunk(%s): %v", id, err)
	}
}

func emptyMcnk() []byte {
	return make([]byte, mcnkHeaderSize)
}

func TestParseRootMissingMHDR(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MCNK", emptyMcnk())

	_, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err == nil {
		t.Fatalf("expected an error for a root with no MHDR")
	}
}

func TestParseRootMissingMCNK(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MHDR", make([]byte, mhdrSize))

	_, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err == nil {
		t.Fatalf("expected an error for a root with no MCNK")
	}
}

func TestParseRootMonolithicMissingMCIN(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MHDR", make([]byte, mhdrSize))
	mustWriteChunk(t, &buf, "MTEX", joinNullTerminated([]string{"a.blp"}))
	mustWriteChunk(t, &buf, "MCNK", emptyMcnk())

	_, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err == nil {
		t.Fatalf("expected an error: MTEX present but MCIN missing is not a valid split root")
	}
}

func TestParseRootMonolithicMissingMTEX(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MHDR", make([]byte, mhdrSize))
	mustWriteChunk(t, &buf, "MCIN", make([]byte, McinTileCount*mcinEntrySize))
	mustWriteChunk(t, &buf, "MCNK", emptyMcnk())

	_, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err == nil {
		t.Fatalf("expected an error: MCIN present but MTEX missing is not a valid monolithic root")
	}
}

func TestParseRootSplitRootSynthesizesEmptyMCIN(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MHDR", make([]byte, mhdrSize))
	mustWriteChunk(t, &buf, "MCNK", emptyMcnk())
	mustWriteChunk(t, &buf, "MCNK", emptyMcnk())

	root, _, err := ParseRoot(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseRoot: %v", err)
	}
	if !root.IsSplit {
		t.Errorf("expected a split root (no MCIN, no MTEX)")
	}
	if root.Mcin != (McinChunk{}) {
		t.Errorf("expected a synthesized empty MCIN, got %+v", root.Mcin)
	}
	if len(root.Mcnks) != 2 {
		t.Errorf("got %d MCNK tiles, want 2", len(root.Mcnks))
	}
}

func TestParseLODStub(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MLVH", []byte{0, 0, 0, 0})

	lod, warnings, err := ParseLOD(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseLOD: %v", err)
	}
	if len(warnings) == 0 {
		t.Errorf("expected a warning explaining the stub")
	}
	if lod == nil {
		t.Fatalf("expected a non-nil stub result")
	}
}
