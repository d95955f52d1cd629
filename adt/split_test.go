// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"testing"

	"github.com/orcaman/writerseeker"
)

func TestParseTextureFile(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MTEX", joinNullTerminated([]string{"tex/a.blp", "tex/b.blp"}))

	mcly := MclyChunk{Layers: []MclyLayer{{TextureID: 0}, {TextureID: 1, OffsInMCAL: 0, Flags: MclyFlagUseAlpha}}}
	alpha := bytes.Repeat([]byte{0x42}, 32*32)

	var mcnkBody bytes.Buffer
	mustWriteEmbedded(t, &mcnkBody, "MCLY", mcly.encode())
	mustWriteEmbedded(t, &mcnkBody, "MCAL", alpha)
	mustWriteChunk(t, &buf, "MCNK", mcnkBody.Bytes())

	tex, _, err := ParseTextureFile(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseTextureFile: %v", err)
	}
	if len(tex.Textures) != 2 || tex.Textures[0] != "tex/a.blp" {
		t.Fatalf("texture list mismatch: %v", tex.Textures)
	}
	if len(tex.Mcnks) != 1 {
		t.Fatalf("got %d MCNK texture entries, want 1", len(tex.Mcnks))
	}
	mt := tex.Mcnks[0]
	if mt.Layers == nil || len(mt.Layers.Layers) != 2 {
		t.Fatalf("expected 2 layers decoded from the embedded MCLY, got %+v", mt.Layers)
	}
	if mt.Alpha == nil {
		t.Fatalf("expected an embedded MCAL to be decoded")
	}
	got := mt.Alpha.LayerAlpha(0, uint32(len(alpha)))
	if !bytes.Equal(got, alpha) {
		t.Errorf("embedded alpha map mismatch")
	}
}

func TestParseObjectFile(t *testing.T) {
	var buf writerseeker.WriterSeeker
	mustWriteChunk(t, &buf, "MVER", MverChunk{Version: MverFileVersion}.encode())
	mustWriteChunk(t, &buf, "MMDX", joinNullTerminated([]string{"model/tree.m2"}))
	mustWriteChunk(t, &buf, "MMID", encodeU32Array([]uint32{0}))

	var mcnkBody bytes.Buffer
	mcrd := McrdChunk{DoodadRefs: []uint32{0, 0, 1}}
	mustWriteEmbedded(t, &mcnkBody, "MCRD", mcrd.encode())
	mustWriteChunk(t, &buf, "MCNK", mcnkBody.Bytes())

	obj, _, err := ParseObjectFile(bytes.NewReader(readAll(t, &buf)))
	if err != nil {
		t.Fatalf("ParseObjectFile: %v", err)
	}
	if len(obj.Models) != 1 || obj.Models[0] != "model/tree.m2" {
		t.Fatalf("model list mismatch: %v", obj.Models)
	}
	if len(obj.ModelIndices) != 1 {
		t.Fatalf("model index mismatch: %v", obj.ModelIndices)
	}
	if len(obj.Mcnks) != 1 {
		t.Fatalf("got %d MCNK object entries, want 1", len(obj.Mcnks))
	}
	if !equalU32(obj.Mcnks[0].DoodadRefs, []uint32{0, 0, 1}) {
		t.Errorf("doodad refs mismatch: %v", obj.Mcnks[0].DoodadRefs)
	}
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mustWriteEmbedded appends a sub-chunk header+body directly to buf, the
// headerless-container form scanEmbeddedSubchunks expects inside a split
// file's MCNK (as opposed to chunkio.WriteChunk's top-level use, which
// writes straight to an io.Writer rather than building up a body first).
func mustWriteEmbedded(t *testing.T, buf *bytes.Buffer, id string, body []byte) {
	t.Helper()
	var hdr [8]byte
	hdr[0], hdr[1], hdr[2], hdr[3] = id[3], id[2], id[1], id[0]
	le := uint32(len(body))
	hdr[4] = byte(le)
	hdr[5] = byte(le >> 8)
	hdr[6] = byte(le >> 16)
	hdr[7] = byte(le >> 24)
	buf.Write(hdr[:])
	buf.Write(body)
}
