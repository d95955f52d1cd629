// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

// Normal is a packed signed-byte normal vector, each component scaled so
// that +-127 spans -1.0..1.0.
type Normal struct {
	X, Y, Z int8
}

const mcnrPaddingSize = 13

// McnrChunk holds one signed-byte normal per MCVT height sample, in the
// same interleaved 17-row ordering, followed by 13 bytes of padding the
// client never reads (some tools repurpose it for a low-res normal LOD;
// this package round-trips it verbatim without interpreting it).
type McnrChunk struct {
	Normals [VertexCount]Normal
	Padding [mcnrPaddingSize]byte
}

const mcnrSize = VertexCount*3 + mcnrPaddingSize

func parseMcnrChunk(payload []byte) (McnrChunk, error) {
	var c McnrChunk
	if len(payload) < mcnrSize {
		return c, newErr(KindFormatInvalid, "parseMcnrChunk", "MCNR", -1, nil)
	}
	for i := 0; i < VertexCount; i++ {
		c.Normals[i] = Normal{
			X: int8(payload[i*3]),
			Y: int8(payload[i*3+1]),
			Z: int8(payload[i*3+2]),
		}
	}
	copy(c.Padding[:], payload[VertexCount*3:mcnrSize])
	return c, nil
}

func (c McnrChunk) encode() []byte {
	buf := make([]byte, mcnrSize)
	for i, n := range c.Normals {
		buf[i*3] = byte(n.X)
		buf[i*3+1] = byte(n.Y)
		buf[i*3+2] = byte(n.Z)
	}
	copy(buf[VertexCount*3:], c.Padding[:])
	return buf
}

// GetOuterNormal and GetInnerNormal mirror McvtChunk's accessors.
func (c McnrChunk) GetOuterNormal(x, y int) Normal { return c.Normals[vertexIndex(x, y*2)] }
func (c McnrChunk) GetInnerNormal(x, y int) Normal { return c.Normals[vertexIndex(x, y*2+1)] }

// SetOuterNormal and SetInnerNormal are the corresponding writers.
func (c *McnrChunk) SetOuterNormal(x, y int, n Normal) { c.Normals[vertexIndex(x, y*2)] = n }
func (c *McnrChunk) SetInnerNormal(x, y int, n Normal) { c.Normals[vertexIndex(x, y*2+1)] = n }
