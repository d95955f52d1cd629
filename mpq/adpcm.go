// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import "fmt"

// adpcmStepTable is the step-size table Blizzard's ADPCM codec shares with
// IMA ADPCM; only wave audio embedded in MPQ archives (rare outside old
// cinematics) uses this codec.
var adpcmStepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41,
	45, 50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190,
	209, 230, 253, 279, 307, 337, 371, 408, 449, 494, 544, 598, 658, 724,
	796, 876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066, 2272,
	2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484, 7132,
	7845, 8630, 9493, 10442, 11487, 12635, 13899, 15289, 16818, 18500,
	20350, 22385, 24623, 27086, 29794, 32767,
}

var adpcmIndexTable = [16]int32{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

type adpcmChannel struct {
	sample int32
	index  int32
}

// decompressADPCM decodes Blizzard's ADPCM wave codec. The stream opens
// with a 2-byte little-endian initial sample and a 1-byte initial step
// index per channel, followed by 4-bit nibbles (one per channel,
// interleaved) for the remainder of the stream.
func decompressADPCM(data []byte, uncompressedSize uint32, channels int) ([]byte, error) {
	if channels != 1 && channels != 2 {
		return nil, newErr(KindCompression, "decompressADPCM", "", -1, fmt.Errorf("unsupported channel count %d", channels))
	}
	if len(data) < 3*channels {
		return nil, newErr(KindCompression, "decompressADPCM", "", -1, fmt.Errorf("truncated ADPCM header"))
	}

	ch := make([]adpcmChannel, channels)
	pos := 0
	for c := 0; c < channels; c++ {
		ch[c].sample = int32(int16(uint16(data[pos]) | uint16(data[pos+1])<<8))
		pos += 2
		ch[c].index = int32(data[pos])
		pos++
	}

	out := make([]byte, 0, uncompressedSize)
	for _, c := range ch {
		out = appendInt16LE(out, int16(c.sample))
	}

	c := 0
	for pos < len(data) && uint32(len(out)) < uncompressedSize {
		b := data[pos]
		pos++
		for _, nibble := range [2]byte{b & 0x0F, b >> 4} {
			if uint32(len(out)) >= uncompressedSize {
				break
			}
			decodeADPCMNibble(&ch[c], nibble)
			out = appendInt16LE(out, int16(ch[c].sample))
			c = (c + 1) % channels
		}
	}

	if uint32(len(out)) > uncompressedSize {
		out = out[:uncompressedSize]
	}
	return out, nil
}

func decodeADPCMNibble(c *adpcmChannel, nibble byte) {
	step := adpcmStepTable[c.index]
	diff := step >> 3
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&8 != 0 {
		diff = -diff
	}

	sample := c.sample + diff
	if sample > 32767 {
		sample = 32767
	} else if sample < -32768 {
		sample = -32768
	}
	c.sample = sample

	c.index += adpcmIndexTable[nibble]
	if c.index < 0 {
		c.index = 0
	} else if c.index > int32(len(adpcmStepTable)-1) {
		c.index = int32(len(adpcmStepTable) - 1)
	}
}

func appendInt16LE(buf []byte, v int16) []byte {
	return append(buf, byte(v), byte(v>>8))
}
