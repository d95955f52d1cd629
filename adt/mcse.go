// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package adt

import (
	"bytes"
	"encoding/binary"
)

// SoundEmitter is one ambient sound source placed within an MCNK tile.
type SoundEmitter struct {
	EntryID  uint32
	Position [3]float32
	Size     [3]float32
}

const soundEmitterSize = 28

// McseChunk is the sound-emitter list for one MCNK tile.
type McseChunk struct {
	Emitters []SoundEmitter
}

func parseMcseChunk(payload []byte) (McseChunk, error) {
	if len(payload)%soundEmitterSize != 0 {
		return McseChunk{}, newErr(KindFormatInvalid, "parseMcseChunk", "MCSE", -1, nil)
	}
	n := len(payload) / soundEmitterSize
	emitters := make([]SoundEmitter, n)
	r := bytes.NewReader(payload)
	for i := range emitters {
		if err := binary.Read(r, binary.LittleEndian, &emitters[i]); err != nil {
			return McseChunk{}, newErr(KindFormatInvalid, "parseMcseChunk", "MCSE", -1, err)
		}
	}
	return McseChunk{Emitters: emitters}, nil
}

func (c McseChunk) encode() []byte {
	buf := new(bytes.Buffer)
	for _, e := range c.Emitters {
		binary.Write(buf, binary.LittleEndian, &e)
	}
	return buf.Bytes()
}
