// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

// Package chunkio implements the IFF-style chunk scanning shared by every
// ADT file variant: a 4-byte id followed by a little-endian u32 size,
// repeated until EOF. World of Warcraft stores each id as its four ASCII
// characters reversed on disk (MVER is the bytes 'R','E','V','M'); this
// package normalises ids to their readable form as soon as they're read so
// nothing above it ever has to reverse a byte string again.
package chunkio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Location records where a chunk's header starts on disk and how large its
// payload is. Offset always points at the first byte of the 4-byte id, not
// at the payload.
type Location struct {
	ID     string
	Offset int64
	Size   uint32
}

// PayloadOffset is the offset of the first payload byte, i.e. Offset+8.
func (l Location) PayloadOffset() int64 { return l.Offset + 8 }

// End is the offset one past the chunk's payload.
func (l Location) End() int64 { return l.Offset + 8 + int64(l.Size) }

// Discovery is the result of scanning a file's chunk stream: every chunk id
// seen, in file order, keyed by its normalised 4-character name. MCNK (and,
// in split object/texture files, MCNK again under a different payload
// shape) appears up to 256 times in one file, so each id maps to a slice,
// not a single Location.
type Discovery struct {
	order    []string
	byID     map[string][]Location
	fileSize int64
}

// Chunks returns every Location discovered for id, in file order, or nil if
// id was never seen.
func (d *Discovery) Chunks(id string) []Location { return d.byID[id] }

// First returns the first Location discovered for id, and whether one was
// found at all.
func (d *Discovery) First(id string) (Location, bool) {
	locs := d.byID[id]
	if len(locs) == 0 {
		return Location{}, false
	}
	return locs[0], true
}

// Has reports whether at least one chunk with the given id was discovered.
func (d *Discovery) Has(id string) bool { return len(d.byID[id]) > 0 }

// IDsInOrder returns the distinct chunk ids discovered, each in the order
// its first occurrence was seen.
func (d *Discovery) IDsInOrder() []string { return d.order }

// FileSize is the total length of the scanned stream.
func (d *Discovery) FileSize() int64 { return d.fileSize }

// reverseID turns the 4 raw on-disk bytes of a chunk id into its readable,
// conventional form (the bytes are stored back-to-front).
func reverseID(raw [4]byte) string {
	return string([]byte{raw[3], raw[2], raw[1], raw[0]})
}

// Discover scans r, an io.ReadSeeker positioned anywhere (it is always
// re-seeked to 0 first), for the chunk stream described above. It returns
// an error if a chunk header is truncated mid-read, or if a chunk's
// declared payload would extend past the end of the stream.
func Discover(r io.ReadSeeker) (*Discovery, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("chunkio: seek end: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("chunkio: seek start: %w", err)
	}

	d := &Discovery{byID: make(map[string][]Location), fileSize: size}

	var pos int64
	hdr := make([]byte, 8)
	for pos < size {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, fmt.Errorf("chunkio: seek %d: %w", pos, err)
		}
		n, err := io.ReadFull(r, hdr)
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunkio: truncated chunk header at offset %d: %w", pos, err)
		}

		var rawID [4]byte
		copy(rawID[:], hdr[:4])
		id := reverseID(rawID)
		chunkSize := binary.LittleEndian.Uint32(hdr[4:8])

		if pos+8+int64(chunkSize) > size {
			return nil, fmt.Errorf("chunkio: chunk %q at offset %d overruns file (size %d, remaining %d)",
				id, pos, chunkSize, size-pos-8)
		}

		if _, ok := d.byID[id]; !ok {
			d.order = append(d.order, id)
		}
		d.byID[id] = append(d.byID[id], Location{ID: id, Offset: pos, Size: chunkSize})

		pos += 8 + int64(chunkSize)
	}

	return d, nil
}

// ReadPayload reads the payload bytes of a single chunk Location into a
// fresh buffer, so that a binary-decoding reader built on top of it cannot
// over-read into whatever chunk follows.
func ReadPayload(r io.ReadSeeker, loc Location) ([]byte, error) {
	if _, err := r.Seek(loc.PayloadOffset(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("chunkio: seek payload of %q at %d: %w", loc.ID, loc.Offset, err)
	}
	buf := make([]byte, loc.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("chunkio: read payload of %q at %d: %w", loc.ID, loc.Offset, err)
	}
	return buf, nil
}

// WriteHeader writes a chunk's 8-byte id+size header to w in the on-disk
// form: id's four characters reversed, followed by a little-endian u32
// size. It is the write-side counterpart of Discover/reverseID.
func WriteHeader(w io.Writer, id string, size uint32) error {
	if len(id) != 4 {
		return fmt.Errorf("chunkio: chunk id %q is not 4 characters", id)
	}
	hdr := make([]byte, 8)
	hdr[0], hdr[1], hdr[2], hdr[3] = id[3], id[2], id[1], id[0]
	binary.LittleEndian.PutUint32(hdr[4:8], size)
	_, err := w.Write(hdr)
	return err
}

// WriteChunk writes a complete chunk (header plus body) to w.
func WriteChunk(w io.Writer, id string, body []byte) error {
	if err := WriteHeader(w, id, uint32(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ScanForID linearly scans raw, the bytes of some enclosing chunk's body,
// for the first embedded chunk whose id matches want, trying every byte
// offset in turn (not just 8-byte-aligned ones) the way the game client's
// own MoP-era parser does when an offset table entry can't be trusted.
// Returns the payload and true, or nil/false if want is never found.
func ScanForID(raw []byte, want string) ([]byte, bool) {
	for start := 0; start+8 <= len(raw); start++ {
		var rawID [4]byte
		copy(rawID[:], raw[start:start+4])
		if reverseID(rawID) != want {
			continue
		}
		size := binary.LittleEndian.Uint32(raw[start+4 : start+8])
		end := start + 8 + int(size)
		if end > len(raw) {
			continue
		}
		return raw[start+8 : end], true
	}
	return nil, false
}
