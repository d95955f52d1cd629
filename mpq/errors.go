// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes an archive operation can report. Callers
// that need to react differently to, say, a missing file versus a corrupt
// table should switch on Kind rather than parse error text.
type Kind int

const (
	// KindUnknown is the zero value; never returned for an error produced by
	// this package.
	KindUnknown Kind = iota
	// KindFormatInvalid means the bytes read do not describe a well-formed
	// MPQ archive (bad magic, truncated header, self-inconsistent tables).
	KindFormatInvalid
	// KindUnsupportedVersion means the header parsed fine but names a format
	// version or feature this package does not implement.
	KindUnsupportedVersion
	// KindNotFound means a named file is absent from the archive.
	KindNotFound
	// KindChecksumMismatch means a sector or single-unit CRC/Adler32 did not
	// match the decompressed payload.
	KindChecksumMismatch
	// KindCompression means a compression/decompression codec failed.
	KindCompression
	// KindCrypto means block decryption or signature verification failed.
	KindCrypto
	// KindIO wraps an underlying os/io error.
	KindIO
	// KindSecurityViolation means a path, table size, or offset failed the
	// archive's security validation (§ Limits).
	KindSecurityViolation
	// KindResourceExhaustion means a configured Limits budget was exceeded.
	KindResourceExhaustion
)

func (k Kind) String() string {
	switch k {
	case KindFormatInvalid:
		return "format invalid"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindNotFound:
		return "not found"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindCompression:
		return "compression"
	case KindCrypto:
		return "crypto"
	case KindIO:
		return "io"
	case KindSecurityViolation:
		return "security violation"
	case KindResourceExhaustion:
		return "resource exhaustion"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported operation in this
// package. It carries enough context (chunk/file id and absolute archive
// offset, when known) to let a caller log a useful diagnostic without this
// package needing to own a logger.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "mpq.Open", "findFile"
	Entry  string // file path or special-file name involved, if any
	Offset int64  // absolute byte offset in the archive, -1 if not applicable
	Err    error  // wrapped cause
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Entry != "" {
		msg += fmt.Sprintf(" (%s)", e.Entry)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset 0x%X", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, KindNotFound) work by comparing Kind through a
// sentinel wrapper; see the kindSentinel type below.
func (e *Error) Is(target error) bool {
	var ks kindSentinel
	if errors.As(target, &ks) {
		return e.Kind == Kind(ks)
	}
	return false
}

type kindSentinel Kind

func (k kindSentinel) Error() string { return Kind(k).String() }

// sentinel returns a value usable with errors.Is(err, mpq.ErrNotFound) style
// checks without exporting the unexported kindSentinel type directly.
func sentinelFor(k Kind) error { return kindSentinel(k) }

// Exported sentinels for errors.Is comparisons.
var (
	ErrNotFound            = sentinelFor(KindNotFound)
	ErrFormatInvalid       = sentinelFor(KindFormatInvalid)
	ErrUnsupportedVersion  = sentinelFor(KindUnsupportedVersion)
	ErrChecksumMismatch    = sentinelFor(KindChecksumMismatch)
	ErrCompression         = sentinelFor(KindCompression)
	ErrCrypto              = sentinelFor(KindCrypto)
	ErrSecurityViolation   = sentinelFor(KindSecurityViolation)
	ErrResourceExhaustion  = sentinelFor(KindResourceExhaustion)
)

func newErr(kind Kind, op, entry string, offset int64, cause error) *Error {
	return &Error{Kind: kind, Op: op, Entry: entry, Offset: offset, Err: cause}
}
