// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math/big"
)

const (
	signatureVersionWeak   = 0
	signatureVersionStrong = 1

	weakSignatureSize   = 64  // 512-bit RSA
	strongSignatureSize = 256 // 2048-bit RSA

	strongSignatureMagic = "NGIS" // "SIGN" reversed, as it appears on disk
)

// SignatureInfo is the parsed contents of the (signature) special file.
type SignatureInfo struct {
	Version   uint32
	Signature []byte
}

// ReadSignature reads and parses the (signature) special file, if present.
func (a *Archive) ReadSignature() (*SignatureInfo, error) {
	if a.mode != "r" && a.mode != "m" {
		return nil, newErr(KindIO, "ReadSignature", "", -1, fmt.Errorf("archive not opened for reading"))
	}

	block, err := a.findFile("(signature)")
	if err != nil {
		return nil, nil
	}

	raw, err := a.readBlockRaw(block)
	if err != nil {
		return nil, err
	}

	if len(raw) < 8 {
		return nil, newErr(KindFormatInvalid, "ReadSignature", "(signature)", -1, fmt.Errorf("signature file too small"))
	}

	version := binary.LittleEndian.Uint32(raw[0:4])
	sigLength := binary.LittleEndian.Uint32(raw[4:8])
	if len(raw) < int(8+sigLength) {
		return nil, newErr(KindFormatInvalid, "ReadSignature", "(signature)", -1, fmt.Errorf("signature data truncated"))
	}

	signature := make([]byte, sigLength)
	copy(signature, raw[8:8+sigLength])

	return &SignatureInfo{Version: version, Signature: signature}, nil
}

// reverseBytes returns a copy of b with byte order reversed; MPQ stores RSA
// signature blocks little-endian on disk, while math/big and crypto/rsa
// both expect big-endian magnitude bytes.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// WeakDigest computes the MD5 digest the weak signature is taken over: the
// full archive file with the (signature) file's own signature-bytes region
// zeroed out, hashed in fixed 64KiB chunks (StormLib processes the file
// this way to support streaming over very large archives).
func WeakDigest(archive []byte, sigRegionStart, sigRegionLen int) [md5.Size]byte {
	buf := make([]byte, len(archive))
	copy(buf, archive)
	for i := sigRegionStart; i < sigRegionStart+sigRegionLen && i < len(buf); i++ {
		buf[i] = 0
	}

	h := md5.New()
	const chunk = 64 * 1024
	for off := 0; off < len(buf); off += chunk {
		end := off + chunk
		if end > len(buf) {
			end = len(buf)
		}
		h.Write(buf[off:end])
	}
	var out [md5.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// StrongDigest computes the SHA-1 digest the strong signature is taken
// over: the archive bytes up to (but not including) the (signature) file's
// own data, unlike the weak digest's zero-and-hash-everything approach.
func StrongDigest(archiveBeforeSignature []byte) [sha1.Size]byte {
	return sha1.Sum(archiveBeforeSignature)
}

// VerifyWeak checks a weak (RSA-512 + MD5, PKCS#1 v1.5) signature against
// digest using pub.
func (s *SignatureInfo) VerifyWeak(digest [md5.Size]byte, pub *rsa.PublicKey) error {
	if s.Version != signatureVersionWeak {
		return newErr(KindCrypto, "VerifyWeak", "(signature)", -1, fmt.Errorf("not a weak signature (version %d)", s.Version))
	}
	if len(s.Signature) != weakSignatureSize {
		return newErr(KindCrypto, "VerifyWeak", "(signature)", -1, fmt.Errorf("weak signature must be %d bytes, got %d", weakSignatureSize, len(s.Signature)))
	}

	sig := reverseBytes(s.Signature)
	if err := rsa.VerifyPKCS1v15(pub, crypto.MD5, digest[:], sig); err != nil {
		return newErr(KindCrypto, "VerifyWeak", "(signature)", -1, err)
	}
	return nil
}

// GenerateWeakSignature produces a weak signature over digest using priv,
// for archives built by this package's own writer that want to carry a
// (signature) file (e.g. for mod-distribution tooling with its own key
// pair, not for impersonating Blizzard's).
func GenerateWeakSignature(digest [md5.Size]byte, priv *rsa.PrivateKey) ([]byte, error) {
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.MD5, digest[:])
	if err != nil {
		return nil, newErr(KindCrypto, "GenerateWeakSignature", "", -1, err)
	}
	return reverseBytes(sig), nil
}

// VerifyStrong checks a strong (RSA-2048 + SHA-1) signature. The on-disk
// layout is a 4-byte "NGIS" tag followed by a 256-byte encrypted block
// whose decrypted plaintext is a 0x0B prefix byte, 235 bytes of 0xBB
// padding, and the 20-byte SHA-1 digest (optionally followed by a tail the
// signer chooses to ignore).
func (s *SignatureInfo) VerifyStrong(digest [sha1.Size]byte, pub *rsa.PublicKey) error {
	if s.Version != signatureVersionStrong {
		return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("not a strong signature (version %d)", s.Version))
	}
	if len(s.Signature) < 4+strongSignatureSize {
		return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("strong signature too short: %d bytes", len(s.Signature)))
	}
	if string(s.Signature[:4]) != strongSignatureMagic {
		return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("missing %q tag", strongSignatureMagic))
	}

	encrypted := reverseBytes(s.Signature[4 : 4+strongSignatureSize])
	plain := rsaPublicTransform(pub, encrypted)

	if len(plain) < 1+235+sha1.Size || plain[0] != 0x0B {
		return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("bad padding prefix"))
	}
	for i := 1; i <= 235; i++ {
		if plain[i] != 0xBB {
			return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("bad padding byte at %d", i))
		}
	}

	got := plain[1+235 : 1+235+sha1.Size]
	if !bytes.Equal(got, digest[:]) {
		return newErr(KindCrypto, "VerifyStrong", "(signature)", -1, fmt.Errorf("digest mismatch"))
	}
	return nil
}

// GenerateStrongSignature always fails: the strong-signature scheme's
// private key is Blizzard's and is not something this package, or any
// legitimate archive author other than Blizzard, can hold.
func GenerateStrongSignature([sha1.Size]byte) ([]byte, error) {
	return nil, newErr(KindCrypto, "GenerateStrongSignature", "(signature)", -1,
		fmt.Errorf("strong signature generation requires a private key this package does not have access to"))
}

// rsaPublicTransform computes c^e mod n, i.e. the same modular
// exponentiation RSA verification performs, exposed directly because the
// strong signature's plaintext layout needs raw access to the padded
// message rather than crypto/rsa's PKCS#1-aware verify helpers.
func rsaPublicTransform(pub *rsa.PublicKey, data []byte) []byte {
	c := new(big.Int).SetBytes(data)
	e := big.NewInt(int64(pub.E))
	m := new(big.Int).Exp(c, e, pub.N)

	out := m.Bytes()
	size := (pub.N.BitLen() + 7) / 8
	if len(out) < size {
		padded := make([]byte, size)
		copy(padded[size-len(out):], out)
		out = padded
	}
	return out
}

// readBlockRaw reads and, if necessary, decrypts and decompresses a block
// table entry's payload. Shared by ReadSignature, attribute parsing, and
// patch-metadata reads, all of which read a whole special file at once
// rather than streaming sectors.
func (a *Archive) readBlockRaw(block *blockTableEntryEx) ([]byte, error) {
	filePos := block.getFilePos64() + a.header.ArchiveOffset
	if _, err := a.file.Seek(int64(filePos), 0); err != nil {
		return nil, newErr(KindIO, "readBlockRaw", "", int64(filePos), err)
	}

	compressed := make([]byte, block.CompressedSize)
	if _, err := a.file.Read(compressed); err != nil {
		return nil, newErr(KindIO, "readBlockRaw", "", int64(filePos), err)
	}

	if block.Flags&fileCompress != 0 && block.CompressedSize < block.FileSize {
		if err := a.limits.checkDecompressedSize(block.FileSize, block.CompressedSize); err != nil {
			return nil, newErr(KindResourceExhaustion, "readBlockRaw", "", int64(filePos), err)
		}
		return decompressData(compressed, block.FileSize)
	}
	return compressed, nil
}
