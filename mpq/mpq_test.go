// Copyright (c) 2025 kaelthas
// SPDX-License-Identifier: MIT

package mpq

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateAndRead(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile1 := filepath.Join(tmpDir, "test1.txt")
	testFile2 := filepath.Join(tmpDir, "test2.txt")
	testContent1 := []byte("Hello, World! This is test file 1 with some content.")
	testContent2 := []byte("Test file 2 contains different data for the archive.")

	if err := os.WriteFile(testFile1, testContent1, 0644); err != nil {
		t.Fatalf("write test file 1: %v", err)
	}
	if err := os.WriteFile(testFile2, testContent2, 0644); err != nil {
		t.Fatalf("write test file 2: %v", err)
	}

	mpqPath := filepath.Join(tmpDir, "test.mpq")
	archive, err := Create(mpqPath, 10)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}

	if err := archive.AddFile(testFile1, "Data\\Test1.txt"); err != nil {
		t.Fatalf("add file 1: %v", err)
	}
	if err := archive.AddFile(testFile2, "Data\\SubDir\\Test2.txt"); err != nil {
		t.Fatalf("add file 2: %v", err)
	}

	wantListing := []string{"Data\\SubDir\\Test2.txt", "Data\\Test1.txt"}
	listfilePath := filepath.Join(tmpDir, "(listfile)")
	if err := os.WriteFile(listfilePath, []byte(wantListing[0]+"\r\n"+wantListing[1]+"\r\n"), 0644); err != nil {
		t.Fatalf("write listfile: %v", err)
	}
	if err := archive.AddFile(listfilePath, "(listfile)"); err != nil {
		t.Fatalf("add listfile: %v", err)
	}

	if err := archive.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	if _, err := os.Stat(mpqPath); os.IsNotExist(err) {
		t.Fatalf("MPQ file not created")
	}

	readArchive, err := Open(mpqPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer readArchive.Close()

	if !readArchive.HasFile("Data\\Test1.txt") {
		t.Errorf("file 1 not found")
	}
	if !readArchive.HasFile("Data\\SubDir\\Test2.txt") {
		t.Errorf("file 2 not found")
	}
	if readArchive.HasFile("NonExistent.txt") {
		t.Errorf("non-existent file found")
	}

	gotListing, err := readArchive.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	sort.Strings(gotListing)
	if diff := cmp.Diff(wantListing, gotListing); diff != "" {
		t.Errorf("(listfile) round trip mismatch (-want +got):\n%s", diff)
	}

	extractDir := filepath.Join(tmpDir, "extracted")
	extract1 := filepath.Join(extractDir, "test1.txt")
	extract2 := filepath.Join(extractDir, "test2.txt")

	if err := readArchive.ExtractFile("Data\\Test1.txt", extract1); err != nil {
		t.Fatalf("extract file 1: %v", err)
	}
	if err := readArchive.ExtractFile("Data\\SubDir\\Test2.txt", extract2); err != nil {
		t.Fatalf("extract file 2: %v", err)
	}

	extracted1, _ := os.ReadFile(extract1)
	if string(extracted1) != string(testContent1) {
		t.Errorf("file 1 mismatch: got %q, want %q", extracted1, testContent1)
	}

	extracted2, _ := os.ReadFile(extract2)
	if string(extracted2) != string(testContent2) {
		t.Errorf("file 2 mismatch: got %q, want %q", extracted2, testContent2)
	}
}

// TestEncryptionTableSmoke checks the cryptTable's first two entries
// against known-stable values, per spec.md §8 scenario 1.
func TestEncryptionTableSmoke(t *testing.T) {
	if len(cryptTable) != 0x500 {
		t.Fatalf("cryptTable length = %d, want %d", len(cryptTable), 0x500)
	}
	if cryptTable[0] != 0x55C636E2 {
		t.Errorf("cryptTable[0] = 0x%08X, want 0x55C636E2", cryptTable[0])
	}
	if cryptTable[1] != 0x02BE0170 {
		t.Errorf("cryptTable[1] = 0x%08X, want 0x02BE0170", cryptTable[1])
	}
}

// TestCryptTableInitialization verifies the whole table against a fresh
// run of the same generation algorithm, not just its first two entries.
func TestCryptTableInitialization(t *testing.T) {
	seed := uint32(0x00100001)
	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 5; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10
			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF
			expected := temp1 | temp2

			if cryptTable[index2] != expected {
				t.Errorf("cryptTable[0x%03X] = 0x%08X, want 0x%08X", index2, cryptTable[index2], expected)
			}
			index2 += 0x100
		}
	}
}

func TestHashString(t *testing.T) {
	tests := []struct {
		input    string
		hashType uint32
		expected uint32
	}{
		{"(hash table)", hashTypeFileKey, 0xC3AF3770},
		{"(block table)", hashTypeFileKey, 0xEC83B3A3},
	}

	for _, test := range tests {
		got := hashString(test.input, test.hashType)
		if got != test.expected {
			t.Errorf("hashString(%q, %d) = 0x%08X, want 0x%08X",
				test.input, test.hashType, got, test.expected)
		}
	}
}

func TestHashStringFromStormLib(t *testing.T) {
	tests := []struct {
		name  string
		input string
		hashA uint32
		hashB uint32
	}{
		{
			name:  "StormLib test file path",
			input: "ReplaceableTextures\\CommandButtons\\BTNHaboss79.blp",
			hashA: 0x8bd6929a,
			hashB: 0xfd55129b,
		},
		{
			name:  "StormLib test file path with forward slashes",
			input: "ReplaceableTextures/CommandButtons/BTNHaboss79.blp",
			hashA: 0x8bd6929a,
			hashB: 0xfd55129b,
		},
		{
			name:  "StormLib test file path lowercase",
			input: "replaceabletextures\\commandbuttons\\btnhaboss79.blp",
			hashA: 0x8bd6929a,
			hashB: 0xfd55129b,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotA := hashString(test.input, hashTypeNameA)
			gotB := hashString(test.input, hashTypeNameB)

			if gotA != test.hashA {
				t.Errorf("hashString(%q, hashTypeNameA) = 0x%08X, want 0x%08X",
					test.input, gotA, test.hashA)
			}
			if gotB != test.hashB {
				t.Errorf("hashString(%q, hashTypeNameB) = 0x%08X, want 0x%08X",
					test.input, gotB, test.hashB)
			}
		})
	}
}

func TestPathNormalization(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_path_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	mpqPath := filepath.Join(tmpDir, "test.mpq")
	archive, err := Create(mpqPath, 10)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if err := archive.AddFile(testFile, "Data\\Test.txt"); err != nil {
		t.Fatalf("add file: %v", err)
	}
	archive.Close()

	readArchive, _ := Open(mpqPath)
	defer readArchive.Close()

	// Scenario 4: case and separator folding both normalize onto the same
	// installed name.
	if !readArchive.HasFile("Data\\Test.txt") {
		t.Errorf("file not found with backslashes")
	}
	if !readArchive.HasFile("data/test.txt") {
		t.Errorf("file not found with forward slashes and lowercase")
	}

	data, err := readArchive.ReadFile("data/Test.TXT")
	if err != nil {
		t.Fatalf("ReadFile with mixed-case/slash path: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content mismatch: got %q, want %q", data, "hello")
	}
}

func TestV2Format(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_v2_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("V2 format test content")
	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	mpqPath := filepath.Join(tmpDir, "test_v2.mpq")
	archive, err := CreateV2(mpqPath, 10)
	if err != nil {
		t.Fatalf("create V2 archive: %v", err)
	}
	if err := archive.AddFile(testFile, "Data\\Test.txt"); err != nil {
		t.Fatalf("add file: %v", err)
	}
	archive.Close()

	readArchive, err := Open(mpqPath)
	if err != nil {
		t.Fatalf("open V2 archive: %v", err)
	}
	defer readArchive.Close()

	if !readArchive.HasFile("Data\\Test.txt") {
		t.Errorf("file not found in V2 archive")
	}

	extractPath := filepath.Join(tmpDir, "extracted.txt")
	if err := readArchive.ExtractFile("Data\\Test.txt", extractPath); err != nil {
		t.Fatalf("extract file: %v", err)
	}

	extracted, _ := os.ReadFile(extractPath)
	if string(extracted) != string(testContent) {
		t.Errorf("content mismatch: got %q, want %q", extracted, testContent)
	}
}

func TestEmptyArchive(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_empty_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	mpqPath := filepath.Join(tmpDir, "empty.mpq")
	archive, err := Create(mpqPath, 10)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	archive.Close()

	readArchive, err := Open(mpqPath)
	if err != nil {
		t.Fatalf("open empty archive: %v", err)
	}
	defer readArchive.Close()

	if readArchive.HasFile("anything.txt") {
		t.Errorf("found file in empty archive")
	}
}

func TestLargeFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_large_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "large.bin")
	largeData := make([]byte, 100*1024)
	for i := range largeData {
		largeData[i] = byte(i % 256)
	}
	os.WriteFile(testFile, largeData, 0644)

	mpqPath := filepath.Join(tmpDir, "large.mpq")
	archive, _ := Create(mpqPath, 10)
	archive.AddFile(testFile, "Data\\Large.bin")
	archive.Close()

	readArchive, _ := Open(mpqPath)
	defer readArchive.Close()

	extractPath := filepath.Join(tmpDir, "extracted.bin")
	readArchive.ExtractFile("Data\\Large.bin", extractPath)

	extracted, _ := os.ReadFile(extractPath)
	if len(extracted) != len(largeData) {
		t.Fatalf("size mismatch: got %d, want %d", len(extracted), len(largeData))
	}
	for i := range largeData {
		if extracted[i] != largeData[i] {
			t.Fatalf("data mismatch at byte %d", i)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []uint32
		key  string
	}{
		{
			name: "hash table key",
			data: []uint32{0x12345678, 0xDEADBEEF, 0xCAFEBABE, 0xF00DF00D},
			key:  "(hash table)",
		},
		{
			name: "block table key",
			data: []uint32{0x11111111, 0x22222222, 0x33333333, 0x44444444},
			key:  "(block table)",
		},
		{
			name: "single value",
			data: []uint32{0xABCDEF01},
			key:  "(hash table)",
		},
		{
			name: "zeros",
			data: []uint32{0x00000000, 0x00000000, 0x00000000, 0x00000000},
			key:  "(hash table)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := make([]uint32, len(tc.data))
			copy(original, tc.data)

			data := make([]uint32, len(tc.data))
			copy(data, tc.data)

			key := hashString(tc.key, hashTypeFileKey)

			encryptBlock(data, key)

			allSame := true
			for i := range data {
				if data[i] != original[i] {
					allSame = false
					break
				}
			}
			if allSame && tc.name != "zeros" {
				t.Errorf("encryption did not change data")
			}

			decryptBlock(data, key)

			for i := range original {
				if data[i] != original[i] {
					t.Errorf("round-trip mismatch at index %d: got 0x%08X, want 0x%08X",
						i, data[i], original[i])
				}
			}
		})
	}
}

// TestWeakSignatureRoundTrip builds a small archive, signs its bytes with
// a freshly generated 512-bit key, and checks that verification succeeds
// against the original bytes and fails once a single byte is flipped, per
// spec.md §8 scenario 5.
func TestWeakSignatureRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mpq_sig_test_")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "payload.txt")
	if err := os.WriteFile(testFile, []byte("signed archive content"), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	mpqPath := filepath.Join(tmpDir, "signed.mpq")
	archive, err := Create(mpqPath, 10)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if err := archive.AddFile(testFile, "Data\\Payload.txt"); err != nil {
		t.Fatalf("add file: %v", err)
	}
	archive.Close()

	priv, err := rsa.GenerateKey(rand.Reader, 512)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}

	raw, err := os.ReadFile(mpqPath)
	if err != nil {
		t.Fatalf("read archive bytes: %v", err)
	}

	digest := WeakDigest(raw, 0, 0)
	sigBytes, err := GenerateWeakSignature(digest, priv)
	if err != nil {
		t.Fatalf("GenerateWeakSignature: %v", err)
	}
	sig := &SignatureInfo{Version: 0, Signature: sigBytes}

	if err := sig.VerifyWeak(digest, &priv.PublicKey); err != nil {
		t.Errorf("VerifyWeak on an untampered archive: %v", err)
	}

	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered[len(tampered)/2] ^= 0xFF
	tamperedDigest := WeakDigest(tampered, 0, 0)

	if err := sig.VerifyWeak(tamperedDigest, &priv.PublicKey); err == nil {
		t.Errorf("expected VerifyWeak to fail after tampering with the archive")
	}
}
