// Package hashutil computes content hashes. The scanner and the executor's
// verifier both go through this package, so a fingerprint computed at scan
// time is always comparable to one computed after a copy.
package hashutil

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Prefix identifies the hash algorithm in serialized checksums.
const Prefix = "sha256:"

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	return CalculateChecksum(file)
}

// CalculateChecksum calculates the SHA256 checksum of a reader's contents.
func CalculateChecksum(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%x", Prefix, hash.Sum(nil)), nil
}

// CalculateBytesChecksum calculates the SHA256 checksum of a byte slice.
func CalculateBytesChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", Prefix, sum)
}
