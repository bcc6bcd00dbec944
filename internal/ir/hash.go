package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainBuffer  = "offload/buffer/v1"
	DomainProfile = "offload/profile/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BufferHash returns the content hash of a serialized buffer.
// The buffer is NFC normalized first so visually identical sources hash equal.
func BufferHash(buffer string) string {
	return hashWithDomain(DomainBuffer, []byte(norm.NFC.String(buffer)))
}

// ProfileHash returns the content hash of a toolchain profile.
// Struct field order is fixed, so encoding/json output is deterministic.
func ProfileHash(p Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("profile hash: %w", err)
	}
	return hashWithDomain(DomainProfile, data), nil
}
