// Package fingerprint computes the deterministic content digest that keys
// every ledger record. A fingerprint is the SHA-256 of a document's exact
// bytes; identical bytes always produce an identical fingerprint, across
// processes and platforms, so re-submission of the same document is safe
// to treat as idempotent everywhere downstream.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// HexLen is the length of the canonical hex rendering used as ledger key.
const HexLen = Size * 2

// Fingerprint is the SHA-256 digest of a document's bytes.
type Fingerprint [Size]byte

// New computes the fingerprint of data. The empty document is legal and
// hashes like any other input.
func New(data []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(data))
}

// Parse decodes a hex-encoded fingerprint string.
func Parse(s string) (Fingerprint, error) {
	var f Fingerprint
	if len(s) != HexLen {
		return f, fmt.Errorf("fingerprint must be %d hex characters, got %d", HexLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("decode fingerprint: %w", err)
	}
	copy(f[:], b)
	return f, nil
}

// String returns the canonical lowercase hex form used as the ledger key.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether f is the all-zero digest.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalJSON renders the fingerprint as its hex string.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// UnmarshalJSON parses a hex string fingerprint.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("fingerprint must be a JSON string")
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
