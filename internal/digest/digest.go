// Package digest holds the hash primitives and hex codecs shared by the
// verification pipeline. All byte-order reversal between internal
// (computation) order and display order lives here; no other package is
// allowed to reverse bytes by hand.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the width of every digest handled by the verifier.
const Size = 32

// ErrMalformedInput reports hex input that cannot be decoded into a digest.
var ErrMalformedInput = errors.New("malformed hex input")

// Hash is a 32-byte digest in internal (computation) byte order.
type Hash [Size]byte

// DoubleSHA256 applies SHA-256 twice, the chain's standard digest for both
// Merkle node combination and transaction id derivation.
func DoubleSHA256(b []byte) Hash {
	first := sha256.Sum256(b)
	return Hash(sha256.Sum256(first[:]))
}

// ParseHash decodes internal-order hex (certificate document hashes, Merkle
// node values) into a Hash.
func ParseHash(s string) (Hash, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	if len(b) != Size {
		return Hash{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedInput, Size, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// ParseDisplayHash decodes display-order hex (transaction ids as rendered by
// block explorers and certificates) into an internal-order Hash.
func ParseDisplayHash(s string) (Hash, error) {
	h, err := ParseHash(s)
	if err != nil {
		return Hash{}, err
	}
	return h.Reversed(), nil
}

// String renders the digest as internal-order hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// DisplayString renders the digest in display order, the convention block
// explorers use for transaction ids.
func (h Hash) DisplayString() string {
	return h.Reversed().String()
}

// Reversed returns the digest with its byte order flipped.
func (h Hash) Reversed() Hash {
	var r Hash
	for i := 0; i < Size; i++ {
		r[i] = h[Size-1-i]
	}
	return r
}

// Bytes returns a fresh copy of the digest bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// IsZero reports whether the digest is all zeroes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// DecodeHex decodes a hex string of any length, mapping decode failures
// (odd length, non-hex characters) onto ErrMalformedInput.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return b, nil
}

// EncodeHex is the inverse of DecodeHex.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
