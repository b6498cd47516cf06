package model

import "github.com/veristamp/veristamp/internal/digest"

// Position indicates which side of the concatenation a sibling hash takes
// when a Merkle node pair is combined.
type Position string

const (
	// Left means the sibling is hashed before the running value.
	Left Position = "left"
	// Right means the sibling is hashed after the running value.
	Right Position = "right"
)

// Valid reports whether the position is one of the two defined sides.
func (p Position) Valid() bool {
	return p == Left || p == Right
}

// PathStep is one level of a Merkle path: the sibling hash to combine with
// and the side it sits on. Sibling is kept as raw bytes so structural
// validation can reject certificates carrying wrong-width nodes.
type PathStep struct {
	Sibling  []byte   `json:"sibling"`
	Position Position `json:"position"`
}

// TimestampClaim is what a proof certificate asserts: DocumentHash was a
// leaf of a Merkle tree whose root was anchored by TransactionID.
// The path is ordered leaf to root and is empty only for a single-leaf tree.
// A claim is never mutated after extraction.
type TimestampClaim struct {
	DocumentHash  digest.Hash `json:"document_hash"`
	TransactionID digest.Hash `json:"transaction_id"`
	MerklePath    []PathStep  `json:"merkle_path"`
}
