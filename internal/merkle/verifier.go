// Package merkle reconstructs a Merkle root from a leaf hash and a sibling
// path. A path that reconstructs the committed root IS the membership proof;
// no separate index is kept.
package merkle

import (
	"fmt"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

// IntegrityError reports a structurally broken Merkle path: a step that
// cannot be interpreted, independent of any on-chain comparison.
type IntegrityError struct {
	Step   int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("broken merkle chain at step %d: %s", e.Step, e.Reason)
}

// ReconstructRoot folds the leaf through the path, combining the running
// value with each sibling in the order its position dictates and applying
// the double hash. An empty path yields the leaf itself (single-leaf tree).
//
// The combination order is load-bearing: a left sibling is concatenated
// before the running value, a right sibling after. Getting this wrong makes
// forged proofs verify.
func ReconstructRoot(leaf digest.Hash, path []model.PathStep) (digest.Hash, error) {
	current := leaf
	for i, step := range path {
		if len(step.Sibling) != digest.Size {
			return digest.Hash{}, &IntegrityError{
				Step:   i,
				Reason: fmt.Sprintf("sibling is %d bytes, want %d", len(step.Sibling), digest.Size),
			}
		}
		var buf [2 * digest.Size]byte
		switch step.Position {
		case model.Left:
			copy(buf[:digest.Size], step.Sibling)
			copy(buf[digest.Size:], current[:])
		case model.Right:
			copy(buf[:digest.Size], current[:])
			copy(buf[digest.Size:], step.Sibling)
		default:
			return digest.Hash{}, &IntegrityError{
				Step:   i,
				Reason: fmt.Sprintf("unknown position %q", step.Position),
			}
		}
		current = digest.DoubleSHA256(buf[:])
	}
	return current, nil
}

// ValidateIntegrity re-derives the root from the claim's document hash and
// path and reports whether every combination along the way is interpretable.
// An empty path is explicitly allowed: it means the document hash itself is
// the committed root.
func ValidateIntegrity(claim *model.TimestampClaim) error {
	_, err := ReconstructRoot(claim.DocumentHash, claim.MerklePath)
	return err
}

// ContainsLeaf reports whether the claim's path reconstructs the given root
// from its document hash, i.e. whether the document is a member of the tree
// that root commits to.
func ContainsLeaf(claim *model.TimestampClaim, root digest.Hash) bool {
	got, err := ReconstructRoot(claim.DocumentHash, claim.MerklePath)
	if err != nil {
		return false
	}
	return got == root
}
