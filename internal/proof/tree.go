package proof

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

// treeNode mirrors the certificate's embedded XML Merkle tree: every
// element carries its hash in a value attribute and up to two children
// tagged by the side they sit on.
type treeNode struct {
	Value string    `xml:"value,attr"`
	Left  *treeNode `xml:"left"`
	Right *treeNode `xml:"right"`
}

// extractTree locates the XML fragment inside certificate text and decodes
// it. The fragment spans the first <node element through the last closing
// node tag.
func extractTree(text string) (*treeNode, error) {
	start := strings.Index(text, "<node")
	if start < 0 {
		return nil, ErrMissingTree
	}
	end := strings.LastIndex(text, "</node>")
	if end < start {
		return nil, fmt.Errorf("%w: unterminated node element", ErrMalformedTree)
	}
	fragment := text[start : end+len("</node>")]

	var root treeNode
	if err := xml.Unmarshal([]byte(fragment), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	return &root, nil
}

// derivePath walks the tree towards the leaf holding the document hash and
// returns the sibling path ordered leaf to root. A tree whose root value is
// the document hash itself yields an empty path (single-leaf tree).
//
// An internal node with a single child commits to a duplicated hash; the
// child's own value serves as the sibling on the opposite side, matching
// the chain's odd-node duplication rule.
func derivePath(root *treeNode, documentHash string) ([]model.PathStep, error) {
	path, found, err := findPath(root, documentHash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrLeafNotInTree
	}
	return path, nil
}

func findPath(n *treeNode, target string) ([]model.PathStep, bool, error) {
	if n == nil {
		return nil, false, nil
	}
	if strings.EqualFold(strings.TrimSpace(n.Value), target) {
		return []model.PathStep{}, true, nil
	}

	if path, found, err := findPath(n.Left, target); err != nil || found {
		if err != nil {
			return nil, false, err
		}
		sibling := n.Right
		if sibling == nil {
			sibling = n.Left // odd node: duplicated
		}
		step, err := siblingStep(sibling, model.Right)
		if err != nil {
			return nil, false, err
		}
		return append(path, step), true, nil
	}

	if path, found, err := findPath(n.Right, target); err != nil || found {
		if err != nil {
			return nil, false, err
		}
		sibling := n.Left
		if sibling == nil {
			sibling = n.Right // odd node: duplicated
		}
		step, err := siblingStep(sibling, model.Left)
		if err != nil {
			return nil, false, err
		}
		return append(path, step), true, nil
	}

	return nil, false, nil
}

func siblingStep(sibling *treeNode, pos model.Position) (model.PathStep, error) {
	value := strings.TrimSpace(sibling.Value)
	b, err := digest.DecodeHex(value)
	if err != nil {
		return model.PathStep{}, fmt.Errorf("%w: sibling value %q: %v", ErrMalformedTree, value, err)
	}
	return model.PathStep{Sibling: b, Position: pos}, nil
}
