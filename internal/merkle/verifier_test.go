package merkle

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

func mustHash(t *testing.T, s string) digest.Hash {
	t.Helper()
	h, err := digest.ParseHash(s)
	if err != nil {
		t.Fatalf("bad test hash %q: %v", s, err)
	}
	return h
}

func repeatByte(b byte) []byte {
	return bytes.Repeat([]byte{b}, digest.Size)
}

func TestReconstructRoot_EmptyPath(t *testing.T) {
	leaf := digest.DoubleSHA256([]byte("single leaf"))

	root, err := ReconstructRoot(leaf, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if root != leaf {
		t.Errorf("Empty path must yield the leaf itself, got %s", root)
	}
}

func TestReconstructRoot_SingleStepPinnedVectors(t *testing.T) {
	// leaf a = 0xaa * 32, sibling b = 0xbb * 32.
	// Vectors pin the concatenation order byte for byte:
	//   position right => doubleSHA256(a || b)
	//   position left  => doubleSHA256(b || a)
	leaf := mustHash(t, strings.Repeat("aa", 32))
	sibling := repeatByte(0xbb)

	right, err := ReconstructRoot(leaf, []model.PathStep{{Sibling: sibling, Position: model.Right}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	wantRight := "499d0d3b39373fb9b7b0f399b7411f7af213d91c32624280e995ae0f8eb776fb"
	if right.String() != wantRight {
		t.Errorf("Right sibling: expected %s, got %s", wantRight, right)
	}

	left, err := ReconstructRoot(leaf, []model.PathStep{{Sibling: sibling, Position: model.Left}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	wantLeft := "4388c64cd6508f6d36f482cb0a2de8f62243270c08d83c657046320df1352dbe"
	if left.String() != wantLeft {
		t.Errorf("Left sibling: expected %s, got %s", wantLeft, left)
	}

	if right == left {
		t.Error("Left and right combination must not collide")
	}
}

func TestReconstructRoot_TwoStepPinnedVector(t *testing.T) {
	leaf := mustHash(t, strings.Repeat("aa", 32))
	path := []model.PathStep{
		{Sibling: repeatByte(0xbb), Position: model.Right},
		{Sibling: repeatByte(0xcc), Position: model.Left},
	}

	root, err := ReconstructRoot(leaf, path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "aef457e379e0c161d97609c8e8153767e9ab48da6dc7b9259013f6ecede454ac"
	if root.String() != want {
		t.Errorf("Expected %s, got %s", want, root)
	}
}

func TestReconstructRoot_Deterministic(t *testing.T) {
	leaf := digest.DoubleSHA256([]byte("determinism"))
	path := []model.PathStep{
		{Sibling: repeatByte(0x01), Position: model.Left},
		{Sibling: repeatByte(0x02), Position: model.Right},
		{Sibling: repeatByte(0x03), Position: model.Right},
	}

	first, err := ReconstructRoot(leaf, path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ReconstructRoot(leaf, path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if again != first {
			t.Fatalf("Run %d produced a different root: %s != %s", i, again, first)
		}
	}
}

func TestReconstructRoot_TamperChangesRoot(t *testing.T) {
	leaf := digest.DoubleSHA256([]byte("tamper"))
	path := []model.PathStep{
		{Sibling: repeatByte(0x11), Position: model.Right},
		{Sibling: repeatByte(0x22), Position: model.Left},
	}

	honest, err := ReconstructRoot(leaf, path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Flip one bit in each sibling in turn; every flip must move the root.
	for step := range path {
		for bit := 0; bit < 8; bit++ {
			tampered := []model.PathStep{
				{Sibling: append([]byte(nil), path[0].Sibling...), Position: path[0].Position},
				{Sibling: append([]byte(nil), path[1].Sibling...), Position: path[1].Position},
			}
			tampered[step].Sibling[0] ^= 1 << bit

			got, err := ReconstructRoot(leaf, tampered)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got == honest {
				t.Errorf("Flipping bit %d of sibling %d left the root unchanged", bit, step)
			}
		}
	}
}

func TestValidateIntegrity(t *testing.T) {
	leaf := digest.DoubleSHA256([]byte("doc"))

	ok := &model.TimestampClaim{
		DocumentHash: leaf,
		MerklePath: []model.PathStep{
			{Sibling: repeatByte(0x42), Position: model.Left},
		},
	}
	if err := ValidateIntegrity(ok); err != nil {
		t.Errorf("Expected valid claim, got %v", err)
	}

	empty := &model.TimestampClaim{DocumentHash: leaf}
	if err := ValidateIntegrity(empty); err != nil {
		t.Errorf("Single-leaf claim must validate, got %v", err)
	}

	short := &model.TimestampClaim{
		DocumentHash: leaf,
		MerklePath: []model.PathStep{
			{Sibling: []byte{0x01, 0x02}, Position: model.Right},
		},
	}
	err := ValidateIntegrity(short)
	if err == nil {
		t.Fatal("Expected integrity error for 2-byte sibling")
	}
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("Expected *IntegrityError, got %T", err)
	}
	if ie.Step != 0 {
		t.Errorf("Expected failure at step 0, got %d", ie.Step)
	}

	badPos := &model.TimestampClaim{
		DocumentHash: leaf,
		MerklePath: []model.PathStep{
			{Sibling: repeatByte(0x42), Position: model.Position("up")},
		},
	}
	if err := ValidateIntegrity(badPos); err == nil {
		t.Error("Expected integrity error for unknown position")
	}
}

func TestContainsLeaf(t *testing.T) {
	leaf := digest.DoubleSHA256([]byte("member"))
	claim := &model.TimestampClaim{
		DocumentHash: leaf,
		MerklePath: []model.PathStep{
			{Sibling: repeatByte(0x99), Position: model.Right},
		},
	}

	root, err := ReconstructRoot(leaf, claim.MerklePath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !ContainsLeaf(claim, root) {
		t.Error("Expected claim to contain its own reconstructed root")
	}
	if ContainsLeaf(claim, digest.DoubleSHA256([]byte("other"))) {
		t.Error("Expected mismatching root to be rejected")
	}
}
