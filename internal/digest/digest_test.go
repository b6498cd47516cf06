package digest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDoubleSHA256_PinnedVector(t *testing.T) {
	// sha256(sha256("hello"))
	got := DoubleSHA256([]byte("hello"))
	want := "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"

	if got.String() != want {
		t.Errorf("Expected %s, got %s", want, got.String())
	}
}

func TestHexRoundTrip(t *testing.T) {
	in := "00ff10a5"
	b, err := DecodeHex(in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(b, []byte{0x00, 0xff, 0x10, 0xa5}) {
		t.Errorf("Unexpected decode result: %x", b)
	}
	if EncodeHex(b) != in {
		t.Errorf("Round trip mismatch: %s != %s", EncodeHex(b), in)
	}
}

func TestDecodeHex_Malformed(t *testing.T) {
	cases := []string{
		"abc",    // odd length
		"zz00",   // non-hex characters
		"0x1234", // prefix is not hex
	}

	for _, in := range cases {
		if _, err := DecodeHex(in); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("DecodeHex(%q): expected ErrMalformedInput, got %v", in, err)
		}
	}
}

func TestParseHash_Length(t *testing.T) {
	if _, err := ParseHash("aabb"); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Expected ErrMalformedInput for short input, got %v", err)
	}

	h, err := ParseHash(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h[0] != 0xab || h[31] != 0xab {
		t.Errorf("Unexpected hash contents: %s", h)
	}
}

func TestDisplayOrderReversal(t *testing.T) {
	// Display-order hex ends with the first internal byte.
	display := "01" + strings.Repeat("00", 30) + "ff"

	h, err := ParseDisplayHash(display)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if h[0] != 0xff || h[31] != 0x01 {
		t.Errorf("Expected reversal into internal order, got first=%02x last=%02x", h[0], h[31])
	}

	if h.DisplayString() != display {
		t.Errorf("DisplayString round trip mismatch: %s != %s", h.DisplayString(), display)
	}

	if h.String() == display {
		t.Error("Internal rendering must differ from display rendering for asymmetric digests")
	}
}

func TestReversed_Involution(t *testing.T) {
	h := DoubleSHA256([]byte("involution"))
	if h.Reversed().Reversed() != h {
		t.Error("Reversing twice must restore the original digest")
	}
}
