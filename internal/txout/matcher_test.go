package txout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/veristamp/veristamp/internal/model"
)

// buildTx serializes a minimal transaction with one dummy input and the
// given output scripts. Legacy framing unless segwit is set, in which case
// the marker/flag pair precedes the input count.
func buildTx(segwit bool, scripts ...[]byte) []byte {
	var buf bytes.Buffer

	buf.Write([]byte{0x02, 0x00, 0x00, 0x00}) // version
	if segwit {
		buf.Write([]byte{0x00, 0x01})
	}

	buf.WriteByte(0x01)                     // one input
	buf.Write(make([]byte, 36))             // previous outpoint
	buf.WriteByte(0x00)                     // empty scriptSig
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff}) // sequence

	buf.WriteByte(byte(len(scripts)))
	for _, s := range scripts {
		buf.Write(make([]byte, 8)) // value
		buf.WriteByte(byte(len(s)))
		buf.Write(s)
	}

	// Witness data and locktime follow the outputs; the parser never
	// reads them, a present locktime just keeps the fixture realistic.
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
	return buf.Bytes()
}

func opReturnScript(payload []byte) []byte {
	s := []byte{opReturn, byte(len(payload))}
	return append(s, payload...)
}

func p2pkhScript() []byte {
	// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
	s := []byte{0x76, 0xa9, 0x14}
	s = append(s, make([]byte, 20)...)
	return append(s, 0x88, 0xac)
}

func tx(raw []byte) *model.ChainTransaction {
	return &model.ChainTransaction{RawBytes: raw}
}

func TestExtractRoot_SingleOpReturn(t *testing.T) {
	payload := bytes.Repeat([]byte{0xd7}, 32)
	raw := buildTx(false, p2pkhScript(), opReturnScript(payload))

	got, err := ExtractRoot(tx(raw))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(got.RootHash, payload) {
		t.Errorf("Expected payload %x, got %x", payload, got.RootHash)
	}
}

func TestExtractRoot_SegwitFraming(t *testing.T) {
	payload := bytes.Repeat([]byte{0x3c}, 32)
	raw := buildTx(true, opReturnScript(payload), p2pkhScript())

	got, err := ExtractRoot(tx(raw))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(got.RootHash, payload) {
		t.Errorf("Expected payload %x, got %x", payload, got.RootHash)
	}
}

func TestExtractRoot_NoOpReturn(t *testing.T) {
	raw := buildTx(false, p2pkhScript(), p2pkhScript())

	_, err := ExtractRoot(tx(raw))
	if !errors.Is(err, ErrNoOpReturn) {
		t.Errorf("Expected ErrNoOpReturn, got %v", err)
	}
}

func TestExtractRoot_FirstMatchWins(t *testing.T) {
	first := bytes.Repeat([]byte{0x01}, 32)
	second := bytes.Repeat([]byte{0x02}, 32)
	raw := buildTx(false, opReturnScript(first), opReturnScript(second))

	got, err := ExtractRoot(tx(raw))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(got.RootHash, first) {
		t.Errorf("Expected first payload to win, got %x", got.RootHash)
	}
}

func TestExtractRoot_MalformedScript(t *testing.T) {
	cases := map[string][]byte{
		"push exceeds script":  {opReturn, 0x20, 0x01, 0x02}, // claims 32, has 2
		"bare op_return":       {opReturn},
		"truncated pushdata1":  {opReturn, opPushdata1},
		"non-push opcode":      {opReturn, 0xac}, // OP_CHECKSIG
	}

	for name, script := range cases {
		raw := buildTx(false, script)
		if _, err := ExtractRoot(tx(raw)); !errors.Is(err, ErrMalformedScript) {
			t.Errorf("%s: expected ErrMalformedScript, got %v", name, err)
		}
	}
}

func TestExtractRoot_Pushdata1Payload(t *testing.T) {
	payload := bytes.Repeat([]byte{0xee}, 80)
	script := append([]byte{opReturn, opPushdata1, byte(len(payload))}, payload...)
	raw := buildTx(false, script)

	got, err := ExtractRoot(tx(raw))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(got.RootHash, payload) {
		t.Errorf("Expected %d-byte payload back, got %d", len(payload), len(got.RootHash))
	}
}

func TestExtractRoot_TruncatedTransaction(t *testing.T) {
	raw := buildTx(false, opReturnScript(bytes.Repeat([]byte{0x07}, 32)))

	for _, cut := range []int{2, 10, len(raw) - 40} {
		if _, err := ExtractRoot(tx(raw[:cut])); !errors.Is(err, ErrMalformedTransaction) {
			t.Errorf("Cut at %d: expected ErrMalformedTransaction, got %v", cut, err)
		}
	}
}

func TestExtractRoot_HostileScriptLength(t *testing.T) {
	// A script length varint near the int64 maximum must decode as a
	// malformed transaction, not wrap the bounds check and crash.
	hugeVarint := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}

	var out bytes.Buffer
	out.Write([]byte{0x02, 0x00, 0x00, 0x00}) // version
	out.WriteByte(0x01)                       // one input
	out.Write(make([]byte, 36))               // previous outpoint
	out.WriteByte(0x00)                       // empty scriptSig
	out.Write([]byte{0xff, 0xff, 0xff, 0xff}) // sequence
	out.WriteByte(0x01)                       // one output
	out.Write(make([]byte, 8))                // value
	out.Write(hugeVarint)                     // scriptPubKey length

	var in bytes.Buffer
	in.Write([]byte{0x02, 0x00, 0x00, 0x00}) // version
	in.WriteByte(0x01)                       // one input
	in.Write(make([]byte, 36))               // previous outpoint
	in.Write(hugeVarint)                     // scriptSig length

	var count bytes.Buffer
	count.Write([]byte{0x02, 0x00, 0x00, 0x00}) // version
	count.WriteByte(0x01)                       // one input
	count.Write(make([]byte, 36))               // previous outpoint
	count.WriteByte(0x00)                       // empty scriptSig
	count.Write([]byte{0xff, 0xff, 0xff, 0xff}) // sequence
	count.Write(hugeVarint)                     // output count

	for name, raw := range map[string][]byte{
		"output script": out.Bytes(),
		"input script":  in.Bytes(),
		"output count":  count.Bytes(),
	} {
		if _, err := ExtractRoot(tx(raw)); !errors.Is(err, ErrMalformedTransaction) {
			t.Errorf("%s: expected ErrMalformedTransaction, got %v", name, err)
		}
	}
}

func TestExtractRoot_PayloadIsACopy(t *testing.T) {
	payload := bytes.Repeat([]byte{0x55}, 32)
	raw := buildTx(false, opReturnScript(payload))
	chainTx := tx(raw)

	got, err := ExtractRoot(chainTx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got.RootHash[0] ^= 0xff

	again, err := ExtractRoot(chainTx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(again.RootHash, payload) {
		t.Error("Mutating an extracted payload must not touch the transaction bytes")
	}
}
