// Package txout locates the OP_RETURN output inside a raw Bitcoin
// transaction and extracts its pushed payload. Only enough of the wire
// format is decoded to walk the output scripts; signatures and script
// semantics are deliberately not interpreted.
package txout

import (
	"errors"
	"fmt"

	"github.com/veristamp/veristamp/internal/model"
)

const (
	opReturn    = 0x6a
	opPushdata1 = 0x4c
	opPushdata2 = 0x4d
	opPushdata4 = 0x4e
)

var (
	// ErrNoOpReturn means no output script starts with OP_RETURN.
	ErrNoOpReturn = errors.New("no OP_RETURN output found")
	// ErrMalformedScript means an OP_RETURN script's push length is
	// inconsistent with the remaining script bytes.
	ErrMalformedScript = errors.New("malformed OP_RETURN script")
	// ErrMalformedTransaction means the raw transaction framing is
	// truncated or otherwise undecodable.
	ErrMalformedTransaction = errors.New("malformed transaction")
)

// OpReturnPayload is the data pushed immediately after the OP_RETURN
// opcode of the first matching output.
type OpReturnPayload struct {
	RootHash []byte
}

// ExtractRoot scans the transaction outputs in order and returns the
// payload of the first OP_RETURN output. Issuers are expected to emit
// exactly one such output; when several exist the first wins.
func ExtractRoot(tx *model.ChainTransaction) (*OpReturnPayload, error) {
	scripts, err := outputScripts(tx.RawBytes)
	if err != nil {
		return nil, err
	}

	for _, script := range scripts {
		if len(script) == 0 || script[0] != opReturn {
			continue
		}
		payload, err := pushedData(script[1:])
		if err != nil {
			return nil, err
		}
		return &OpReturnPayload{RootHash: payload}, nil
	}
	return nil, ErrNoOpReturn
}

// pushedData decodes the first push in a script tail, handling direct
// pushes (1-75 bytes) and the three OP_PUSHDATA forms.
func pushedData(s []byte) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: nothing pushed after OP_RETURN", ErrMalformedScript)
	}

	op := int(s[0])
	var length, offset int
	switch {
	case op >= 1 && op <= 75:
		length, offset = op, 1
	case op == opPushdata1:
		if len(s) < 2 {
			return nil, fmt.Errorf("%w: truncated OP_PUSHDATA1", ErrMalformedScript)
		}
		length, offset = int(s[1]), 2
	case op == opPushdata2:
		if len(s) < 3 {
			return nil, fmt.Errorf("%w: truncated OP_PUSHDATA2", ErrMalformedScript)
		}
		length, offset = int(s[1])|int(s[2])<<8, 3
	case op == opPushdata4:
		if len(s) < 5 {
			return nil, fmt.Errorf("%w: truncated OP_PUSHDATA4", ErrMalformedScript)
		}
		length, offset = int(s[1])|int(s[2])<<8|int(s[3])<<16|int(s[4])<<24, 5
	default:
		return nil, fmt.Errorf("%w: opcode 0x%02x is not a data push", ErrMalformedScript, op)
	}

	if length < 0 || offset+length > len(s) {
		return nil, fmt.Errorf("%w: push of %d bytes exceeds %d remaining", ErrMalformedScript, length, len(s)-offset)
	}
	out := make([]byte, length)
	copy(out, s[offset:offset+length])
	return out, nil
}

// outputScripts walks the transaction framing up to and including the
// outputs and returns each scriptPubKey. Handles both legacy and segwit
// serialization; witness data and locktime sit after the outputs and are
// not needed.
func outputScripts(raw []byte) ([][]byte, error) {
	r := &reader{buf: raw}

	if _, err := r.take(4); err != nil { // version
		return nil, err
	}

	inputs, err := r.varint()
	if err != nil {
		return nil, err
	}
	if inputs == 0 {
		// Segwit marker: 0x00 count is followed by the 0x01 flag and
		// the real input count.
		flag, err := r.take(1)
		if err != nil {
			return nil, err
		}
		if flag[0] != 0x01 {
			return nil, fmt.Errorf("%w: unknown segwit flag 0x%02x", ErrMalformedTransaction, flag[0])
		}
		if inputs, err = r.varint(); err != nil {
			return nil, err
		}
	}

	for i := uint64(0); i < inputs; i++ {
		if _, err := r.take(36); err != nil { // previous outpoint
			return nil, err
		}
		scriptLen, err := r.varint()
		if err != nil {
			return nil, err
		}
		if _, err := r.take(int(scriptLen)); err != nil {
			return nil, err
		}
		if _, err := r.take(4); err != nil { // sequence
			return nil, err
		}
	}

	outputs, err := r.varint()
	if err != nil {
		return nil, err
	}
	// An output occupies at least 9 bytes, which bounds how far a hostile
	// output count can inflate the preallocation.
	capHint := outputs
	if max := uint64(len(raw) / 9); capHint > max {
		capHint = max
	}
	scripts := make([][]byte, 0, capHint)
	for i := uint64(0); i < outputs; i++ {
		if _, err := r.take(8); err != nil { // value
			return nil, err
		}
		scriptLen, err := r.varint()
		if err != nil {
			return nil, err
		}
		script, err := r.take(int(scriptLen))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	// Compared against the remainder rather than summed with the offset:
	// n comes from attacker-controlled varints and r.off+n can wrap.
	if n < 0 || n > len(r.buf)-r.off {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedTransaction, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) varint() (uint64, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	switch b[0] {
	case 0xfd:
		p, err := r.take(2)
		if err != nil {
			return 0, err
		}
		return uint64(p[0]) | uint64(p[1])<<8, nil
	case 0xfe:
		p, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24, nil
	case 0xff:
		p, err := r.take(8)
		if err != nil {
			return 0, err
		}
		var v uint64
		for i := 0; i < 8; i++ {
			v |= uint64(p[i]) << (8 * i)
		}
		return v, nil
	default:
		return uint64(b[0]), nil
	}
}
