// Package script implements the Bitcoin script value type.
//
// A Script is an ordered sequence of items, each either an opcode from
// the fixed table or a raw data push. The package covers construction
// (from items or string tokens), byte/hex serialization with canonical
// push prefixes, and parsing. Parsing preserves non-minimal pushes
// verbatim so that serializing a parsed script reproduces the original
// bytes exactly; it never re-minimizes.
//
// Script execution and signature verification are out of scope: a Script
// here is spending data under construction or inspection, not a program
// being run.
package script

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPushTooLarge is returned when a single data push exceeds the
	// 4-byte length encoding of OP_PUSHDATA4.
	ErrPushTooLarge = errors.New("data push exceeds maximum encodable length")

	// ErrUnknownOpcode is returned when a token or script byte is not in
	// the opcode table. Unknown operations are surfaced, never skipped.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// maxPushLen is the largest data push OP_PUSHDATA4 can describe.
const maxPushLen = 0xffffffff

// Direct push range: a leading byte in [0x01, 0x4b] is itself the push
// length.
const maxDirectPush = 0x4b

// Item is a single script element: an opcode or a data push.
//
// For items produced by parsing, the original push prefix is retained so
// re-serialization is byte-identical even for non-minimal pushes.
type Item struct {
	op     Opcode
	data   []byte
	isPush bool

	// rawPushOp records the PUSHDATA opcode the parsed input used when it
	// differs from the minimal encoding. Zero means "use minimal rules".
	rawPushOp byte
}

// Op returns an opcode item.
func Op(op Opcode) Item {
	return Item{op: op}
}

// Data returns a data-push item. The push prefix is chosen minimally at
// serialization time.
func Data(b []byte) Item {
	return Item{data: b, isPush: true}
}

// IsPush reports whether the item is a data push.
func (it Item) IsPush() bool { return it.isPush }

// Opcode returns the opcode of a non-push item.
func (it Item) Opcode() Opcode { return it.op }

// PushData returns the pushed bytes of a push item.
func (it Item) PushData() []byte { return it.data }

// String renders the item the way scripts are conventionally displayed.
func (it Item) String() string {
	if it.isPush {
		return hex.EncodeToString(it.data)
	}
	return it.op.String()
}

// Script is an ordered sequence of script items. It is a value type with
// no owner: the same Script may appear in both locking and unlocking
// contexts.
type Script []Item

// New builds a script from items.
func New(items ...Item) Script {
	return Script(items)
}

// FromTokens builds a script from string tokens. Each token is either a
// named opcode ("OP_DUP") or a hex-encoded byte string to push.
func FromTokens(tokens ...string) (Script, error) {
	s := make(Script, 0, len(tokens))
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "OP_") {
			op, ok := OpcodeByName(tok)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownOpcode, tok)
			}
			s = append(s, Op(op))
			continue
		}
		data, err := hex.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("token %q is neither an opcode nor hex data: %w", tok, err)
		}
		s = append(s, Data(data))
	}
	return s, nil
}

// Bytes serializes the script. Opcodes emit their single byte; data
// pushes emit a push prefix followed by the raw bytes. Fresh pushes use
// the minimal prefix; parsed pushes keep the prefix they arrived with.
func (s Script) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for i, it := range s {
		if err := writeItem(&buf, it); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Hex returns the serialized script as a hex string.
func (s Script) Hex() (string, error) {
	b, err := s.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// String renders the script as space-separated item tokens.
func (s Script) String() string {
	parts := make([]string, len(s))
	for i, it := range s {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

func writeItem(buf *bytes.Buffer, it Item) error {
	if !it.isPush {
		buf.WriteByte(byte(it.op))
		return nil
	}

	n := len(it.data)
	if n > maxPushLen {
		return ErrPushTooLarge
	}

	switch it.rawPushOp {
	case byte(OP_PUSHDATA1):
		buf.WriteByte(byte(OP_PUSHDATA1))
		buf.WriteByte(byte(n))
	case byte(OP_PUSHDATA2):
		buf.WriteByte(byte(OP_PUSHDATA2))
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(n))
		buf.Write(lenBuf[:])
	case byte(OP_PUSHDATA4):
		buf.WriteByte(byte(OP_PUSHDATA4))
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		buf.Write(lenBuf[:])
	default:
		writeMinimalPush(buf, it.data)
	}
	buf.Write(it.data)
	return nil
}

func writeMinimalPush(buf *bytes.Buffer, data []byte) {
	n := len(data)
	switch {
	case n <= maxDirectPush:
		buf.WriteByte(byte(n))
	case n <= 0xff:
		buf.WriteByte(byte(OP_PUSHDATA1))
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(byte(OP_PUSHDATA2))
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(n))
		buf.Write(lenBuf[:])
	default:
		buf.WriteByte(byte(OP_PUSHDATA4))
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		buf.Write(lenBuf[:])
	}
}

// Parse decodes serialized script bytes back into an item sequence.
//
// Non-minimal push encodings are preserved on the item so Bytes
// round-trips exactly. A push whose declared length overruns the buffer
// fails with a truncation error; a byte outside the opcode table fails
// with ErrUnknownOpcode.
func Parse(raw []byte) (Script, error) {
	var s Script
	i := 0
	for i < len(raw) {
		b := raw[i]
		i++

		switch {
		case b >= 0x01 && b <= maxDirectPush:
			data, next, err := takePush(raw, i, int(b))
			if err != nil {
				return nil, err
			}
			s = append(s, Item{data: data, isPush: true})
			i = next

		case b == byte(OP_PUSHDATA1):
			if i >= len(raw) {
				return nil, errTruncatedPush(i)
			}
			n := int(raw[i])
			i++
			data, next, err := takePush(raw, i, n)
			if err != nil {
				return nil, err
			}
			s = append(s, markPush(data, b, n))
			i = next

		case b == byte(OP_PUSHDATA2):
			if i+2 > len(raw) {
				return nil, errTruncatedPush(i)
			}
			n := int(binary.LittleEndian.Uint16(raw[i:]))
			i += 2
			data, next, err := takePush(raw, i, n)
			if err != nil {
				return nil, err
			}
			s = append(s, markPush(data, b, n))
			i = next

		case b == byte(OP_PUSHDATA4):
			if i+4 > len(raw) {
				return nil, errTruncatedPush(i)
			}
			n64 := uint64(binary.LittleEndian.Uint32(raw[i:]))
			i += 4
			data, next, err := takePush(raw, i, int(n64))
			if err != nil {
				return nil, err
			}
			s = append(s, markPush(data, b, int(n64)))
			i = next

		default:
			op := Opcode(b)
			if !op.isKnown() {
				return nil, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrUnknownOpcode, b, i-1)
			}
			s = append(s, Op(op))
		}
	}
	return s, nil
}

// markPush builds a parsed push item, recording the PUSHDATA form when
// it is not the minimal one for the data length.
func markPush(data []byte, pushOp byte, n int) Item {
	it := Item{data: data, isPush: true}
	minimal := byte(0)
	switch {
	case n <= maxDirectPush:
		// Any PUSHDATA form is non-minimal here.
	case n <= 0xff:
		minimal = byte(OP_PUSHDATA1)
	case n <= 0xffff:
		minimal = byte(OP_PUSHDATA2)
	default:
		minimal = byte(OP_PUSHDATA4)
	}
	if pushOp != minimal {
		it.rawPushOp = pushOp
	}
	return it
}

func takePush(raw []byte, i, n int) ([]byte, int, error) {
	if n < 0 || i+n > len(raw) {
		return nil, 0, errTruncatedPush(i)
	}
	data := make([]byte, n)
	copy(data, raw[i:i+n])
	return data, i + n, nil
}

func errTruncatedPush(offset int) error {
	return fmt.Errorf("script truncated inside data push at offset %d", offset)
}

// FromHex parses a hex-encoded serialized script.
func FromHex(h string) (Script, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("decoding script hex: %w", err)
	}
	return Parse(raw)
}

// MustBytes serializes the script and panics on failure. Only for
// scripts known statically to be encodable, such as fixed templates.
func (s Script) MustBytes() []byte {
	b, err := s.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}
