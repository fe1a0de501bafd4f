package tx

import (
	"errors"
	"fmt"
)

// BIP 68 bit layout for the input sequence field. The same bit positions
// are used by the OP_CHECKSEQUENCEVERIFY operand (BIP 112), but the two
// encodings differ on the wire: the sequence field is a fixed-width
// 4-byte little-endian integer, while the CSV operand is a
// minimally-encoded script number pushed onto the stack.
const (
	// sequenceLockTimeDisabled, when set, disables relative lock-time
	// interpretation of the sequence field entirely.
	sequenceLockTimeDisabled uint32 = 1 << 31

	// sequenceLockTimeIsSeconds selects time-based rather than
	// block-based relative locks.
	sequenceLockTimeIsSeconds uint32 = 1 << 22

	// sequenceLockTimeMask extracts the lock value.
	sequenceLockTimeMask uint32 = 0x0000ffff

	// SequenceTimeGranularity is the shift converting seconds to the
	// 512-second units used by time-based relative locks.
	SequenceTimeGranularity = 9
)

var (
	// ErrSequenceValueTooLarge is returned when a relative lock value does
	// not fit the 16-bit field.
	ErrSequenceValueTooLarge = errors.New("relative lock value exceeds 16 bits")

	// ErrSequenceDisabled is returned when decoding a sequence whose
	// disable bit is set: it carries no relative lock.
	ErrSequenceDisabled = errors.New("sequence has relative lock time disabled")
)

// Sequence is a decoded relative time lock: either a block count or a
// number of 512-second intervals.
type Sequence struct {
	// TimeBased selects 512-second units; otherwise Value is a block count.
	TimeBased bool

	// Value is the lock magnitude in the unit selected by TimeBased.
	Value uint16
}

// NewBlocksSequence returns a relative lock of the given number of blocks.
func NewBlocksSequence(blocks uint16) Sequence {
	return Sequence{Value: blocks}
}

// NewTimeSequence returns a relative lock of the given number of seconds,
// rounded up to the 512-second granularity the sequence field can express.
func NewTimeSequence(seconds uint32) (Sequence, error) {
	units := (seconds + (1 << SequenceTimeGranularity) - 1) >> SequenceTimeGranularity
	if units > uint32(sequenceLockTimeMask) {
		return Sequence{}, ErrSequenceValueTooLarge
	}
	return Sequence{TimeBased: true, Value: uint16(units)}, nil
}

// InputSequence encodes the lock for the transaction input's 4-byte
// sequence field.
func (s Sequence) InputSequence() uint32 {
	v := uint32(s.Value)
	if s.TimeBased {
		v |= sequenceLockTimeIsSeconds
	}
	return v
}

// ScriptOperand encodes the lock as the minimally-encoded script number
// pushed before OP_CHECKSEQUENCEVERIFY. The bit layout matches
// InputSequence but the byte representation differs: script numbers are
// variable-length little-endian with a sign bit.
func (s Sequence) ScriptOperand() []byte {
	return scriptNumBytes(int64(s.InputSequence()))
}

// ParseInputSequence decodes a raw input sequence field back into a
// relative lock. Returns ErrSequenceDisabled when the disable bit is set.
func ParseInputSequence(seq uint32) (Sequence, error) {
	if seq&sequenceLockTimeDisabled != 0 {
		return Sequence{}, ErrSequenceDisabled
	}
	return Sequence{
		TimeBased: seq&sequenceLockTimeIsSeconds != 0,
		Value:     uint16(seq & sequenceLockTimeMask),
	}, nil
}

// ParseScriptOperand decodes a CSV script-number operand back into a
// relative lock.
func ParseScriptOperand(operand []byte) (Sequence, error) {
	n, err := parseScriptNum(operand)
	if err != nil {
		return Sequence{}, err
	}
	if n < 0 || n > 0xffffffff {
		return Sequence{}, fmt.Errorf("CSV operand %d out of range", n)
	}
	return ParseInputSequence(uint32(n))
}

// scriptNumBytes encodes n in the script interpreter's number format:
// little-endian, minimal length, with the most significant bit of the
// last byte reserved for the sign.
func scriptNumBytes(n int64) []byte {
	if n == 0 {
		return nil
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var out []byte
	for n > 0 {
		out = append(out, byte(n&0xff))
		n >>= 8
	}

	// If the high bit of the final byte is set, a padding byte keeps it
	// from being read as a sign bit.
	if out[len(out)-1]&0x80 != 0 {
		extra := byte(0x00)
		if negative {
			extra = 0x80
		}
		out = append(out, extra)
	} else if negative {
		out[len(out)-1] |= 0x80
	}

	return out
}

// parseScriptNum decodes a script-number byte string. Non-minimal
// encodings are accepted; this is a decoder for values this package
// produced or that appear in scripts being inspected, not a consensus
// check.
func parseScriptNum(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > 5 {
		return 0, fmt.Errorf("script number is %d bytes, max 5", len(b))
	}

	var n int64
	for i, v := range b {
		n |= int64(v) << (8 * i)
	}

	// Apply and clear the sign bit of the most significant byte.
	if b[len(b)-1]&0x80 != 0 {
		n &^= int64(0x80) << (8 * (len(b) - 1))
		n = -n
	}
	return n, nil
}
