package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceBlocks(t *testing.T) {
	s := NewBlocksSequence(3)

	// The raw field and the CSV operand describe the same lock in two
	// different encodings.
	assert.Equal(t, uint32(3), s.InputSequence())
	assert.Equal(t, []byte{0x03}, s.ScriptOperand())

	fromField, err := ParseInputSequence(s.InputSequence())
	require.NoError(t, err)
	assert.Equal(t, s, fromField)

	fromOperand, err := ParseScriptOperand(s.ScriptOperand())
	require.NoError(t, err)
	assert.Equal(t, s, fromOperand)
}

func TestSequenceTime(t *testing.T) {
	t.Run("exact multiple", func(t *testing.T) {
		s, err := NewTimeSequence(1024)
		require.NoError(t, err)
		assert.True(t, s.TimeBased)
		assert.Equal(t, uint16(2), s.Value)
		assert.Equal(t, uint32(1<<22|2), s.InputSequence())
	})

	t.Run("rounds up", func(t *testing.T) {
		s, err := NewTimeSequence(1)
		require.NoError(t, err)
		assert.Equal(t, uint16(1), s.Value)

		s, err = NewTimeSequence(513)
		require.NoError(t, err)
		assert.Equal(t, uint16(2), s.Value)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := NewTimeSequence(0xffff*512 + 513)
		require.ErrorIs(t, err, ErrSequenceValueTooLarge)
	})

	t.Run("round trips through both encodings", func(t *testing.T) {
		s, err := NewTimeSequence(600 * 512)
		require.NoError(t, err)

		fromField, err := ParseInputSequence(s.InputSequence())
		require.NoError(t, err)
		assert.Equal(t, s, fromField)

		fromOperand, err := ParseScriptOperand(s.ScriptOperand())
		require.NoError(t, err)
		assert.Equal(t, s, fromOperand)
	})
}

func TestSequenceDisabled(t *testing.T) {
	_, err := ParseInputSequence(SequenceFinal)
	require.ErrorIs(t, err, ErrSequenceDisabled)

	_, err = ParseInputSequence(SequenceRBF)
	require.ErrorIs(t, err, ErrSequenceDisabled)
}

func TestScriptNumEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		bytes []byte
	}{
		{"zero", 0, nil},
		{"small", 3, []byte{0x03}},
		{"high bit needs padding", 0x80, []byte{0x80, 0x00}},
		{"two bytes", 0x1234, []byte{0x34, 0x12}},
		{"seconds flag", 1 << 22, []byte{0x00, 0x00, 0x40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bytes, scriptNumBytes(tt.value))
			got, err := parseScriptNum(tt.bytes)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	t.Run("too long", func(t *testing.T) {
		_, err := parseScriptNum(make([]byte, 6))
		require.Error(t, err)
	})
}
