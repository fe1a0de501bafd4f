package script

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHash20(seed byte) []byte {
	return bytes.Repeat([]byte{seed}, 20)
}

func testHash32(seed byte) []byte {
	return bytes.Repeat([]byte{seed}, 32)
}

func TestPayToPubKeyHash(t *testing.T) {
	s, err := PayToPubKeyHash(testHash20(0x11))
	require.NoError(t, err)

	raw := s.MustBytes()
	require.Len(t, raw, 25)
	assert.Equal(t, []byte{0x76, 0xa9, 0x14}, raw[:3])
	assert.Equal(t, testHash20(0x11), raw[3:23])
	assert.Equal(t, []byte{0x88, 0xac}, raw[23:])

	_, err = PayToPubKeyHash(testHash32(0x11))
	require.Error(t, err)
}

func TestPayToScriptHash(t *testing.T) {
	s, err := PayToScriptHash(testHash20(0x22))
	require.NoError(t, err)

	raw := s.MustBytes()
	require.Len(t, raw, 23)
	assert.Equal(t, []byte{0xa9, 0x14}, raw[:2])
	assert.Equal(t, byte(0x87), raw[22])
}

func TestWitnessPrograms(t *testing.T) {
	t.Run("p2wpkh", func(t *testing.T) {
		s, err := PayToWitnessPubKeyHash(testHash20(0x33))
		require.NoError(t, err)
		raw := s.MustBytes()
		require.Len(t, raw, 22)
		assert.Equal(t, []byte{0x00, 0x14}, raw[:2])
	})

	t.Run("p2wsh", func(t *testing.T) {
		s, err := PayToWitnessScriptHash(testHash32(0x44))
		require.NoError(t, err)
		raw := s.MustBytes()
		require.Len(t, raw, 34)
		assert.Equal(t, []byte{0x00, 0x20}, raw[:2])
	})

	t.Run("p2tr", func(t *testing.T) {
		s, err := PayToTaproot(testHash32(0x55))
		require.NoError(t, err)
		raw := s.MustBytes()
		require.Len(t, raw, 34)
		assert.Equal(t, []byte{0x51, 0x20}, raw[:2])
	})

	t.Run("wrong lengths", func(t *testing.T) {
		_, err := PayToWitnessPubKeyHash(testHash32(0x33))
		require.Error(t, err)
		_, err = PayToWitnessScriptHash(testHash20(0x44))
		require.Error(t, err)
		_, err = PayToTaproot(testHash20(0x55))
		require.Error(t, err)
	})
}

func TestMultisig(t *testing.T) {
	key := func(seed byte) []byte {
		k := bytes.Repeat([]byte{seed}, 33)
		k[0] = 0x02
		return k
	}

	t.Run("2 of 3", func(t *testing.T) {
		s, err := Multisig(2, [][]byte{key(0xa1), key(0xa2), key(0xa3)})
		require.NoError(t, err)

		raw := s.MustBytes()
		assert.Equal(t, byte(OP_2), raw[0])
		assert.Equal(t, byte(OP_3), raw[len(raw)-2])
		assert.Equal(t, byte(OP_CHECKMULTISIG), raw[len(raw)-1])
		// OP_m + 3 * (push prefix + 33-byte key) + OP_n + OP_CHECKMULTISIG
		assert.Len(t, raw, 1+3*34+2)
	})

	t.Run("invalid shapes", func(t *testing.T) {
		_, err := Multisig(0, [][]byte{key(0xa1)})
		require.Error(t, err)
		_, err = Multisig(2, [][]byte{key(0xa1)})
		require.Error(t, err)
		_, err = Multisig(1, [][]byte{make([]byte, 20)})
		require.Error(t, err)
	})
}

func TestNullData(t *testing.T) {
	s, err := NullData([]byte("hello"))
	require.NoError(t, err)
	raw := s.MustBytes()
	assert.Equal(t, byte(OP_RETURN), raw[0])
	assert.Equal(t, byte(5), raw[1])

	_, err = NullData(make([]byte, 81))
	require.Error(t, err)
}

func TestCheckSequenceLocked(t *testing.T) {
	s, err := CheckSequenceLocked([]byte{0x03}, testHash20(0x66))
	require.NoError(t, err)

	raw := s.MustBytes()
	// <0x03> CSV DROP then the standard P2PKH tail.
	assert.Equal(t, []byte{0x01, 0x03, byte(OP_CHECKSEQUENCEVERIFY), byte(OP_DROP)}, raw[:4])
	assert.Equal(t, byte(OP_CHECKSIG), raw[len(raw)-1])
	assert.Len(t, raw, 4+25)
}
