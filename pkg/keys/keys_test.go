package keys

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *PrivateKey {
	t.Helper()
	raw, err := hex.DecodeString("0101010101010101010101010101010101010101010101010101010101010101")
	require.NoError(t, err)
	k, err := PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return k
}

func TestPrivateKeyFromBytes(t *testing.T) {
	k := testKey(t)
	assert.Len(t, k.Serialize(), 32)
	assert.True(t, k.Compressed())

	_, err := PrivateKeyFromBytes(make([]byte, 31))
	require.Error(t, err)
}

func TestGeneratePrivateKey(t *testing.T) {
	a, err := GeneratePrivateKey()
	require.NoError(t, err)
	b, err := GeneratePrivateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a.Serialize(), b.Serialize())
	assert.True(t, a.Compressed())
}

func TestWIFRoundTrip(t *testing.T) {
	for _, net := range []Network{MainNet, TestNet3} {
		t.Run(net.Name, func(t *testing.T) {
			orig := testKey(t)
			wif := orig.ToWIF(net)

			decoded, err := PrivateKeyFromWIF(wif, net)
			require.NoError(t, err)
			assert.Equal(t, orig.Serialize(), decoded.Serialize())
			assert.Equal(t, orig.Compressed(), decoded.Compressed())
		})
	}

	t.Run("network mismatch", func(t *testing.T) {
		wif := testKey(t).ToWIF(MainNet)
		_, err := PrivateKeyFromWIF(wif, TestNet3)
		require.ErrorIs(t, err, ErrWIFNetwork)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := PrivateKeyFromWIF("notawif", MainNet)
		require.ErrorIs(t, err, ErrWIFDecode)
	})
}

func TestPublicKeySerialization(t *testing.T) {
	pub := testKey(t).PubKey()

	compressed := pub.SerializeCompressed()
	require.Len(t, compressed, 33)
	assert.Contains(t, []byte{0x02, 0x03}, compressed[0])

	uncompressed := pub.SerializeUncompressed()
	require.Len(t, uncompressed, 65)
	assert.Equal(t, byte(0x04), uncompressed[0])

	// The x-only form is the compressed form minus its parity byte.
	assert.Equal(t, compressed[1:], pub.XOnly())

	parsed, err := ParsePublicKey(compressed)
	require.NoError(t, err)
	assert.Equal(t, compressed, parsed.Serialize())

	assert.Len(t, pub.Hash160(), 20)
}

func TestSignECDSA(t *testing.T) {
	priv := testKey(t)
	digest := bytes.Repeat([]byte{0x5a}, 32)

	sig, err := priv.SignECDSA(digest)
	require.NoError(t, err)

	assert.True(t, VerifyECDSA(priv.PubKey(), digest, sig))
	assert.False(t, VerifyECDSA(priv.PubKey(), bytes.Repeat([]byte{0x5b}, 32), sig))
	assert.False(t, VerifyECDSA(priv.PubKey(), digest, sig[:len(sig)-1]))

	_, err = priv.SignECDSA(digest[:31])
	require.Error(t, err)
}

func TestSignSchnorr(t *testing.T) {
	priv := testKey(t)
	digest := bytes.Repeat([]byte{0x5a}, 32)

	sig, err := priv.SignSchnorr(digest)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	assert.True(t, VerifySchnorr(priv.PubKey(), digest, sig))
	assert.False(t, VerifySchnorr(priv.PubKey(), bytes.Repeat([]byte{0x5b}, 32), sig))

	_, err = priv.SignSchnorr(digest[:31])
	require.Error(t, err)
}

func TestTaprootTweakConsistency(t *testing.T) {
	priv := testKey(t)

	// The tweaked private key must land on the public output key derived
	// independently from the public side.
	tweaked := priv.TweakTaproot(nil)
	assert.Equal(t, priv.PubKey().TaprootOutputKey(), tweaked.PubKey().XOnly())

	// And a Schnorr signature from the tweaked key verifies against the
	// output key.
	digest := bytes.Repeat([]byte{0x77}, 32)
	sig, err := tweaked.SignSchnorr(digest)
	require.NoError(t, err)

	outputKey, err := ParsePublicKey(append([]byte{0x02}, priv.PubKey().TaprootOutputKey()...))
	require.NoError(t, err)
	assert.True(t, VerifySchnorr(outputKey, digest, sig))
}

func TestTaprootTweakWithScriptRoot(t *testing.T) {
	priv := testKey(t)
	root := bytes.Repeat([]byte{0x99}, 32)

	plain := priv.TweakTaproot(nil)
	committed := priv.TweakTaproot(root)
	assert.NotEqual(t, plain.PubKey().XOnly(), committed.PubKey().XOnly())

	expected := ComputeTaprootOutputKey(priv.PubKey().key, root)
	assert.Equal(t, schnorr.SerializePubKey(expected), committed.PubKey().XOnly())
}
