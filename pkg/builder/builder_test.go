package builder

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btctx/pkg/address"
	"github.com/suffix-labs/btctx/pkg/keys"
	"github.com/suffix-labs/btctx/pkg/script"
	"github.com/suffix-labs/btctx/pkg/sighash"
	"github.com/suffix-labs/btctx/pkg/tx"
)

func testPrevHash(seed byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = seed
	}
	return h
}

func testKey(t *testing.T, seed byte) *keys.PrivateKey {
	t.Helper()
	raw := bytes.Repeat([]byte{seed}, 32)
	k, err := keys.PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return k
}

func lockingScript(t *testing.T, a *address.Address) []byte {
	t.Helper()
	s, err := a.ScriptPubKey()
	require.NoError(t, err)
	return s.MustBytes()
}

func changeScript(t *testing.T) []byte {
	t.Helper()
	return lockingScript(t, address.NewP2WPKH(testKey(t, 0x0f).PubKey()))
}

func TestSignP2PKH(t *testing.T) {
	priv := testKey(t, 0x01)
	spent := lockingScript(t, address.NewP2PKH(priv.PubKey()))

	b := New(false).
		AddInput(testPrevHash(0xaa), 0, Utxo{Value: 100_000, PkScript: spent}, tx.SequenceRBF).
		AddOutput(99_000, changeScript(t))
	require.NoError(t, b.SignP2PKH(0, priv, sighash.All))

	tr := b.Transaction()
	sigScript := tr.Inputs[0].SignatureScript
	require.NotEmpty(t, sigScript)

	// The unlocking script is exactly <sig> <pubkey>, and the signature
	// verifies against the digest the signer committed to.
	items, err := script.Parse(sigScript)
	require.NoError(t, err)
	require.Len(t, items, 2)

	sigWithType := items[0].PushData()
	require.NotEmpty(t, sigWithType)
	assert.Equal(t, byte(sighash.All), sigWithType[len(sigWithType)-1])
	assert.Equal(t, priv.PubKey().Serialize(), items[1].PushData())

	digest, err := sighash.Legacy(tr, 0, spent, sighash.All)
	require.NoError(t, err)
	assert.True(t, keys.VerifyECDSA(priv.PubKey(), digest, sigWithType[:len(sigWithType)-1]))

	// No witness data was introduced.
	assert.False(t, tr.HasWitness())
}

func TestSignP2SHMultisig(t *testing.T) {
	k1 := testKey(t, 0x01)
	k2 := testKey(t, 0x02)
	k3 := testKey(t, 0x03)

	redeem, err := script.Multisig(2, [][]byte{
		k1.PubKey().SerializeCompressed(),
		k2.PubKey().SerializeCompressed(),
		k3.PubKey().SerializeCompressed(),
	})
	require.NoError(t, err)

	spendAddr, err := address.NewP2SH(redeem)
	require.NoError(t, err)

	b := New(false).
		AddInput(testPrevHash(0xbb), 1, Utxo{Value: 200_000, PkScript: lockingScript(t, spendAddr)}, tx.SequenceRBF).
		AddOutput(195_000, changeScript(t))
	require.NoError(t, b.SignP2SHMultisig(0, redeem, []*keys.PrivateKey{k1, k3}, sighash.All))

	items, err := script.Parse(b.Transaction().Inputs[0].SignatureScript)
	require.NoError(t, err)
	require.Len(t, items, 4)

	// Leading OP_0 absorbs the CHECKMULTISIG off-by-one.
	assert.False(t, items[0].IsPush())
	assert.Equal(t, script.OP_0, items[0].Opcode())

	// Last push is the redeem script itself.
	redeemRaw, err := redeem.Bytes()
	require.NoError(t, err)
	assert.Equal(t, redeemRaw, items[3].PushData())

	digest, err := sighash.Legacy(b.Transaction(), 0, redeemRaw, sighash.All)
	require.NoError(t, err)
	for i, k := range []*keys.PrivateKey{k1, k3} {
		sig := items[i+1].PushData()
		assert.True(t, keys.VerifyECDSA(k.PubKey(), digest, sig[:len(sig)-1]), "signature %d", i)
	}
}

func TestSignP2SHWithCSV(t *testing.T) {
	priv := testKey(t, 0x04)
	lock := tx.NewBlocksSequence(3)

	redeem, err := script.CheckSequenceLocked(lock.ScriptOperand(), priv.PubKey().Hash160())
	require.NoError(t, err)
	spendAddr, err := address.NewP2SH(redeem)
	require.NoError(t, err)

	b := New(false).
		AddInput(testPrevHash(0xcc), 0, Utxo{Value: 50_000, PkScript: lockingScript(t, spendAddr)}, lock.InputSequence()).
		AddOutput(49_000, changeScript(t))
	require.NoError(t, b.SignP2SH(0, redeem, priv, sighash.All))

	tr := b.Transaction()
	assert.Equal(t, lock.InputSequence(), tr.Inputs[0].Sequence)

	items, err := script.Parse(tr.Inputs[0].SignatureScript)
	require.NoError(t, err)
	require.Len(t, items, 3)

	redeemRaw, err := redeem.Bytes()
	require.NoError(t, err)
	assert.Equal(t, redeemRaw, items[2].PushData())
}

func TestSignP2WPKH(t *testing.T) {
	priv := testKey(t, 0x05)
	spent := lockingScript(t, address.NewP2WPKH(priv.PubKey()))

	b := New(true).
		AddInput(testPrevHash(0xdd), 2, Utxo{Value: 666, PkScript: spent}, tx.SequenceRBF).
		AddOutput(600, changeScript(t))
	require.NoError(t, b.SignP2WPKH(0, priv, sighash.All))

	tr := b.Transaction()
	require.True(t, tr.HasWitness())
	assert.Empty(t, tr.Inputs[0].SignatureScript)

	witness := tr.Witnesses[0]
	require.Len(t, witness, 2)
	assert.Equal(t, priv.PubKey().SerializeCompressed(), witness[1])

	sigWithType := witness[0]
	assert.Equal(t, byte(sighash.All), sigWithType[len(sigWithType)-1])

	// Recompute the BIP 143 digest against the P2PKH script code and
	// check the signature.
	code, err := script.PayToPubKeyHash(priv.PubKey().Hash160())
	require.NoError(t, err)
	digest, err := sighash.SegWitV0(tr, 0, code.MustBytes(), 666, sighash.All, nil)
	require.NoError(t, err)
	assert.True(t, keys.VerifyECDSA(priv.PubKey(), digest, sigWithType[:len(sigWithType)-1]))

	// The witness does not change the txid.
	assert.NotEqual(t, tr.TxHash(), tr.WitnessHash())
}

func TestSignTaprootKeySpend(t *testing.T) {
	priv := testKey(t, 0x06)
	spent := lockingScript(t, address.NewP2TR(priv.PubKey()))

	b := New(true).
		AddInput(testPrevHash(0xee), 0, Utxo{Value: 30_000, PkScript: spent}, tx.SequenceRBF).
		AddOutput(29_000, changeScript(t))

	t.Run("default type", func(t *testing.T) {
		require.NoError(t, b.SignTaprootKeySpend(0, priv, sighash.Default))

		tr := b.Transaction()
		witness := tr.Witnesses[0]
		require.Len(t, witness, 1)
		require.Len(t, witness[0], 64)

		// The signature verifies against the tweaked output key embedded
		// in the spent script.
		prevOuts := []tx.TxOutput{{Value: 30_000, PkScript: spent}}
		digest, err := sighash.Taproot(tr, 0, prevOuts, sighash.Default, nil)
		require.NoError(t, err)

		outputKey, err := keys.ParsePublicKey(append([]byte{0x02}, spent[2:]...))
		require.NoError(t, err)
		assert.True(t, keys.VerifySchnorr(outputKey, digest, witness[0]))
	})

	t.Run("explicit type appends the byte", func(t *testing.T) {
		require.NoError(t, b.SignTaprootKeySpend(0, priv, sighash.All))
		witness := b.Transaction().Witnesses[0]
		require.Len(t, witness, 1)
		require.Len(t, witness[0], 65)
		assert.Equal(t, byte(sighash.All), witness[0][64])
	})
}

func TestSignErrors(t *testing.T) {
	priv := testKey(t, 0x07)

	t.Run("bad index", func(t *testing.T) {
		b := New(false)
		require.ErrorIs(t, b.SignP2PKH(0, priv, sighash.All), ErrInputIndex)
	})

	t.Run("missing utxo", func(t *testing.T) {
		b := New(false).AddInput(testPrevHash(0x01), 0, Utxo{}, tx.SequenceFinal)
		require.ErrorIs(t, b.SignP2PKH(0, priv, sighash.All), ErrNoUtxo)
	})
}
