// Package builder assembles and signs Bitcoin transactions.
//
// A Builder accumulates inputs (each with the output it spends) and
// outputs, then signs inputs one at a time with the method matching the
// spent output's type. Each Sign method computes the right signature
// hash, produces the signature, and attaches the unlocking data, so the
// transaction is broadcast-ready once every input is signed.
package builder

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btctx/pkg/keys"
	"github.com/suffix-labs/btctx/pkg/script"
	"github.com/suffix-labs/btctx/pkg/sighash"
	"github.com/suffix-labs/btctx/pkg/tx"
)

var (
	// ErrNoUtxo is returned when signing an input whose spent output was
	// not provided.
	ErrNoUtxo = errors.New("no spent output recorded for input")

	// ErrInputIndex is returned for a sign call on a nonexistent input.
	ErrInputIndex = errors.New("input index out of range")
)

// Utxo describes the output an input spends. The amount feeds the
// BIP 143 and BIP 341 digests; the script identifies the spend type.
type Utxo struct {
	Value    int64
	PkScript []byte
}

// Builder accumulates a transaction and the spend data needed to sign
// it. Not safe for concurrent use.
type Builder struct {
	t     *tx.Transaction
	utxos []Utxo
	cache *sighash.TxSigHashes
}

// New returns an empty builder. segwit marks the transaction
// witness-carrying from the start; it is also enabled automatically when
// a witness-type input is signed.
func New(segwit bool) *Builder {
	return &Builder{t: tx.NewTransaction(nil, nil, segwit)}
}

// AddInput appends an input spending the given outpoint.
func (b *Builder) AddInput(prevHash chainhash.Hash, vout uint32, utxo Utxo, sequence uint32) *Builder {
	b.t.Inputs = append(b.t.Inputs, tx.NewTxInput(prevHash, vout, sequence))
	b.utxos = append(b.utxos, utxo)
	b.cache = nil
	if b.t.HasWitness() {
		b.t.EnableWitness()
	}
	return b
}

// AddOutput appends an output paying value satoshis to pkScript.
func (b *Builder) AddOutput(value int64, pkScript []byte) *Builder {
	b.t.Outputs = append(b.t.Outputs, tx.TxOutput{Value: value, PkScript: pkScript})
	b.cache = nil
	return b
}

// SetLockTime sets the transaction lock time.
func (b *Builder) SetLockTime(lockTime uint32) *Builder {
	b.t.LockTime = lockTime
	b.cache = nil
	return b
}

// Transaction returns the transaction under construction. Mutating it
// after signing invalidates the signatures.
func (b *Builder) Transaction() *tx.Transaction {
	return b.t
}

func (b *Builder) checkInput(idx int) error {
	if idx < 0 || idx >= len(b.t.Inputs) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, idx, len(b.t.Inputs))
	}
	if idx >= len(b.utxos) || len(b.utxos[idx].PkScript) == 0 {
		return fmt.Errorf("%w: input %d", ErrNoUtxo, idx)
	}
	return nil
}

func (b *Builder) sigHashes() *sighash.TxSigHashes {
	if b.cache == nil {
		b.cache = sighash.NewTxSigHashes(b.t)
	}
	return b.cache
}

// SignP2PKH signs the input at idx as a legacy pay-to-pubkey-hash spend
// and sets its unlocking script to <sig> <pubkey>.
func (b *Builder) SignP2PKH(idx int, priv *keys.PrivateKey, hashType sighash.Type) error {
	if err := b.checkInput(idx); err != nil {
		return err
	}

	digest, err := sighash.Legacy(b.t, idx, b.utxos[idx].PkScript, hashType)
	if err != nil {
		return fmt.Errorf("computing sighash for input %d: %w", idx, err)
	}
	sig, err := priv.SignECDSA(digest)
	if err != nil {
		return err
	}

	unlock := script.New(
		script.Data(append(sig, byte(hashType))),
		script.Data(priv.PubKey().Serialize()),
	)
	raw, err := unlock.Bytes()
	if err != nil {
		return err
	}
	b.t.Inputs[idx].SignatureScript = raw
	return nil
}

// SignP2SH signs the input at idx as a single-key P2SH spend and sets
// its unlocking script to <sig> <pubkey> <redeem script>. This covers
// redeem scripts that end in a P2PKH-style check, such as a
// CSV-delayed key script.
func (b *Builder) SignP2SH(idx int, redeem script.Script, priv *keys.PrivateKey, hashType sighash.Type) error {
	if err := b.checkInput(idx); err != nil {
		return err
	}
	redeemRaw, err := redeem.Bytes()
	if err != nil {
		return fmt.Errorf("serializing redeem script: %w", err)
	}

	digest, err := sighash.Legacy(b.t, idx, redeemRaw, hashType)
	if err != nil {
		return fmt.Errorf("computing sighash for input %d: %w", idx, err)
	}
	sig, err := priv.SignECDSA(digest)
	if err != nil {
		return err
	}

	unlock := script.New(
		script.Data(append(sig, byte(hashType))),
		script.Data(priv.PubKey().Serialize()),
		script.Data(redeemRaw),
	)
	raw, err := unlock.Bytes()
	if err != nil {
		return err
	}
	b.t.Inputs[idx].SignatureScript = raw
	return nil
}

// SignP2SHMultisig signs the input at idx against an m-of-n multisig
// redeem script. privs are the signing keys in the order their
// signatures must appear; exactly m keys satisfy an m-of-n script. The
// unlocking script is OP_0 <sig>... <redeem script>, with the leading
// OP_0 consumed by the off-by-one in OP_CHECKMULTISIG.
func (b *Builder) SignP2SHMultisig(idx int, redeem script.Script, privs []*keys.PrivateKey, hashType sighash.Type) error {
	if err := b.checkInput(idx); err != nil {
		return err
	}
	redeemRaw, err := redeem.Bytes()
	if err != nil {
		return fmt.Errorf("serializing redeem script: %w", err)
	}

	digest, err := sighash.Legacy(b.t, idx, redeemRaw, hashType)
	if err != nil {
		return fmt.Errorf("computing sighash for input %d: %w", idx, err)
	}

	items := make([]script.Item, 0, len(privs)+2)
	items = append(items, script.Op(script.OP_0))
	for i, priv := range privs {
		sig, err := priv.SignECDSA(digest)
		if err != nil {
			return fmt.Errorf("signing with key %d: %w", i, err)
		}
		items = append(items, script.Data(append(sig, byte(hashType))))
	}
	items = append(items, script.Data(redeemRaw))

	raw, err := script.New(items...).Bytes()
	if err != nil {
		return err
	}
	b.t.Inputs[idx].SignatureScript = raw
	return nil
}

// SignP2WPKH signs the input at idx as a native segwit v0 key spend.
// The witness becomes [<sig+type>, <pubkey>] and the signature script
// stays empty.
func (b *Builder) SignP2WPKH(idx int, priv *keys.PrivateKey, hashType sighash.Type) error {
	if err := b.checkInput(idx); err != nil {
		return err
	}

	// BIP 143 signs against the canonical P2PKH form of the key hash,
	// not the witness program.
	code, err := script.PayToPubKeyHash(priv.PubKey().Hash160())
	if err != nil {
		return err
	}
	codeRaw, err := code.Bytes()
	if err != nil {
		return err
	}

	digest, err := sighash.SegWitV0(b.t, idx, codeRaw, b.utxos[idx].Value, hashType, b.sigHashes())
	if err != nil {
		return fmt.Errorf("computing sighash for input %d: %w", idx, err)
	}
	sig, err := priv.SignECDSA(digest)
	if err != nil {
		return err
	}

	return b.t.SetWitness(idx, tx.Witness{
		append(sig, byte(hashType)),
		priv.PubKey().SerializeCompressed(),
	})
}

// SignTaprootKeySpend signs the input at idx as a Taproot key-path
// spend. The private key is tweaked with an empty script root before
// signing, matching outputs built from NewP2TR. The witness is the bare
// 64-byte Schnorr signature, with the hash type byte appended only when
// it is not SIGHASH_DEFAULT.
func (b *Builder) SignTaprootKeySpend(idx int, priv *keys.PrivateKey, hashType sighash.Type) error {
	if err := b.checkInput(idx); err != nil {
		return err
	}

	prevOuts := make([]tx.TxOutput, len(b.utxos))
	for i, u := range b.utxos {
		if len(u.PkScript) == 0 {
			return fmt.Errorf("%w: input %d", ErrNoUtxo, i)
		}
		prevOuts[i] = tx.TxOutput{Value: u.Value, PkScript: u.PkScript}
	}

	digest, err := sighash.Taproot(b.t, idx, prevOuts, hashType, nil)
	if err != nil {
		return fmt.Errorf("computing sighash for input %d: %w", idx, err)
	}

	sig, err := priv.TweakTaproot(nil).SignSchnorr(digest)
	if err != nil {
		return err
	}
	if hashType != sighash.Default {
		sig = append(sig, byte(hashType))
	}

	return b.t.SetWitness(idx, tx.Witness{sig})
}
