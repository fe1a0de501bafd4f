package sighash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btctx/pkg/tx"
)

// TxSigHashes caches the three midstate digests BIP 143 shares across
// all inputs of a transaction. Computing them once turns per-input
// signing from quadratic to linear in the input count.
type TxSigHashes struct {
	HashPrevouts chainhash.Hash
	HashSequence chainhash.Hash
	HashOutputs  chainhash.Hash
}

// NewTxSigHashes computes the shared midstate digests for t.
func NewTxSigHashes(t *tx.Transaction) *TxSigHashes {
	var h TxSigHashes

	var buf bytes.Buffer
	for i := range t.Inputs {
		buf.Write(t.Inputs[i].PreviousOutPoint.Hash[:])
		_ = binary.Write(&buf, binary.LittleEndian, t.Inputs[i].PreviousOutPoint.Index)
	}
	h.HashPrevouts = chainhash.DoubleHashH(buf.Bytes())

	buf.Reset()
	for i := range t.Inputs {
		_ = binary.Write(&buf, binary.LittleEndian, t.Inputs[i].Sequence)
	}
	h.HashSequence = chainhash.DoubleHashH(buf.Bytes())

	buf.Reset()
	for i := range t.Outputs {
		_ = binary.Write(&buf, binary.LittleEndian, t.Outputs[i].Value)
		_ = tx.WriteCompactSize(&buf, uint64(len(t.Outputs[i].PkScript)))
		buf.Write(t.Outputs[i].PkScript)
	}
	h.HashOutputs = chainhash.DoubleHashH(buf.Bytes())

	return &h
}

// SegWitV0 computes the BIP 143 signature hash for the input at idx.
//
// scriptCode is the script being satisfied. For P2WPKH it is the
// canonical P2PKH script built from the pubkey hash, not the witness
// program itself. amount is the value of the output being spent, in
// satoshis, and is part of the commitment.
//
// cache may be nil, in which case the midstate digests are computed on
// the fly.
func SegWitV0(t *tx.Transaction, idx int, scriptCode []byte, amount int64, hashType Type, cache *TxSigHashes) ([]byte, error) {
	if idx < 0 || idx >= len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d inputs", ErrInputIndex, idx, len(t.Inputs))
	}
	if amount < 0 {
		return nil, ErrMissingInputAmount
	}
	if cache == nil {
		cache = NewTxSigHashes(t)
	}

	var zero chainhash.Hash
	hashPrevouts := zero
	hashSequence := zero
	hashOutputs := zero

	if !hashType.anyOneCanPay() {
		hashPrevouts = cache.HashPrevouts
	}
	if !hashType.anyOneCanPay() && hashType.base() != Single && hashType.base() != None {
		hashSequence = cache.HashSequence
	}
	switch hashType.base() {
	case Single:
		if idx >= len(t.Outputs) {
			return nil, fmt.Errorf("%w: input %d, %d outputs", ErrSingleNoOutput, idx, len(t.Outputs))
		}
		var ob bytes.Buffer
		_ = binary.Write(&ob, binary.LittleEndian, t.Outputs[idx].Value)
		_ = tx.WriteCompactSize(&ob, uint64(len(t.Outputs[idx].PkScript)))
		ob.Write(t.Outputs[idx].PkScript)
		hashOutputs = chainhash.DoubleHashH(ob.Bytes())
	case None:
		// stays zero
	default:
		hashOutputs = cache.HashOutputs
	}

	in := &t.Inputs[idx]

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, t.Version)
	buf.Write(hashPrevouts[:])
	buf.Write(hashSequence[:])
	buf.Write(in.PreviousOutPoint.Hash[:])
	_ = binary.Write(&buf, binary.LittleEndian, in.PreviousOutPoint.Index)
	_ = tx.WriteCompactSize(&buf, uint64(len(scriptCode)))
	buf.Write(scriptCode)
	_ = binary.Write(&buf, binary.LittleEndian, amount)
	_ = binary.Write(&buf, binary.LittleEndian, in.Sequence)
	buf.Write(hashOutputs[:])
	_ = binary.Write(&buf, binary.LittleEndian, t.LockTime)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(hashType))

	return chainhash.DoubleHashB(buf.Bytes()), nil
}
