package sighash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btctx/pkg/tx"
)

// Legacy computes the original signature hash for the input at idx.
//
// scriptCode is the script being satisfied: the previous output's
// locking script for P2PKH, or the redeem script for P2SH. The digest is
// the double SHA-256 of a modified serialization of the transaction with
// the 4-byte hash type appended.
//
// The transaction itself is never mutated; all modifications happen on a
// transient copy.
func Legacy(t *tx.Transaction, idx int, scriptCode []byte, hashType Type) ([]byte, error) {
	if idx < 0 || idx >= len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d inputs", ErrInputIndex, idx, len(t.Inputs))
	}
	if hashType.base() == Single && idx >= len(t.Outputs) {
		return nil, fmt.Errorf("%w: input %d, %d outputs", ErrSingleNoOutput, idx, len(t.Outputs))
	}

	copyTx := shallowCopy(t)

	// Every input's script is cleared, then the signed input gets the
	// script code. Other inputs' signatures cannot be part of what this
	// signature commits to.
	for i := range copyTx.Inputs {
		copyTx.Inputs[i].SignatureScript = nil
	}
	copyTx.Inputs[idx].SignatureScript = scriptCode

	switch hashType.base() {
	case None:
		copyTx.Outputs = nil
		zeroOtherSequences(&copyTx, idx)

	case Single:
		// Keep outputs up to and including idx; earlier ones are nulled
		// out (value -1, empty script) so they serialize but commit to
		// nothing.
		outputs := make([]tx.TxOutput, idx+1)
		for i := 0; i < idx; i++ {
			outputs[i] = tx.TxOutput{Value: -1}
		}
		outputs[idx] = copyTx.Outputs[idx]
		copyTx.Outputs = outputs
		zeroOtherSequences(&copyTx, idx)
	}

	if hashType.anyOneCanPay() {
		copyTx.Inputs = []tx.TxInput{copyTx.Inputs[idx]}
	}

	var buf bytes.Buffer
	if err := copyTx.SerializeNoWitness(&buf); err != nil {
		return nil, fmt.Errorf("serializing sighash preimage: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(hashType)); err != nil {
		return nil, err
	}

	return chainhash.DoubleHashB(buf.Bytes()), nil
}

// shallowCopy duplicates the transaction with fresh input and output
// slices so per-mode edits cannot reach the caller's transaction. Script
// byte slices are shared; they are only ever replaced, never written
// through.
func shallowCopy(t *tx.Transaction) tx.Transaction {
	c := tx.Transaction{
		Version:  t.Version,
		Inputs:   make([]tx.TxInput, len(t.Inputs)),
		Outputs:  make([]tx.TxOutput, len(t.Outputs)),
		LockTime: t.LockTime,
	}
	copy(c.Inputs, t.Inputs)
	copy(c.Outputs, t.Outputs)
	return c
}

// zeroOtherSequences clears the sequence of every input except idx, the
// NONE/SINGLE rule that lets other signers re-sequence their inputs.
func zeroOtherSequences(t *tx.Transaction, idx int) {
	for i := range t.Inputs {
		if i != idx {
			t.Inputs[i].Sequence = 0
		}
	}
}
