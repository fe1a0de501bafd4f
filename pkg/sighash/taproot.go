package sighash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btctx/pkg/tx"
)

// BIP 341 spend-type byte components. Key-path spending with no annex
// yields a spend type of zero.
const (
	annexPresentBit byte = 0x01
)

// validTaprootTypes is the closed set BIP 341 accepts. Anything else
// makes the signature invalid by consensus, so the digest refuses it up
// front.
var validTaprootTypes = map[Type]bool{
	Default:               true,
	All:                   true,
	None:                  true,
	Single:                true,
	All | AnyOneCanPay:    true,
	None | AnyOneCanPay:   true,
	Single | AnyOneCanPay: true,
}

// Taproot computes the BIP 341 key-path signature hash for the input at
// idx.
//
// prevOuts must hold the output spent by each input, index-aligned with
// t.Inputs: the digest commits to every spent amount and script, not
// just the signed input's. annex, when non-nil, is the full annex
// including its 0x50 prefix byte.
//
// The returned digest is tagged-hashed with "TapSighash" and is what a
// Schnorr signature over the key path signs.
func Taproot(t *tx.Transaction, idx int, prevOuts []tx.TxOutput, hashType Type, annex []byte) ([]byte, error) {
	if idx < 0 || idx >= len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d inputs", ErrInputIndex, idx, len(t.Inputs))
	}
	if !validTaprootTypes[hashType] {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidHashType, uint32(hashType))
	}
	if len(prevOuts) != len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d prevouts for %d inputs", ErrIncompleteSpendData, len(prevOuts), len(t.Inputs))
	}
	for i := range prevOuts {
		if len(prevOuts[i].PkScript) == 0 {
			return nil, fmt.Errorf("%w: prevout %d has no script", ErrIncompleteSpendData, i)
		}
	}

	var msg bytes.Buffer

	// Sighash epoch.
	msg.WriteByte(0x00)

	msg.WriteByte(byte(hashType))
	_ = binary.Write(&msg, binary.LittleEndian, t.Version)
	_ = binary.Write(&msg, binary.LittleEndian, t.LockTime)

	if !hashType.anyOneCanPay() {
		msg.Write(shaPrevouts(t))
		msg.Write(shaAmounts(prevOuts))
		msg.Write(shaScriptPubKeys(prevOuts))
		msg.Write(shaSequences(t))
	}

	if hashType.base() == Default || hashType.base() == All {
		msg.Write(shaOutputs(t))
	}

	spendType := byte(0)
	if annex != nil {
		spendType |= annexPresentBit
	}
	msg.WriteByte(spendType)

	if hashType.anyOneCanPay() {
		in := &t.Inputs[idx]
		msg.Write(in.PreviousOutPoint.Hash[:])
		_ = binary.Write(&msg, binary.LittleEndian, in.PreviousOutPoint.Index)
		_ = binary.Write(&msg, binary.LittleEndian, prevOuts[idx].Value)
		_ = tx.WriteCompactSize(&msg, uint64(len(prevOuts[idx].PkScript)))
		msg.Write(prevOuts[idx].PkScript)
		_ = binary.Write(&msg, binary.LittleEndian, in.Sequence)
	} else {
		_ = binary.Write(&msg, binary.LittleEndian, uint32(idx))
	}

	if annex != nil {
		var ab bytes.Buffer
		_ = tx.WriteCompactSize(&ab, uint64(len(annex)))
		ab.Write(annex)
		msg.Write(chainhash.HashB(ab.Bytes()))
	}

	if hashType.base() == Single {
		if idx >= len(t.Outputs) {
			return nil, fmt.Errorf("%w: input %d, %d outputs", ErrSingleNoOutput, idx, len(t.Outputs))
		}
		var ob bytes.Buffer
		_ = binary.Write(&ob, binary.LittleEndian, t.Outputs[idx].Value)
		_ = tx.WriteCompactSize(&ob, uint64(len(t.Outputs[idx].PkScript)))
		ob.Write(t.Outputs[idx].PkScript)
		msg.Write(chainhash.HashB(ob.Bytes()))
	}

	digest := chainhash.TaggedHash(chainhash.TagTapSighash, msg.Bytes())
	return digest[:], nil
}

// The sha_* precomputed fields are single SHA-256, unlike the double
// hashing everywhere else in the transaction format.

func shaPrevouts(t *tx.Transaction) []byte {
	var buf bytes.Buffer
	for i := range t.Inputs {
		buf.Write(t.Inputs[i].PreviousOutPoint.Hash[:])
		_ = binary.Write(&buf, binary.LittleEndian, t.Inputs[i].PreviousOutPoint.Index)
	}
	return chainhash.HashB(buf.Bytes())
}

func shaAmounts(prevOuts []tx.TxOutput) []byte {
	var buf bytes.Buffer
	for i := range prevOuts {
		_ = binary.Write(&buf, binary.LittleEndian, prevOuts[i].Value)
	}
	return chainhash.HashB(buf.Bytes())
}

func shaScriptPubKeys(prevOuts []tx.TxOutput) []byte {
	var buf bytes.Buffer
	for i := range prevOuts {
		_ = tx.WriteCompactSize(&buf, uint64(len(prevOuts[i].PkScript)))
		buf.Write(prevOuts[i].PkScript)
	}
	return chainhash.HashB(buf.Bytes())
}

func shaSequences(t *tx.Transaction) []byte {
	var buf bytes.Buffer
	for i := range t.Inputs {
		_ = binary.Write(&buf, binary.LittleEndian, t.Inputs[i].Sequence)
	}
	return chainhash.HashB(buf.Bytes())
}

func shaOutputs(t *tx.Transaction) []byte {
	var buf bytes.Buffer
	for i := range t.Outputs {
		_ = binary.Write(&buf, binary.LittleEndian, t.Outputs[i].Value)
		_ = tx.WriteCompactSize(&buf, uint64(len(t.Outputs[i].PkScript)))
		buf.Write(t.Outputs[i].PkScript)
	}
	return chainhash.HashB(buf.Bytes())
}
