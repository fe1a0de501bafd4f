// Package tx implements the Bitcoin transaction model and its binary codec.
//
// The types here mirror the wire-level transaction layout: version, inputs,
// outputs, optional per-input witness stacks, and lock time. Serialization
// is byte-exact with the Bitcoin network encoding, including the SegWit
// marker/flag bytes and compact-size length prefixes.
//
// References:
//   - BIP 144 (segregated witness serialization)
//   - BIP 141 (witness program semantics)
package tx

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Sequence number values with defined protocol meaning.
const (
	// SequenceFinal disables both relative lock time and replace-by-fee.
	SequenceFinal uint32 = 0xffffffff

	// SequenceRBF is the conventional default for new inputs: below the
	// final value, so the transaction signals BIP 125 replace-by-fee, while
	// still disabling relative lock-time semantics.
	SequenceRBF uint32 = 0xfffffffd
)

// DefaultVersion is the version used for newly constructed transactions.
// Version 2 enables BIP 68 relative lock-time interpretation of sequence
// numbers.
const DefaultVersion int32 = 2

// OutPoint identifies a previous transaction output being spent.
//
// The Hash field holds the txid in wire byte order; chainhash.Hash prints
// it reversed, matching the conventional display order.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxInput is a transaction input.
//
// SignatureScript is nil for unsigned inputs and stays nil for native
// SegWit and Taproot spends, where the witness stack carries the
// authorization data instead. It is set at most once, after signing.
type TxInput struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// NewTxInput returns an input spending the given outpoint with an empty
// unlocking script.
func NewTxInput(prevHash chainhash.Hash, index uint32, sequence uint32) TxInput {
	return TxInput{
		PreviousOutPoint: OutPoint{Hash: prevHash, Index: index},
		Sequence:         sequence,
	}
}

// TxOutput is a transaction output: an amount in satoshis locked by a
// script. Outputs are immutable once constructed.
type TxOutput struct {
	Value    int64
	PkScript []byte
}

// Witness is the per-input stack of byte strings carrying segregated
// authorization data. A nil Witness is an empty stack.
type Witness [][]byte

// SerializeSize returns the number of bytes the witness stack occupies on
// the wire: the item-count prefix plus each length-prefixed item.
func (w Witness) SerializeSize() int {
	n := CompactSizeLen(uint64(len(w)))
	for _, item := range w {
		n += CompactSizeLen(uint64(len(item))) + len(item)
	}
	return n
}

// Transaction is a Bitcoin transaction.
//
// Witnesses is index-aligned with Inputs: when the transaction carries
// witness data, len(Witnesses) == len(Inputs) at all times. Construction
// through NewTransaction pre-sizes the slice so the alignment cannot
// drift.
//
// A Transaction is mutable until signed; concurrent use requires
// exclusive ownership during the sign-then-attach sequence.
type Transaction struct {
	Version   int32
	Inputs    []TxInput
	Outputs   []TxOutput
	Witnesses []Witness
	LockTime  uint32

	// segwit records that the transaction was constructed (or parsed) as
	// witness-carrying. Such a transaction serializes with the marker and
	// flag bytes even if every witness stack is empty.
	segwit bool
}

// NewTransaction builds a transaction from its inputs and outputs.
//
// If segwit is true the transaction is marked witness-carrying and the
// witness list is pre-sized with one empty stack per input.
func NewTransaction(inputs []TxInput, outputs []TxOutput, segwit bool) *Transaction {
	t := &Transaction{
		Version: DefaultVersion,
		Inputs:  inputs,
		Outputs: outputs,
		segwit:  segwit,
	}
	if segwit {
		t.Witnesses = make([]Witness, len(inputs))
	}
	return t
}

// EnableWitness marks the transaction witness-carrying and pre-sizes the
// witness list to the input count if it is not already aligned.
func (t *Transaction) EnableWitness() {
	t.segwit = true
	if len(t.Witnesses) != len(t.Inputs) {
		aligned := make([]Witness, len(t.Inputs))
		copy(aligned, t.Witnesses)
		t.Witnesses = aligned
	}
}

// HasWitness reports whether the transaction serializes with the witness
// segment: either it was constructed/parsed as witness-carrying, or some
// witness stack is non-empty.
func (t *Transaction) HasWitness() bool {
	if t.segwit {
		return true
	}
	for _, w := range t.Witnesses {
		if len(w) > 0 {
			return true
		}
	}
	return false
}

// SetWitness attaches a witness stack to the input at index i.
func (t *Transaction) SetWitness(i int, w Witness) error {
	if i < 0 || i >= len(t.Inputs) {
		return ErrWitnessIndex
	}
	t.EnableWitness()
	t.Witnesses[i] = w
	return nil
}

// TxHash computes the transaction identifier: the double SHA-256 of the
// serialization without witness data. chainhash.Hash displays the digest
// reversed, which is the conventional txid order.
func (t *Transaction) TxHash() chainhash.Hash {
	return chainhash.DoubleHashH(t.serializeToBytes(false))
}

// WitnessHash computes the wtxid: the double SHA-256 of the full
// serialization including marker, flag, and witness stacks. For a
// transaction without witness data it equals TxHash.
func (t *Transaction) WitnessHash() chainhash.Hash {
	return chainhash.DoubleHashH(t.serializeToBytes(true))
}

// SerializeSize returns the length in bytes of the full serialization.
func (t *Transaction) SerializeSize() int {
	return len(t.serializeToBytes(true))
}

// baseSize returns the length of the serialization without witness data.
func (t *Transaction) baseSize() int {
	return len(t.serializeToBytes(false))
}

// Weight returns the BIP 141 transaction weight: base size counted four
// times plus the witness/marker bytes counted once.
func (t *Transaction) Weight() int {
	base := t.baseSize()
	total := t.SerializeSize()
	return 4*base + (total - base)
}

// VSize returns the virtual size: weight divided by four, rounded up.
func (t *Transaction) VSize() int {
	return (t.Weight() + 3) / 4
}
