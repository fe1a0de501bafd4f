// Package sighash computes Bitcoin signature hashes.
//
// Three algorithms are implemented, matching the three script eras:
//
//   - Legacy computes the original pre-SegWit digest over a transient
//     modified copy of the transaction.
//   - SegWitV0 computes the BIP 143 digest used by v0 witness programs,
//     which commits to the input amount and reuses midstate hashes
//     across inputs.
//   - Taproot computes the BIP 341 key-path digest, which commits to
//     every spent output.
//
// All three return a 32-byte digest ready for ECDSA or Schnorr signing;
// none of them perform any signing themselves.
package sighash

import (
	"errors"
	"fmt"
)

// Type is the signature hash type appended to signatures and committed
// to by the digest. The low bits pick the output commitment mode; the
// high bit restricts the input commitment to the signed input alone.
type Type uint32

const (
	// Default is Taproot-only shorthand for All. It serializes as an
	// absent byte in the witness signature.
	Default Type = 0x00

	// All commits to every output.
	All Type = 0x01

	// None commits to no outputs.
	None Type = 0x02

	// Single commits only to the output at the signed input's index.
	Single Type = 0x03

	// AnyOneCanPay, ORed with a base type, commits only to the input
	// being signed.
	AnyOneCanPay Type = 0x80
)

// base strips the AnyOneCanPay flag, leaving the output commitment mode.
func (t Type) base() Type {
	return t & 0x1f
}

// anyOneCanPay reports whether the input commitment is restricted to the
// signed input.
func (t Type) anyOneCanPay() bool {
	return t&AnyOneCanPay != 0
}

// String names the type the way Bitcoin tooling conventionally does.
func (t Type) String() string {
	var name string
	switch t.base() {
	case Default:
		name = "SIGHASH_DEFAULT"
	case All:
		name = "SIGHASH_ALL"
	case None:
		name = "SIGHASH_NONE"
	case Single:
		name = "SIGHASH_SINGLE"
	default:
		return fmt.Sprintf("SIGHASH_UNKNOWN(0x%02x)", uint32(t))
	}
	if t.anyOneCanPay() {
		name += "|SIGHASH_ANYONECANPAY"
	}
	return name
}

var (
	// ErrInputIndex is returned when the input index to sign does not
	// exist in the transaction.
	ErrInputIndex = errors.New("input index out of range")

	// ErrMissingInputAmount is returned by the BIP 143 digest when the
	// spent output's value is not supplied. The amount is part of the
	// commitment; without it no valid digest exists.
	ErrMissingInputAmount = errors.New("input amount required for witness v0 sighash")

	// ErrIncompleteSpendData is returned by the Taproot digest when the
	// full set of spent outputs is not supplied. BIP 341 commits to every
	// prevout's amount and script, not just the signed one.
	ErrIncompleteSpendData = errors.New("all spent outputs required for taproot sighash")

	// ErrSingleNoOutput is returned when SIGHASH_SINGLE is requested for
	// an input index with no matching output. The historical consensus
	// rule signs the constant 1 in that case, a footgun this package
	// refuses to reproduce.
	ErrSingleNoOutput = errors.New("sighash single has no matching output")

	// ErrInvalidHashType is returned by the Taproot digest for a hash
	// type outside the BIP 341 defined set.
	ErrInvalidHashType = errors.New("invalid taproot sighash type")
)
