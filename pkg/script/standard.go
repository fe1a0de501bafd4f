package script

import (
	"fmt"
)

// Standard payload sizes for locking-script templates.
const (
	hash160Len    = 20
	witnessV0Len  = 20
	witnessWSHLen = 32
	taprootKeyLen = 32
)

// PayToPubKeyHash returns the P2PKH locking script:
//
//	OP_DUP OP_HASH160 <20-byte hash160(pubkey)> OP_EQUALVERIFY OP_CHECKSIG
func PayToPubKeyHash(pubKeyHash []byte) (Script, error) {
	if len(pubKeyHash) != hash160Len {
		return nil, fmt.Errorf("pubkey hash must be %d bytes, got %d", hash160Len, len(pubKeyHash))
	}
	return New(
		Op(OP_DUP),
		Op(OP_HASH160),
		Data(pubKeyHash),
		Op(OP_EQUALVERIFY),
		Op(OP_CHECKSIG),
	), nil
}

// PayToScriptHash returns the P2SH locking script:
//
//	OP_HASH160 <20-byte hash160(redeem script)> OP_EQUAL
func PayToScriptHash(scriptHash []byte) (Script, error) {
	if len(scriptHash) != hash160Len {
		return nil, fmt.Errorf("script hash must be %d bytes, got %d", hash160Len, len(scriptHash))
	}
	return New(
		Op(OP_HASH160),
		Data(scriptHash),
		Op(OP_EQUAL),
	), nil
}

// PayToWitnessPubKeyHash returns the native SegWit v0 P2WPKH locking
// script: OP_0 <20-byte hash160(pubkey)>.
func PayToWitnessPubKeyHash(pubKeyHash []byte) (Script, error) {
	if len(pubKeyHash) != witnessV0Len {
		return nil, fmt.Errorf("witness pubkey hash must be %d bytes, got %d", witnessV0Len, len(pubKeyHash))
	}
	return New(Op(OP_0), Data(pubKeyHash)), nil
}

// PayToWitnessScriptHash returns the P2WSH locking script:
// OP_0 <32-byte sha256(witness script)>.
func PayToWitnessScriptHash(scriptHash []byte) (Script, error) {
	if len(scriptHash) != witnessWSHLen {
		return nil, fmt.Errorf("witness script hash must be %d bytes, got %d", witnessWSHLen, len(scriptHash))
	}
	return New(Op(OP_0), Data(scriptHash)), nil
}

// PayToTaproot returns the P2TR locking script:
// OP_1 <32-byte tweaked x-only output key>.
func PayToTaproot(outputKey []byte) (Script, error) {
	if len(outputKey) != taprootKeyLen {
		return nil, fmt.Errorf("taproot output key must be %d bytes, got %d", taprootKeyLen, len(outputKey))
	}
	return New(Op(OP_1), Data(outputKey)), nil
}

// Multisig returns the m-of-n bare multisig script:
//
//	OP_m <pubkey1> ... <pubkeyN> OP_n OP_CHECKMULTISIG
//
// Public keys may be compressed (33 bytes) or uncompressed (65 bytes).
// Both m and n must be in [1, 16] with m <= n.
func Multisig(required int, pubKeys [][]byte) (Script, error) {
	n := len(pubKeys)
	if required < 1 || required > 16 {
		return nil, fmt.Errorf("required signature count %d out of range [1, 16]", required)
	}
	if n < required || n > 16 {
		return nil, fmt.Errorf("public key count %d out of range [%d, 16]", n, required)
	}

	s := make(Script, 0, n+3)
	s = append(s, Op(smallInt(required)))
	for i, pk := range pubKeys {
		if len(pk) != 33 && len(pk) != 65 {
			return nil, fmt.Errorf("public key %d has invalid length %d", i, len(pk))
		}
		s = append(s, Data(pk))
	}
	s = append(s, Op(smallInt(n)), Op(OP_CHECKMULTISIG))
	return s, nil
}

// NullData returns a provably unspendable OP_RETURN output script
// carrying the given payload.
func NullData(data []byte) (Script, error) {
	if len(data) > 80 {
		return nil, fmt.Errorf("null data payload %d bytes exceeds 80", len(data))
	}
	return New(Op(OP_RETURN), Data(data)), nil
}

// CheckSequenceLocked returns a redeem script that delays spending by a
// relative lock before a standard P2PKH check:
//
//	<csv operand> OP_CHECKSEQUENCEVERIFY OP_DROP
//	OP_DUP OP_HASH160 <pubkey hash> OP_EQUALVERIFY OP_CHECKSIG
//
// The operand is the minimally-encoded script number produced by the
// transaction package's Sequence helper; the spending input's sequence
// field must encode a lock at least as long.
func CheckSequenceLocked(csvOperand []byte, pubKeyHash []byte) (Script, error) {
	if len(pubKeyHash) != hash160Len {
		return nil, fmt.Errorf("pubkey hash must be %d bytes, got %d", hash160Len, len(pubKeyHash))
	}
	return New(
		Data(csvOperand),
		Op(OP_CHECKSEQUENCEVERIFY),
		Op(OP_DROP),
		Op(OP_DUP),
		Op(OP_HASH160),
		Data(pubKeyHash),
		Op(OP_EQUALVERIFY),
		Op(OP_CHECKSIG),
	), nil
}

// smallInt maps 1..16 to OP_1..OP_16.
func smallInt(n int) Opcode {
	return Opcode(byte(OP_1) + byte(n-1))
}
