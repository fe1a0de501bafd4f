// Package address derives and encodes Bitcoin addresses.
//
// An Address is a payment kind plus its program bytes; the network is
// supplied at encode and decode time rather than stored, since the same
// program is valid on every network. Legacy kinds use Base58Check,
// segwit kinds use bech32 (version 0) or bech32m (version 1).
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btctx/pkg/keys"
	"github.com/suffix-labs/btctx/pkg/script"
)

// Kind enumerates the supported standard payment types.
type Kind int

const (
	P2PKH Kind = iota
	P2SH
	P2WPKH
	P2WSH
	P2TR
)

// String names the kind the way Bitcoin tooling does.
func (k Kind) String() string {
	switch k {
	case P2PKH:
		return "p2pkh"
	case P2SH:
		return "p2sh"
	case P2WPKH:
		return "p2wpkh"
	case P2WSH:
		return "p2wsh"
	case P2TR:
		return "p2tr"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrDecode is returned when an address string cannot be decoded or
	// fails a structural check.
	ErrDecode = errors.New("malformed address")

	// ErrNetworkMismatch is returned when an address decodes cleanly but
	// belongs to a different network than expected.
	ErrNetworkMismatch = errors.New("address network mismatch")
)

// Address is a decoded payment destination: a kind and its program
// bytes (a key hash, script hash, or x-only output key).
type Address struct {
	kind    Kind
	program []byte
}

// Kind returns the payment type.
func (a *Address) Kind() Kind { return a.kind }

// Program returns the address's program bytes.
func (a *Address) Program() []byte { return a.program }

// NewP2PKH returns the pay-to-pubkey-hash address for a public key.
func NewP2PKH(pub *keys.PublicKey) *Address {
	return &Address{kind: P2PKH, program: pub.Hash160()}
}

// NewP2PKHFromHash returns a P2PKH address from a 20-byte key hash.
func NewP2PKHFromHash(pubKeyHash []byte) (*Address, error) {
	if len(pubKeyHash) != 20 {
		return nil, fmt.Errorf("%w: pubkey hash is %d bytes", ErrDecode, len(pubKeyHash))
	}
	return &Address{kind: P2PKH, program: pubKeyHash}, nil
}

// NewP2SH returns the pay-to-script-hash address for a redeem script.
func NewP2SH(redeem script.Script) (*Address, error) {
	raw, err := redeem.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing redeem script: %w", err)
	}
	return &Address{kind: P2SH, program: btcutil.Hash160(raw)}, nil
}

// NewP2WPKH returns the native segwit v0 key address for a public key.
// The witness program requires the compressed key form.
func NewP2WPKH(pub *keys.PublicKey) *Address {
	return &Address{kind: P2WPKH, program: btcutil.Hash160(pub.SerializeCompressed())}
}

// NewP2WSH returns the native segwit v0 script address for a witness
// script. The program is the single SHA-256 of the script, not hash160.
func NewP2WSH(witnessScript script.Script) (*Address, error) {
	raw, err := witnessScript.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing witness script: %w", err)
	}
	return &Address{kind: P2WSH, program: chainhash.HashB(raw)}, nil
}

// NewP2TR returns the Taproot address for an internal key with no
// script tree: the program is the tweaked x-only output key.
func NewP2TR(internal *keys.PublicKey) *Address {
	return &Address{kind: P2TR, program: internal.TaprootOutputKey()}
}

// NewP2TRFromOutputKey returns a Taproot address from an already-tweaked
// 32-byte x-only output key.
func NewP2TRFromOutputKey(outputKey []byte) (*Address, error) {
	if len(outputKey) != 32 {
		return nil, fmt.Errorf("%w: output key is %d bytes", ErrDecode, len(outputKey))
	}
	return &Address{kind: P2TR, program: outputKey}, nil
}

// ScriptPubKey returns the locking script that pays this address.
func (a *Address) ScriptPubKey() (script.Script, error) {
	switch a.kind {
	case P2PKH:
		return script.PayToPubKeyHash(a.program)
	case P2SH:
		return script.PayToScriptHash(a.program)
	case P2WPKH:
		return script.PayToWitnessPubKeyHash(a.program)
	case P2WSH:
		return script.PayToWitnessScriptHash(a.program)
	case P2TR:
		return script.PayToTaproot(a.program)
	}
	return nil, fmt.Errorf("no script template for %s", a.kind)
}

// Encode renders the address for the given network.
func (a *Address) Encode(net keys.Network) (string, error) {
	switch a.kind {
	case P2PKH:
		return base58.CheckEncode(a.program, net.PubKeyHashPrefix), nil
	case P2SH:
		return base58.CheckEncode(a.program, net.ScriptHashPrefix), nil
	case P2WPKH, P2WSH:
		return encodeSegwit(net.Bech32HRP, 0, a.program)
	case P2TR:
		return encodeSegwit(net.Bech32HRP, 1, a.program)
	}
	return "", fmt.Errorf("no encoding for %s", a.kind)
}

func encodeSegwit(hrp string, version byte, program []byte) (string, error) {
	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("converting witness program: %w", err)
	}
	data := append([]byte{version}, converted...)
	if version == 0 {
		return bech32.Encode(hrp, data)
	}
	return bech32.EncodeM(hrp, data)
}

// Decode parses an address string, validating it against the given
// network's version bytes and bech32 prefix.
func Decode(addr string, net keys.Network) (*Address, error) {
	// Legacy Base58Check first; bech32 strings fail its checksum.
	if payload, version, err := base58.CheckDecode(addr); err == nil {
		if len(payload) != 20 {
			return nil, fmt.Errorf("%w: base58 payload is %d bytes", ErrDecode, len(payload))
		}
		switch version {
		case net.PubKeyHashPrefix:
			return &Address{kind: P2PKH, program: payload}, nil
		case net.ScriptHashPrefix:
			return &Address{kind: P2SH, program: payload}, nil
		}
		return nil, fmt.Errorf("%w: base58 version 0x%02x", ErrNetworkMismatch, version)
	}

	hrp, data, encoding, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if hrp != net.Bech32HRP {
		return nil, fmt.Errorf("%w: prefix %q, want %q", ErrNetworkMismatch, hrp, net.Bech32HRP)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty bech32 payload", ErrDecode)
	}

	version := data[0]
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch version {
	case 0:
		if encoding != bech32.Version0 {
			return nil, fmt.Errorf("%w: witness v0 requires bech32, not bech32m", ErrDecode)
		}
		switch len(program) {
		case 20:
			return &Address{kind: P2WPKH, program: program}, nil
		case 32:
			return &Address{kind: P2WSH, program: program}, nil
		}
		return nil, fmt.Errorf("%w: witness v0 program is %d bytes", ErrDecode, len(program))
	case 1:
		if encoding != bech32.VersionM {
			return nil, fmt.Errorf("%w: witness v1 requires bech32m, not bech32", ErrDecode)
		}
		if len(program) != 32 {
			return nil, fmt.Errorf("%w: witness v1 program is %d bytes", ErrDecode, len(program))
		}
		return &Address{kind: P2TR, program: program}, nil
	}
	return nil, fmt.Errorf("%w: unsupported witness version %d", ErrDecode, version)
}

// FromScriptPubKey recognizes a standard locking script and returns its
// address form. Non-standard scripts return ErrDecode.
func FromScriptPubKey(pkScript []byte) (*Address, error) {
	switch {
	case len(pkScript) == 25 &&
		pkScript[0] == 0x76 && pkScript[1] == 0xa9 && pkScript[2] == 0x14 &&
		pkScript[23] == 0x88 && pkScript[24] == 0xac:
		return &Address{kind: P2PKH, program: bytes.Clone(pkScript[3:23])}, nil

	case len(pkScript) == 23 &&
		pkScript[0] == 0xa9 && pkScript[1] == 0x14 && pkScript[22] == 0x87:
		return &Address{kind: P2SH, program: bytes.Clone(pkScript[2:22])}, nil

	case len(pkScript) == 22 && pkScript[0] == 0x00 && pkScript[1] == 0x14:
		return &Address{kind: P2WPKH, program: bytes.Clone(pkScript[2:])}, nil

	case len(pkScript) == 34 && pkScript[0] == 0x00 && pkScript[1] == 0x20:
		return &Address{kind: P2WSH, program: bytes.Clone(pkScript[2:])}, nil

	case len(pkScript) == 34 && pkScript[0] == 0x51 && pkScript[1] == 0x20:
		return &Address{kind: P2TR, program: bytes.Clone(pkScript[2:])}, nil
	}
	return nil, fmt.Errorf("%w: non-standard script", ErrDecode)
}
