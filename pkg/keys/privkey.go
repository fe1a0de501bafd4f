package keys

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const privKeyLen = 32

var (
	// ErrWIFDecode is returned when a WIF string fails Base58Check
	// decoding or has an impossible payload length.
	ErrWIFDecode = errors.New("malformed WIF private key")

	// ErrWIFNetwork is returned when a WIF's version byte does not match
	// the expected network.
	ErrWIFNetwork = errors.New("WIF version byte does not match network")
)

// PrivateKey is a secp256k1 private key together with the compression
// preference used when deriving its serialized public key. The
// compression flag travels with the key through WIF round trips because
// it changes the derived addresses.
type PrivateKey struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// GeneratePrivateKey returns a new random private key with a compressed
// public key, the modern default.
func GeneratePrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", err)
	}
	return &PrivateKey{key: k, compressed: true}, nil
}

// PrivateKeyFromBytes builds a private key from a 32-byte big-endian
// scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != privKeyLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", privKeyLen, len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b), compressed: true}, nil
}

// PrivateKeyFromWIF decodes a wallet import format string, enforcing the
// network's WIF version byte. The trailing 0x01 compression marker, when
// present, is recorded on the key.
func PrivateKeyFromWIF(wif string, net Network) (*PrivateKey, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWIFDecode, err)
	}
	if version != net.WIFPrefix {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrWIFNetwork, version, net.WIFPrefix)
	}

	compressed := false
	switch len(payload) {
	case privKeyLen:
	case privKeyLen + 1:
		if payload[privKeyLen] != 0x01 {
			return nil, fmt.Errorf("%w: bad compression marker 0x%02x", ErrWIFDecode, payload[privKeyLen])
		}
		compressed = true
		payload = payload[:privKeyLen]
	default:
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrWIFDecode, len(payload))
	}

	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(payload), compressed: compressed}, nil
}

// ToWIF encodes the key in wallet import format for the given network.
func (p *PrivateKey) ToWIF(net Network) string {
	payload := p.key.Serialize()
	if p.compressed {
		payload = append(payload, 0x01)
	}
	return base58.CheckEncode(payload, net.WIFPrefix)
}

// Serialize returns the 32-byte big-endian scalar.
func (p *PrivateKey) Serialize() []byte {
	return p.key.Serialize()
}

// Compressed reports whether the key's public key serializes compressed.
func (p *PrivateKey) Compressed() bool {
	return p.compressed
}

// PubKey returns the corresponding public key.
func (p *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey(), compressed: p.compressed}
}

// SignECDSA produces a DER-encoded ECDSA signature over the 32-byte
// digest. The sighash type byte is not appended; that is the caller's
// job when building the unlocking data.
func (p *PrivateKey) SignECDSA(digest []byte) ([]byte, error) {
	if len(digest) != chainhash.HashSize {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", chainhash.HashSize, len(digest))
	}
	sig := secpecdsa.Sign(p.key, digest)
	return sig.Serialize(), nil
}

// SignSchnorr produces a 64-byte BIP 340 Schnorr signature over the
// 32-byte digest.
func (p *PrivateKey) SignSchnorr(digest []byte) ([]byte, error) {
	if len(digest) != chainhash.HashSize {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", chainhash.HashSize, len(digest))
	}
	sig, err := schnorr.Sign(p.key, digest)
	if err != nil {
		return nil, fmt.Errorf("schnorr signing: %w", err)
	}
	return sig.Serialize(), nil
}

// TweakTaproot returns the private key tweaked for a Taproot key-path
// spend with the given script tree root. An empty root commits to no
// script paths, the common key-only case.
//
// The scalar is negated first when the untweaked public key has an odd Y
// coordinate, so the result always corresponds to the x-only output key.
func (p *PrivateKey) TweakTaproot(scriptRoot []byte) *PrivateKey {
	scalar := p.key.Key
	if p.key.PubKey().SerializeCompressed()[0] == secp256k1.PubKeyFormatCompressedOdd {
		scalar.Negate()
	}

	tweak := chainhash.TaggedHash(chainhash.TagTapTweak, schnorr.SerializePubKey(p.key.PubKey()), scriptRoot)
	var tweakScalar btcec.ModNScalar
	tweakScalar.SetBytes((*[32]byte)(tweak))

	tweaked := btcec.PrivKeyFromScalar(scalar.Add(&tweakScalar))
	return &PrivateKey{key: tweaked, compressed: true}
}
