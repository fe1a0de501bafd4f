package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PublicKey is a secp256k1 public key with its serialization preference.
type PublicKey struct {
	key        *secp256k1.PublicKey
	compressed bool
}

// ParsePublicKey decodes a 33-byte compressed or 65-byte uncompressed
// SEC public key.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return &PublicKey{key: k, compressed: len(b) == 33}, nil
}

// Serialize returns the key in its preferred SEC encoding.
func (p *PublicKey) Serialize() []byte {
	if p.compressed {
		return p.key.SerializeCompressed()
	}
	return p.key.SerializeUncompressed()
}

// SerializeCompressed returns the 33-byte compressed SEC encoding.
func (p *PublicKey) SerializeCompressed() []byte {
	return p.key.SerializeCompressed()
}

// SerializeUncompressed returns the 65-byte uncompressed SEC encoding.
func (p *PublicKey) SerializeUncompressed() []byte {
	return p.key.SerializeUncompressed()
}

// XOnly returns the 32-byte x-only encoding used by BIP 340.
func (p *PublicKey) XOnly() []byte {
	return schnorr.SerializePubKey(p.key)
}

// Hash160 returns ripemd160(sha256()) of the preferred SEC encoding,
// the payload of P2PKH and P2WPKH programs.
func (p *PublicKey) Hash160() []byte {
	return btcutil.Hash160(p.Serialize())
}

// TaprootOutputKey returns the x-only output key for a key-path-only
// Taproot output: the key tweaked with an empty script root.
func (p *PublicKey) TaprootOutputKey() []byte {
	return schnorr.SerializePubKey(ComputeTaprootOutputKey(p.key, nil))
}

// ComputeTaprootOutputKey applies the BIP 341 tweak to an internal key:
// the x-only internal key plus tagged-hash("TapTweak", key || root)
// times the generator.
func ComputeTaprootOutputKey(pub *secp256k1.PublicKey, scriptRoot []byte) *secp256k1.PublicKey {
	// Work from the x-only form so an odd-Y internal key lands on the
	// same output key as its even-Y mirror.
	xonly, err := schnorr.ParsePubKey(schnorr.SerializePubKey(pub))
	if err != nil {
		// SerializePubKey output always reparses.
		panic(err)
	}

	tweak := chainhash.TaggedHash(chainhash.TagTapTweak, schnorr.SerializePubKey(xonly), scriptRoot)
	var tweakScalar btcec.ModNScalar
	tweakScalar.SetBytes((*[32]byte)(tweak))

	var internal, tweakPoint, result btcec.JacobianPoint
	xonly.AsJacobian(&internal)
	btcec.ScalarBaseMultNonConst(&tweakScalar, &tweakPoint)
	btcec.AddNonConst(&internal, &tweakPoint, &result)
	result.ToAffine()

	return btcec.NewPublicKey(&result.X, &result.Y)
}

// VerifyECDSA checks a DER-encoded ECDSA signature over the digest.
func VerifyECDSA(pub *PublicKey, digest, sig []byte) bool {
	parsed, err := secpecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pub.key)
}

// VerifySchnorr checks a 64-byte BIP 340 signature over the digest
// against the key's x-only form.
func VerifySchnorr(pub *PublicKey, digest, sig []byte) bool {
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	xonly, err := schnorr.ParsePubKey(schnorr.SerializePubKey(pub.key))
	if err != nil {
		return false
	}
	return parsed.Verify(digest, xonly)
}
