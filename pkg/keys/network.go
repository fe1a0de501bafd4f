// Package keys implements secp256k1 key handling for Bitcoin: key
// generation, WIF import and export, ECDSA and Schnorr signing, and the
// Taproot output-key tweak.
package keys

// Network carries the address and key version bytes that distinguish
// Bitcoin networks. Keys and scripts are network-agnostic; only their
// encoded presentation differs.
type Network struct {
	Name string

	// PubKeyHashPrefix is the Base58Check version byte for P2PKH addresses.
	PubKeyHashPrefix byte

	// ScriptHashPrefix is the Base58Check version byte for P2SH addresses.
	ScriptHashPrefix byte

	// WIFPrefix is the Base58Check version byte for private key export.
	WIFPrefix byte

	// Bech32HRP is the human-readable part for segwit addresses.
	Bech32HRP string
}

var (
	// MainNet is the production Bitcoin network.
	MainNet = Network{
		Name:             "mainnet",
		PubKeyHashPrefix: 0x00,
		ScriptHashPrefix: 0x05,
		WIFPrefix:        0x80,
		Bech32HRP:        "bc",
	}

	// TestNet3 is the public test network.
	TestNet3 = Network{
		Name:             "testnet3",
		PubKeyHashPrefix: 0x6f,
		ScriptHashPrefix: 0xc4,
		WIFPrefix:        0xef,
		Bech32HRP:        "tb",
	}
)
