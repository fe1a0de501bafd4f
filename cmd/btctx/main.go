// btctx CLI - Bitcoin transaction toolkit
//
// This CLI demonstrates the btctx library's capabilities for building,
// signing, and inspecting Bitcoin transactions across the legacy,
// SegWit, and Taproot script eras.
//
// Example usage:
//
//	# Generate a key and show its addresses
//	btctx keygen
//
//	# Derive addresses for an existing key
//	btctx address <wif>
//
//	# Decode a raw transaction
//	btctx decode <hex>
//
//	# Parse a BIP 21 payment request
//	btctx parse-uri "bitcoin:bc1q...?amount=0.001&label=coffee"
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/suffix-labs/btctx/pkg/address"
	"github.com/suffix-labs/btctx/pkg/bip21"
	"github.com/suffix-labs/btctx/pkg/keys"
	"github.com/suffix-labs/btctx/pkg/tx"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "keygen":
		cmdKeygen()
	case "address":
		cmdAddress()
	case "decode":
		cmdDecode()
	case "parse-uri":
		cmdParseURI()
	case "version":
		cmdVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`btctx - Bitcoin transaction toolkit

Usage:
  btctx <command> [options]

Commands:
  keygen [--testnet]           Generate a private key and its addresses
  address <wif> [--testnet]    Derive addresses for a WIF private key
  decode <hex>                 Decode a raw transaction
  parse-uri <uri>              Parse a BIP 21 payment request URI
  version                      Show version information
  help                         Show this help message

Examples:
  # Generate a fresh key with mainnet addresses
  btctx keygen

  # Derive testnet addresses for an existing key
  btctx address cVt4o7BGAig1UXywgGSmARhxMdzP5qvQsxKkSsc1XEkw3tDTQFpy --testnet

  # Decode a raw transaction and show its identifiers
  btctx decode 0200000001...

  # Parse a payment request
  btctx parse-uri "bitcoin:bc1q...?amount=0.001&label=coffee"

For more information, see: https://github.com/suffix-labs/btctx`)
}

func cmdVersion() {
	fmt.Println("btctx v0.1.0")
	fmt.Println("Bitcoin transaction construction, signing, and serialization")
}

// pickNetwork scans trailing arguments for --testnet.
func pickNetwork(args []string) keys.Network {
	for _, a := range args {
		if a == "--testnet" {
			return keys.TestNet3
		}
	}
	return keys.MainNet
}

func cmdKeygen() {
	net := pickNetwork(os.Args[2:])

	priv, err := keys.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	printKey(priv, net)
}

func cmdAddress() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: WIF argument required")
		fmt.Fprintln(os.Stderr, "Usage: btctx address <wif> [--testnet]")
		os.Exit(1)
	}
	net := pickNetwork(os.Args[3:])

	priv, err := keys.PrivateKeyFromWIF(os.Args[2], net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode WIF: %v\n", err)
		os.Exit(1)
	}

	printKey(priv, net)
}

func printKey(priv *keys.PrivateKey, net keys.Network) {
	pub := priv.PubKey()

	fmt.Printf("Network:    %s\n", net.Name)
	fmt.Printf("WIF:        %s\n", priv.ToWIF(net))
	fmt.Printf("Public key: %x\n\n", pub.Serialize())

	show := func(label string, a *address.Address, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to derive %s address: %v\n", label, err)
			os.Exit(1)
		}
		encoded, err := a.Encode(net)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s address: %v\n", label, err)
			os.Exit(1)
		}
		fmt.Printf("%-8s %s\n", label+":", encoded)
	}

	show("p2pkh", address.NewP2PKH(pub), nil)
	show("p2wpkh", address.NewP2WPKH(pub), nil)
	show("p2tr", address.NewP2TR(pub), nil)
}

func cmdDecode() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: transaction hex argument required")
		fmt.Fprintln(os.Stderr, "Usage: btctx decode <hex>")
		os.Exit(1)
	}

	raw, err := hex.DecodeString(strings.TrimSpace(os.Args[2]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid hex: %v\n", err)
		os.Exit(1)
	}

	t, err := tx.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse transaction: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("txid:      %s\n", t.TxHash())
	fmt.Printf("wtxid:     %s\n", t.WitnessHash())
	fmt.Printf("version:   %d\n", t.Version)
	fmt.Printf("locktime:  %d\n", t.LockTime)
	fmt.Printf("size:      %d bytes\n", t.SerializeSize())
	fmt.Printf("weight:    %d\n", t.Weight())
	fmt.Printf("vsize:     %d vbytes\n\n", t.VSize())

	fmt.Printf("Inputs: %d\n", len(t.Inputs))
	for i, in := range t.Inputs {
		fmt.Printf("  %d: %s:%d sequence=0x%08x\n", i,
			in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index, in.Sequence)
		if len(in.SignatureScript) > 0 {
			fmt.Printf("     scriptSig: %x\n", in.SignatureScript)
		}
		if i < len(t.Witnesses) && len(t.Witnesses[i]) > 0 {
			for j, item := range t.Witnesses[i] {
				fmt.Printf("     witness[%d]: %x\n", j, item)
			}
		}
	}

	fmt.Printf("\nOutputs: %d\n", len(t.Outputs))
	for i, out := range t.Outputs {
		fmt.Printf("  %d: %d sat  script=%x", i, out.Value, out.PkScript)
		if a, err := address.FromScriptPubKey(out.PkScript); err == nil {
			if encoded, err := a.Encode(keys.MainNet); err == nil {
				fmt.Printf("  (%s %s)", a.Kind(), encoded)
			}
		}
		fmt.Println()
	}
}

func cmdParseURI() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: URI argument required")
		fmt.Fprintln(os.Stderr, "Usage: btctx parse-uri <uri>")
		os.Exit(1)
	}

	req, err := bip21.Parse(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse URI: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Payment Request:")
	fmt.Printf("  Address: %s\n", req.Address)
	if req.AmountSet {
		fmt.Printf("  Amount:  %d sat\n", req.Amount)
	} else {
		fmt.Println("  Amount:  (user specified)")
	}
	if req.Label != "" {
		fmt.Printf("  Label:   %s\n", req.Label)
	}
	if req.Message != "" {
		fmt.Printf("  Message: %s\n", req.Message)
	}
	for k, v := range req.Extra {
		fmt.Printf("  %s: %s\n", k, v)
	}

	encoded, err := req.Encode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to re-encode URI: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nRe-encoded URI:\n%s\n", encoded)
}
