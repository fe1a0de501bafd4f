package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Segwit serialization marker and flag bytes (BIP 144). The marker
// occupies the position where a legacy parser expects the input count; a
// zero there is impossible in a valid legacy transaction, which is what
// makes the format detectable.
const (
	segwitMarker byte = 0x00
	segwitFlag   byte = 0x01
)

// Serialize writes the full transaction encoding, including the witness
// segment when the transaction is witness-carrying.
func (t *Transaction) Serialize(w io.Writer) error {
	return t.serialize(w, true)
}

// SerializeNoWitness writes the transaction without marker, flag, or
// witness stacks. This is the encoding the txid commits to.
func (t *Transaction) SerializeNoWitness(w io.Writer) error {
	return t.serialize(w, false)
}

// Bytes returns the full serialization as a byte slice.
func (t *Transaction) Bytes() []byte {
	return t.serializeToBytes(true)
}

// BytesNoWitness returns the serialization without witness data.
func (t *Transaction) BytesNoWitness() []byte {
	return t.serializeToBytes(false)
}

func (t *Transaction) serializeToBytes(withWitness bool) []byte {
	var buf bytes.Buffer
	// Writing to a bytes.Buffer cannot fail.
	_ = t.serialize(&buf, withWitness)
	return buf.Bytes()
}

func (t *Transaction) serialize(w io.Writer, withWitness bool) error {
	if err := binary.Write(w, binary.LittleEndian, t.Version); err != nil {
		return err
	}

	hasWitness := withWitness && t.HasWitness()
	if hasWitness {
		if _, err := w.Write([]byte{segwitMarker, segwitFlag}); err != nil {
			return err
		}
	}

	if err := WriteCompactSize(w, uint64(len(t.Inputs))); err != nil {
		return err
	}
	for i := range t.Inputs {
		if err := writeTxInput(w, &t.Inputs[i]); err != nil {
			return fmt.Errorf("serializing input %d: %w", i, err)
		}
	}

	if err := WriteCompactSize(w, uint64(len(t.Outputs))); err != nil {
		return err
	}
	for i := range t.Outputs {
		if err := writeTxOutput(w, &t.Outputs[i]); err != nil {
			return fmt.Errorf("serializing output %d: %w", i, err)
		}
	}

	if hasWitness {
		// One stack per input, even when empty. The witness list is kept
		// index-aligned, but tolerate a short slice by emitting empty
		// stacks for the remainder.
		for i := range t.Inputs {
			var stack Witness
			if i < len(t.Witnesses) {
				stack = t.Witnesses[i]
			}
			if err := writeWitness(w, stack); err != nil {
				return fmt.Errorf("serializing witness %d: %w", i, err)
			}
		}
	}

	return binary.Write(w, binary.LittleEndian, t.LockTime)
}

func writeTxInput(w io.Writer, in *TxInput) error {
	if _, err := w.Write(in.PreviousOutPoint.Hash[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, in.PreviousOutPoint.Index); err != nil {
		return err
	}
	if err := WriteCompactSize(w, uint64(len(in.SignatureScript))); err != nil {
		return err
	}
	if _, err := w.Write(in.SignatureScript); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, in.Sequence)
}

func writeTxOutput(w io.Writer, out *TxOutput) error {
	if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
		return err
	}
	if err := WriteCompactSize(w, uint64(len(out.PkScript))); err != nil {
		return err
	}
	_, err := w.Write(out.PkScript)
	return err
}

func writeWitness(w io.Writer, stack Witness) error {
	if err := WriteCompactSize(w, uint64(len(stack))); err != nil {
		return err
	}
	for _, item := range stack {
		if err := WriteCompactSize(w, uint64(len(item))); err != nil {
			return err
		}
		if _, err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes a transaction from raw bytes.
//
// Returns ErrTruncatedInput (wrapped) when a length field claims more
// bytes than remain, and ErrInvalidSegwitFlag when the marker byte is
// present but the flag byte is not 0x01.
func Parse(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	t, err := Deserialize(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction", r.Len())
	}
	return t, nil
}

// Deserialize decodes a transaction from r.
func Deserialize(r io.Reader) (*Transaction, error) {
	t := &Transaction{}

	if err := binary.Read(r, binary.LittleEndian, &t.Version); err != nil {
		return nil, fmt.Errorf("reading version: %w", mapTruncated(err))
	}

	// Witness detection: the byte in the input-count position is 0x00 only
	// for a witness-carrying transaction (a legacy transaction cannot have
	// zero inputs). Consume it as the marker and require the 0x01 flag.
	inputCount, err := ReadCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("reading input count: %w", err)
	}
	if inputCount == 0 {
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, fmt.Errorf("reading segwit flag: %w", mapTruncated(err))
		}
		if flag[0] != segwitFlag {
			return nil, fmt.Errorf("%w: got 0x%02x", ErrInvalidSegwitFlag, flag[0])
		}
		t.segwit = true

		inputCount, err = ReadCompactSize(r)
		if err != nil {
			return nil, fmt.Errorf("reading input count: %w", err)
		}
	}

	t.Inputs = make([]TxInput, inputCount)
	for i := range t.Inputs {
		if err := readTxInput(r, &t.Inputs[i]); err != nil {
			return nil, fmt.Errorf("parsing input %d: %w", i, err)
		}
	}

	outputCount, err := ReadCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("reading output count: %w", err)
	}
	t.Outputs = make([]TxOutput, outputCount)
	for i := range t.Outputs {
		if err := readTxOutput(r, &t.Outputs[i]); err != nil {
			return nil, fmt.Errorf("parsing output %d: %w", i, err)
		}
	}

	if t.segwit {
		t.Witnesses = make([]Witness, inputCount)
		for i := range t.Witnesses {
			stack, err := readWitness(r)
			if err != nil {
				return nil, fmt.Errorf("parsing witness %d: %w", i, err)
			}
			t.Witnesses[i] = stack
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock time: %w", mapTruncated(err))
	}

	return t, nil
}

func readTxInput(r io.Reader, in *TxInput) error {
	if _, err := io.ReadFull(r, in.PreviousOutPoint.Hash[:]); err != nil {
		return fmt.Errorf("reading prevout txid: %w", mapTruncated(err))
	}
	if err := binary.Read(r, binary.LittleEndian, &in.PreviousOutPoint.Index); err != nil {
		return fmt.Errorf("reading prevout index: %w", mapTruncated(err))
	}

	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading signature script: %w", err)
	}
	in.SignatureScript = script

	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return fmt.Errorf("reading sequence: %w", mapTruncated(err))
	}
	return nil
}

func readTxOutput(r io.Reader, out *TxOutput) error {
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return fmt.Errorf("reading value: %w", mapTruncated(err))
	}
	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading pk script: %w", err)
	}
	out.PkScript = script
	return nil
}

func readWitness(r io.Reader) (Witness, error) {
	itemCount, err := ReadCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("reading item count: %w", err)
	}
	if itemCount == 0 {
		return nil, nil
	}
	stack := make(Witness, itemCount)
	for i := range stack {
		item, err := readVarBytes(r)
		if err != nil {
			return nil, fmt.Errorf("reading item %d: %w", i, err)
		}
		if item == nil {
			item = []byte{}
		}
		stack[i] = item
	}
	return stack, nil
}

// readVarBytes reads a compact-size length followed by that many bytes.
// A zero length yields nil, matching the convention that an absent script
// is nil rather than an empty slice.
func readVarBytes(r io.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > maxScriptAllocation {
		return nil, fmt.Errorf("%w: length field claims %d bytes", ErrTruncatedInput, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, mapTruncated(err)
	}
	return b, nil
}

// maxScriptAllocation bounds a single length-prefixed field. Anything
// larger than a block cannot be a legitimate script or witness item, and
// refusing it keeps a corrupt length field from driving a huge
// allocation before ReadFull fails.
const maxScriptAllocation = 4_000_000

// DoubleSha256 returns the double SHA-256 of b. Exposed for callers that
// need the raw digest rather than a chainhash.Hash.
func DoubleSha256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}
