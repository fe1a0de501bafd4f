package tx

import (
	"encoding/binary"
	"errors"
	"io"
)

// WriteCompactSize writes a Bitcoin-style variable-length integer.
//
// Encoding:
//   - n < 0xfd: single byte
//   - n <= 0xffff: 0xfd followed by 2-byte little-endian value
//   - n <= 0xffffffff: 0xfe followed by 4-byte little-endian value
//   - otherwise: 0xff followed by 8-byte little-endian value
func WriteCompactSize(w io.Writer, n uint64) error {
	switch {
	case n < 0xfd:
		_, err := w.Write([]byte{byte(n)})
		return err
	case n <= 0xffff:
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint32(n))
	default:
		if _, err := w.Write([]byte{0xff}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, n)
	}
}

// ReadCompactSize reads a Bitcoin-style variable-length integer.
//
// Returns ErrTruncatedInput (wrapped) if the reader ends before the width
// indicated by the prefix byte has been consumed.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, mapTruncated(err)
	}

	switch first[0] {
	case 0xfd:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, mapTruncated(err)
		}
		return uint64(v), nil
	case 0xfe:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, mapTruncated(err)
		}
		return uint64(v), nil
	case 0xff:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, mapTruncated(err)
		}
		return v, nil
	default:
		return uint64(first[0]), nil
	}
}

// CompactSizeLen returns the serialized length of n as a compact size.
func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// mapTruncated converts the io package's end-of-stream errors into
// ErrTruncatedInput so callers have a single sentinel to match.
func mapTruncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedInput
	}
	return err
}
