package tx

import "errors"

var (
	// ErrTruncatedInput is returned when the buffer ends before a length
	// field's worth of bytes could be read. Fatal to the current parse.
	ErrTruncatedInput = errors.New("transaction data truncated")

	// ErrInvalidSegwitFlag is returned when the segwit marker byte 0x00 is
	// present but the following flag byte is not 0x01.
	ErrInvalidSegwitFlag = errors.New("segwit marker present but flag byte is not 0x01")

	// ErrWitnessIndex is returned when a witness stack is attached at an
	// index with no corresponding input.
	ErrWitnessIndex = errors.New("witness index out of range")
)
