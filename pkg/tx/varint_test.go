package tx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactSizeEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		bytes []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"single byte max", 252, []byte{0xfc}},
		{"first two byte", 253, []byte{0xfd, 0xfd, 0x00}},
		{"two byte max", 65535, []byte{0xfd, 0xff, 0xff}},
		{"first four byte", 65536, []byte{0xfe, 0x00, 0x00, 0x01, 0x00}},
		{"four byte max", 0xffffffff, []byte{0xfe, 0xff, 0xff, 0xff, 0xff}},
		{"first eight byte", 0x100000000, []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}},
		{"eight byte max", 0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCompactSize(&buf, tt.value))
			assert.Equal(t, tt.bytes, buf.Bytes())
			assert.Equal(t, len(tt.bytes), CompactSizeLen(tt.value))

			got, err := ReadCompactSize(bytes.NewReader(tt.bytes))
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestReadCompactSizeTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"two byte prefix only", []byte{0xfd}},
		{"two byte partial", []byte{0xfd, 0x01}},
		{"four byte partial", []byte{0xfe, 0x01, 0x02}},
		{"eight byte partial", []byte{0xff, 0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCompactSize(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, ErrTruncatedInput)
		})
	}
}
