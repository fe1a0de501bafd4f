package bip21

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("address only", func(t *testing.T) {
		req, err := Parse("bitcoin:1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2")
		require.NoError(t, err)
		assert.Equal(t, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", req.Address)
		assert.False(t, req.AmountSet)
	})

	t.Run("full request", func(t *testing.T) {
		req, err := Parse("bitcoin:bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq?amount=0.00100000&label=Coffee%20Shop&message=Thanks")
		require.NoError(t, err)
		assert.Equal(t, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", req.Address)
		assert.True(t, req.AmountSet)
		assert.Equal(t, int64(100_000), req.Amount)
		assert.Equal(t, "Coffee Shop", req.Label)
		assert.Equal(t, "Thanks", req.Message)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		req, err := Parse("BitCoin:1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2")
		require.NoError(t, err)
		assert.Equal(t, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", req.Address)
	})

	t.Run("unknown params preserved", func(t *testing.T) {
		req, err := Parse("bitcoin:addr?somethingyoudontunderstand=50")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"somethingyoudontunderstand": "50"}, req.Extra)
	})

	t.Run("required param rejected", func(t *testing.T) {
		_, err := Parse("bitcoin:addr?req-somethingyoudontunderstand=50")
		require.ErrorIs(t, err, ErrRequiredParam)
	})

	t.Run("missing address", func(t *testing.T) {
		_, err := Parse("bitcoin:?amount=1")
		require.ErrorIs(t, err, ErrMissingAddress)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := Parse("litecoin:addr")
		require.Error(t, err)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		sats int64
		ok   bool
	}{
		{"integer btc", "1", 100_000_000, true},
		{"fraction", "0.001", 100_000, true},
		{"single satoshi", "0.00000001", 1, true},
		{"leading dot", ".5", 50_000_000, true},
		{"large", "20999999.9769", 2_099_999_997_690_000, true},
		{"sub-satoshi", "0.000000001", 0, false},
		{"scientific", "1e3", 0, false},
		{"negative", "-1", 0, false},
		{"empty", "", 0, false},
		{"not a number", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sats, got)
		})
	}
}

func TestEncode(t *testing.T) {
	req := &PaymentRequest{
		Address:   "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		AmountSet: true,
		Amount:    100_000,
		Label:     "Coffee Shop",
	}

	uri, err := req.Encode()
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq?amount=0.001&label=Coffee+Shop", uri)

	t.Run("round trip", func(t *testing.T) {
		parsed, err := Parse(uri)
		require.NoError(t, err)
		assert.Equal(t, req, parsed)
	})

	t.Run("no address", func(t *testing.T) {
		_, err := (&PaymentRequest{}).Encode()
		require.ErrorIs(t, err, ErrMissingAddress)
	})

	t.Run("whole amount has no fraction", func(t *testing.T) {
		uri, err := (&PaymentRequest{Address: "addr", AmountSet: true, Amount: 200_000_000}).Encode()
		require.NoError(t, err)
		assert.Equal(t, "bitcoin:addr?amount=2", uri)
	})
}
