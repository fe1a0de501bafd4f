// Package bip21 implements the BIP 21 payment URI format.
//
// BIP 21 defines the "bitcoin:" URI scheme for payment requests: a
// recipient address with optional amount, label, and message, shareable
// through QR codes and links.
//
// URI format:
//
//	bitcoin:<address>?amount=<btc>&label=<label>&message=<message>
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0021.mediawiki
package bip21

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const scheme = "bitcoin:"

// satoshisPerBTC converts between the URI's decimal BTC amounts and the
// integer satoshi amounts the transaction model uses.
const satoshisPerBTC = 100_000_000

var (
	// ErrMissingAddress is returned for a URI with no recipient address.
	ErrMissingAddress = errors.New("payment URI has no address")

	// ErrInvalidAmount is returned for an amount that is not a valid
	// non-negative decimal BTC value.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrRequiredParam is returned when the URI carries a req- prefixed
	// parameter this implementation does not understand. BIP 21 forbids
	// proceeding in that case.
	ErrRequiredParam = errors.New("unsupported required parameter")
)

// PaymentRequest is a parsed BIP 21 payment URI.
type PaymentRequest struct {
	// Address is the recipient address, syntax-unchecked: address
	// validation needs a network, which the URI does not carry.
	Address string

	// AmountSet distinguishes a zero amount from an absent one.
	AmountSet bool

	// Amount is the requested value in satoshis.
	Amount int64

	// Label names the recipient.
	Label string

	// Message is a free-form note describing the payment.
	Message string

	// Extra holds unrecognized non-required parameters, preserved for
	// round-tripping.
	Extra map[string]string
}

// Parse decodes a BIP 21 payment URI. The scheme prefix is matched
// case-insensitively, as URI schemes are.
func Parse(uri string) (*PaymentRequest, error) {
	if len(uri) < len(scheme) || !strings.EqualFold(uri[:len(scheme)], scheme) {
		return nil, fmt.Errorf("URI does not start with %q", scheme)
	}
	rest := uri[len(scheme):]

	addr := rest
	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		addr, query = rest[:i], rest[i+1:]
	}
	if addr == "" {
		return nil, ErrMissingAddress
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}

	req := &PaymentRequest{Address: addr}
	for key, values := range params {
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		switch strings.ToLower(key) {
		case "amount":
			sats, err := parseAmount(value)
			if err != nil {
				return nil, err
			}
			req.Amount = sats
			req.AmountSet = true
		case "label":
			req.Label = value
		case "message":
			req.Message = value
		default:
			if strings.HasPrefix(strings.ToLower(key), "req-") {
				return nil, fmt.Errorf("%w: %s", ErrRequiredParam, key)
			}
			if req.Extra == nil {
				req.Extra = make(map[string]string)
			}
			req.Extra[key] = value
		}
	}
	return req, nil
}

// Encode renders the request as a BIP 21 URI. Parameters appear in a
// fixed order (amount, label, message, then extras sorted by key) so
// encoding is deterministic.
func (r *PaymentRequest) Encode() (string, error) {
	if r.Address == "" {
		return "", ErrMissingAddress
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString(r.Address)

	var params []string
	if r.AmountSet {
		if r.Amount < 0 {
			return "", fmt.Errorf("%w: %d satoshis", ErrInvalidAmount, r.Amount)
		}
		params = append(params, "amount="+formatAmount(r.Amount))
	}
	if r.Label != "" {
		params = append(params, "label="+url.QueryEscape(r.Label))
	}
	if r.Message != "" {
		params = append(params, "message="+url.QueryEscape(r.Message))
	}

	extraKeys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		params = append(params, url.QueryEscape(k)+"="+url.QueryEscape(r.Extra[k]))
	}

	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String(), nil
}

// parseAmount converts a decimal BTC string to satoshis. The format
// allows at most eight fractional digits; scientific notation and
// negative values are rejected.
func parseAmount(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, "eE+-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("%w: %q has sub-satoshi precision", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	// Right-pad the fraction to eight digits so the two parts combine as
	// integers.
	frac += strings.Repeat("0", 8-len(frac))

	wholeInt, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	fracInt, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if wholeInt > math.MaxInt64/satoshisPerBTC {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return int64(wholeInt)*satoshisPerBTC + int64(fracInt), nil
}

// formatAmount renders satoshis as the shortest decimal BTC string.
func formatAmount(sats int64) string {
	whole := sats / satoshisPerBTC
	frac := sats % satoshisPerBTC
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	s := fmt.Sprintf("%d.%08d", whole, frac)
	return strings.TrimRight(s, "0")
}
