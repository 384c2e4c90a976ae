// Package payreq implements BIP270 payment requests for Cobalt.
//
// It parses bitcoin: payment URIs, fetches hosted payment terms from a
// payee server, submits the signed transaction back as a BIP270 Payment,
// and records the resulting invoices in a persistent store. Payee hosts
// can be discovered through DNSSEC-validated SRV records.
package payreq

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// satoshisPerCoin is the satoshi value of one BSV.
const satoshisPerCoin = 1e8

// PaymentURI holds a parsed bitcoin: URI.
//
// When RequestURL is set the URI points at hosted payment terms and the
// other fields are advisory only: the fetched request dictates the actual
// outputs and amounts.
type PaymentURI struct {
	Address    string // destination address (may be empty for hosted requests)
	Amount     uint64 // requested amount in satoshis
	HasAmount  bool   // whether the URI carried an amount parameter
	Label      string // short recipient label
	Message    string // payment description
	RequestURL string // hosted payment terms URL from the r parameter
	RawURI     string // original URI string
}

// ParseURI parses a bitcoin: payment URI into its components.
//
// The amount parameter is a decimal coin value ("0.001" is 100000
// satoshis). Unknown parameters are ignored, except req-* parameters
// which make the URI invalid when unrecognized. A URI with neither an
// address nor an r parameter is invalid.
func ParseURI(uri string) (*PaymentURI, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	const scheme = "bitcoin:"
	if !strings.HasPrefix(strings.ToLower(uri), scheme) {
		return nil, fmt.Errorf("%w: scheme must be bitcoin:", ErrInvalidURI)
	}

	rest := uri[len(scheme):]
	// Some producers write bitcoin://address; tolerate the empty authority.
	rest = strings.TrimPrefix(rest, "//")

	address := rest
	query := ""
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		address = rest[:idx]
		query = rest[idx+1:]
	}

	result := &PaymentURI{
		Address: address,
		RawURI:  uri,
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, rawValue, _ := strings.Cut(pair, "=")
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s: %v", ErrInvalidURI, key, err)
		}

		switch key {
		case "amount":
			sats, err := decimalToSatoshis(value)
			if err != nil {
				return nil, fmt.Errorf("%w: amount %q: %v", ErrInvalidURI, value, err)
			}
			result.Amount = sats
			result.HasAmount = true
		case "label":
			result.Label = value
		case "message":
			result.Message = value
		case "r":
			if value == "" {
				return nil, fmt.Errorf("%w: empty r parameter", ErrInvalidURI)
			}
			result.RequestURL = value
		default:
			// Unhandled required parameters invalidate the URI (BIP21).
			if strings.HasPrefix(key, "req-") {
				return nil, fmt.Errorf("%w: unsupported required parameter %q", ErrInvalidURI, key)
			}
		}
	}

	if result.Address == "" && result.RequestURL == "" {
		return nil, fmt.Errorf("%w: no address or payment request URL", ErrInvalidURI)
	}

	return result, nil
}

// decimalToSatoshis converts a decimal coin amount string to satoshis
// without going through floating point.
func decimalToSatoshis(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 8 {
		return 0, fmt.Errorf("more than 8 decimal places")
	}

	coins, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer part")
	}

	var frac uint64
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", 8-len(fracPart))
		frac, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part")
		}
	}

	const maxCoins = ^uint64(0) / satoshisPerCoin
	if coins > maxCoins {
		return 0, fmt.Errorf("amount overflows")
	}
	total := coins * satoshisPerCoin
	if total+frac < total {
		return 0, fmt.Errorf("amount overflows")
	}
	return total + frac, nil
}
