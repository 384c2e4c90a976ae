package payreq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Payment is the BIP270 payment message delivered to the payee after the
// transaction is signed. Transaction carries the raw transaction hex.
type Payment struct {
	MerchantData string `json:"merchantData,omitempty"`
	Transaction  string `json:"transaction"`
	RefundTo     string `json:"refundTo,omitempty"`
	Memo         string `json:"memo,omitempty"`
}

// PaymentACK is the payee's response to a Payment. A non-zero Error means
// the payment was not accepted; Memo explains why.
type PaymentACK struct {
	Payment *Payment `json:"payment,omitempty"`
	Memo    string   `json:"memo,omitempty"`
	Error   int      `json:"error,omitempty"`
}

// Endpoint delivers a signed payment to the payee that issued the terms.
type Endpoint interface {
	// SendPayment submits the payment and returns the payee's ACK.
	SendPayment(ctx context.Context, pay *Payment) (*PaymentACK, error)
}

// HTTPEndpoint posts BIP270 payments to a payment URL.
type HTTPEndpoint struct {
	URL    string
	Client HTTPClient
}

var _ Endpoint = (*HTTPEndpoint)(nil)

// NewEndpoint creates an HTTPEndpoint for the payment URL of a fetched
// request, using the default HTTP client.
func NewEndpoint(paymentURL string) *HTTPEndpoint {
	return &HTTPEndpoint{URL: paymentURL, Client: DefaultHTTPClient}
}

// SendPayment posts the payment and decodes the ACK. A transport failure,
// a non-2xx status, or an ACK with a non-zero error code all surface as
// ErrPaymentRejected with the payee's memo where one was given.
func (e *HTTPEndpoint) SendPayment(ctx context.Context, pay *Payment) (*PaymentACK, error) {
	if pay == nil {
		return nil, fmt.Errorf("%w: payment", ErrNilParam)
	}
	if pay.Transaction == "" {
		return nil, fmt.Errorf("%w: payment has no transaction", ErrPaymentRejected)
	}

	body, err := json.Marshal(pay)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payment: %v", ErrPaymentRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentRejected, err)
	}
	req.Header.Set("Content-Type", mediaTypePayment)
	req.Header.Set("Accept", mediaTypeACK)
	req.Header.Set("User-Agent", userAgent)

	client := e.Client
	if client == nil {
		client = DefaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", ErrPaymentRejected, e.URL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading ACK: %v", ErrPaymentRejected, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: POST %s returned status %d: %s",
			ErrPaymentRejected, e.URL, resp.StatusCode, truncateMemo(respBody))
	}

	var ack PaymentACK
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return nil, fmt.Errorf("%w: parsing ACK: %v", ErrPaymentRejected, err)
	}

	if ack.Error != 0 {
		memo := ack.Memo
		if memo == "" {
			memo = "no memo"
		}
		return nil, fmt.Errorf("%w: payee error %d: %s", ErrPaymentRejected, ack.Error, memo)
	}

	return &ack, nil
}

// truncateMemo bounds a payee response body for inclusion in an error.
func truncateMemo(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
