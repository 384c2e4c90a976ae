package payreq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// BIP270 media types and the client identification sent to payee servers.
const (
	mediaTypeRequest = "application/bitcoinsv-paymentrequest"
	mediaTypePayment = "application/bitcoinsv-payment"
	mediaTypeACK     = "application/bitcoinsv-paymentack"

	userAgent = "Cobalt"
)

// maxResponseBytes bounds payee response bodies.
const maxResponseBytes = 1 << 20

// HTTPClient defines the interface for HTTP requests.
// This allows tests to mock HTTP calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient is the production HTTP client.
var DefaultHTTPClient HTTPClient = http.DefaultClient

// FetchRequest retrieves hosted BIP270 payment terms from url.
func FetchRequest(ctx context.Context, url string) (*PaymentRequest, error) {
	return FetchRequestWithClient(ctx, url, DefaultHTTPClient)
}

// FetchRequestWithClient retrieves payment terms using the provided HTTP
// client. The terms are validated structurally; an expired request is
// still returned so the caller can report the expiry against its own
// clock at broadcast time.
func FetchRequestWithClient(ctx context.Context, url string, client HTTPClient) (*PaymentRequest, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrFetchFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", mediaTypeRequest)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrFetchFailed, err)
	}

	var pr PaymentRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON: %v", ErrFetchFailed, err)
	}

	if err := pr.Validate(); err != nil {
		return nil, err
	}

	return &pr, nil
}

// FetchFromURI parses a bitcoin: URI and fetches the hosted payment terms
// it points at. The URI must carry an r parameter.
func FetchFromURI(ctx context.Context, uri string) (*PaymentRequest, error) {
	return FetchFromURIWithClient(ctx, uri, DefaultHTTPClient)
}

// FetchFromURIWithClient is FetchFromURI with an injected HTTP client.
func FetchFromURIWithClient(ctx context.Context, uri string, client HTTPClient) (*PaymentRequest, error) {
	parsed, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if parsed.RequestURL == "" {
		return nil, fmt.Errorf("%w: URI has no payment request URL", ErrInvalidURI)
	}
	return FetchRequestWithClient(ctx, parsed.RequestURL, client)
}
