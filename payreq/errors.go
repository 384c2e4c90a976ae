package payreq

import "errors"

var (
	// ErrInvalidURI indicates the URI does not match the bitcoin: scheme or is malformed.
	ErrInvalidURI = errors.New("payreq: invalid bitcoin: URI")

	// ErrInvalidRequest indicates the payment terms are structurally invalid.
	ErrInvalidRequest = errors.New("payreq: invalid payment request")

	// ErrRequestExpired indicates the payment request has passed its expiration time.
	ErrRequestExpired = errors.New("payreq: payment request expired")

	// ErrFetchFailed indicates the hosted payment request could not be retrieved.
	ErrFetchFailed = errors.New("payreq: request fetch failed")

	// ErrPaymentRejected indicates the payee refused the submitted payment.
	ErrPaymentRejected = errors.New("payreq: payment rejected")

	// ErrDNSLookupFailed indicates a DNS SRV lookup failed.
	ErrDNSLookupFailed = errors.New("payreq: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the resolver response was not DNSSEC-authenticated.
	ErrDNSSECValidationFailed = errors.New("payreq: DNSSEC validation failed")

	// ErrNoEndpoints indicates no SRV records were found for the domain.
	ErrNoEndpoints = errors.New("payreq: no endpoints found")

	// ErrInvoiceNotFound indicates the requested invoice does not exist in the store.
	ErrInvoiceNotFound = errors.New("payreq: invoice not found")

	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("payreq: nil parameter")
)
