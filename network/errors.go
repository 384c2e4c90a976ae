package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not connect to the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates authentication (e.g., RPC credentials) was rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the requested transaction does not exist.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrBroadcastTimeout indicates a broadcast transaction was not observed
	// in the node's mempool before the wait deadline.
	ErrBroadcastTimeout = errors.New("network: broadcast not confirmed before deadline")

	// ErrBroadcastMismatch indicates the node reported a different txid than
	// the one computed locally for the broadcast transaction.
	ErrBroadcastMismatch = errors.New("network: broadcast returned unexpected txid")

	// ErrInvalidRawTx indicates a raw transaction could not be parsed.
	ErrInvalidRawTx = errors.New("network: invalid raw transaction")
)
