package network

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Reason categorizes why a broadcast failed. Nodes report rejections as
// free-form reject strings, so the mapping is necessarily heuristic, but
// the categories are stable enough to drive retry and user messaging.
type Reason int

const (
	// ReasonUnknown is any rejection that does not match a known category.
	ReasonUnknown Reason = iota

	// ReasonDuplicate means the transaction is already in the mempool or a
	// block. Callers should treat this as a successful broadcast.
	ReasonDuplicate

	// ReasonDoubleSpend means one or more inputs are missing or already
	// spent by a conflicting transaction.
	ReasonDoubleSpend

	// ReasonFeeTooLow means the transaction did not meet the node's relay
	// or mining fee requirements.
	ReasonFeeTooLow

	// ReasonScriptRejected means script validation failed.
	ReasonScriptRejected

	// ReasonConnectivity means the transaction never reached the node.
	ReasonConnectivity
)

// String returns a short human-readable name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonDuplicate:
		return "duplicate"
	case ReasonDoubleSpend:
		return "double-spend"
	case ReasonFeeTooLow:
		return "fee-too-low"
	case ReasonScriptRejected:
		return "script-rejected"
	case ReasonConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Reject code returned by nodes for transactions already mined into a block.
const rpcVerifyAlreadyInChain = -27

// Substring fragments of node reject messages, per category. Matched
// case-insensitively against the full error text.
var (
	duplicateFragments = []string{
		"txn-already-in-mempool",
		"txn-already-known",
		"already in the mempool",
		"already in block chain",
		"already known",
	}
	doubleSpendFragments = []string{
		"txn-mempool-conflict",
		"bad-txns-inputs-missingorspent",
		"missing inputs",
		"double spend",
	}
	feeFragments = []string{
		"min relay fee not met",
		"fee not met",
		"insufficient priority",
		"insufficient fee",
		"mempool min fee not met",
	}
	scriptFragments = []string{
		"mandatory-script-verify-flag",
		"non-mandatory-script-verify-flag",
		"scriptsig",
		"scriptpubkey",
		"script evaluated without error but finished with a false",
	}
)

// ClassifyBroadcastError maps a broadcast failure to a Reason. A nil error
// returns ReasonUnknown; callers should only classify actual failures.
func ClassifyBroadcastError(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}

	if errors.Is(err, ErrConnectionFailed) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonConnectivity
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonConnectivity
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == rpcVerifyAlreadyInChain {
		return ReasonDuplicate
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, duplicateFragments):
		return ReasonDuplicate
	case containsAny(msg, doubleSpendFragments):
		return ReasonDoubleSpend
	case containsAny(msg, feeFragments):
		return ReasonFeeTooLow
	case containsAny(msg, scriptFragments):
		return ReasonScriptRejected
	default:
		return ReasonUnknown
	}
}

func containsAny(msg string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
