package spend

import (
	"sync"

	"github.com/cobaltwallet/libcobalt-go/network"
	"github.com/cobaltwallet/libcobalt-go/payreq"
	"github.com/cobaltwallet/libcobalt-go/tx"
)

// DraftState tracks where a draft transaction is in the send pipeline.
//
// The lifecycle is Draft -> Previewed? -> Signed -> Broadcasting -> Sent or
// Failed. Preview round-trips back to Draft freely; everything after signing
// moves forward only.
type DraftState int

const (
	// StateDraft is an editable, unsigned draft.
	StateDraft DraftState = iota

	// StatePreviewed is a draft held open for inspection before signing.
	StatePreviewed

	// StateSigned is a fully signed transaction awaiting broadcast.
	StateSigned

	// StateBroadcasting is a transaction submitted to a worker for delivery.
	StateBroadcasting

	// StateSent is a transaction accepted by the network or the payee.
	StateSent

	// StateFailed is a transaction whose delivery failed. The draft keeps
	// the classified reason.
	StateFailed
)

// String renders the state for logs.
func (s DraftState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StatePreviewed:
		return "previewed"
	case StateSigned:
		return "signed"
	case StateBroadcasting:
		return "broadcasting"
	case StateSent:
		return "sent"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Draft is one in-progress send, looked up by id in its session's registry.
// All methods are safe for concurrent use; the signing flag serializes
// signing tasks because signing mutates the transaction's input scripts in
// place.
type Draft struct {
	mu sync.Mutex

	id      uint64
	state   DraftState
	signing bool
	child   bool // CPFP child; built once, never rebuilt

	// Build inputs, retained so the draft can be rebuilt after an edit.
	outputs     []*tx.XTxOutput
	pinned      []*tx.UTXO
	invoiceMode bool
	policy      tx.FeePolicy
	description string
	request     *payreq.PaymentRequest
	invoiceID   string

	// Build outputs.
	payment *tx.Payment
	coins   []*tx.UTXO

	// Signing outputs.
	rawHex  string
	txID    []byte
	txIDHex string

	// Failure record.
	reason  network.Reason
	lastErr error
}

// ID returns the draft's registry id.
func (d *Draft) ID() uint64 { return d.id }

// State returns the draft's current lifecycle state.
func (d *Draft) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Payment returns the built unsigned payment, or nil before the first build.
func (d *Draft) Payment() *tx.Payment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.payment
}

// RawHex returns the signed raw transaction hex, or "" before signing.
func (d *Draft) RawHex() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rawHex
}

// TxID returns a copy of the transaction id in internal byte order, or nil
// before signing.
func (d *Draft) TxID() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.txID...)
}

// TxIDHex returns the transaction id in display hex, or "" before signing.
func (d *Draft) TxIDHex() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txIDHex
}

// Description returns the label recorded against the transaction after a
// successful broadcast.
func (d *Draft) Description() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.description
}

// SetDescription replaces the draft's label.
func (d *Draft) SetDescription(desc string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.description = desc
}

// Request returns the attached payment request, or nil.
func (d *Draft) Request() *payreq.PaymentRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.request
}

// InvoiceID returns the invoice record tied to the attached request, or "".
func (d *Draft) InvoiceID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invoiceID
}

// Reason returns the classified failure reason, ReasonUnknown when the
// draft has not failed or the failure had no network classification.
func (d *Draft) Reason() network.Reason {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reason
}

// Err returns the last error recorded against the draft.
func (d *Draft) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// FailureReason returns a human-readable reason for the last failure, or "".
func (d *Draft) FailureReason() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reason != network.ReasonUnknown {
		return d.reason.String()
	}
	if d.lastErr != nil {
		return d.lastErr.Error()
	}
	return ""
}

// FeePolicy returns a copy of the draft's fee policy.
func (d *Draft) FeePolicy() tx.FeePolicy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.policy
}

// PinFee pins the draft's total fee to a manual value. The pin survives
// rebuilds until ResetFee. Only an editable draft may change its fee.
func (d *Draft) PinFee(fee uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDraft {
		return ErrDraftState
	}
	d.policy.PinFee(fee)
	return nil
}

// ResetFee clears a pinned fee; subsequent rebuilds recompute from the rate.
func (d *Draft) ResetFee() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDraft {
		return ErrDraftState
	}
	d.policy.Reset()
	return nil
}

// Preview moves an editable draft into the previewed state.
func (d *Draft) Preview() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDraft {
		return ErrDraftState
	}
	d.state = StatePreviewed
	return nil
}

// CancelPreview returns a previewed draft to the editable state.
func (d *Draft) CancelPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StatePreviewed {
		return ErrDraftState
	}
	d.state = StateDraft
	return nil
}

// applyBuild installs a fresh build result on an editable draft. A draft
// with a signing task in flight may not be rebuilt; signing mutates the
// current transaction in place.
func (d *Draft) applyBuild(payment *tx.Payment, coins []*tx.UTXO) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDraft {
		return ErrDraftState
	}
	if d.signing {
		return ErrSignInFlight
	}
	d.payment = payment
	d.coins = coins
	return nil
}

// beginSign claims the draft for one signing task. A draft may be signed
// from the editable or previewed state, and only one signing task may be in
// flight at a time.
func (d *Draft) beginSign() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDraft && d.state != StatePreviewed {
		return ErrDraftState
	}
	if d.payment == nil {
		return ErrDraftState
	}
	if d.signing {
		return ErrSignInFlight
	}
	d.signing = true
	return nil
}

// finishSign releases the signing claim. On success the draft moves to
// Signed and records the raw hex and transaction id; on failure it stays
// where it was so the caller can correct and retry.
func (d *Draft) finishSign(rawHex string, txID []byte, txIDHex string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.signing = false
	if err != nil {
		d.lastErr = err
		return
	}
	d.state = StateSigned
	d.rawHex = rawHex
	d.txID = append([]byte(nil), txID...)
	d.txIDHex = txIDHex
	d.lastErr = nil
}

// beginBroadcast moves a signed draft into the broadcasting state.
func (d *Draft) beginBroadcast() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateSigned {
		return ErrDraftState
	}
	d.state = StateBroadcasting
	return nil
}

// rollbackBroadcast returns a draft to the signed state when its broadcast
// task could not be queued. Nothing was sent.
func (d *Draft) rollbackBroadcast() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateBroadcasting {
		d.state = StateSigned
	}
}

// finishBroadcast records the terminal outcome of a broadcast.
func (d *Draft) finishBroadcast(reason network.Reason, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.state = StateFailed
		d.reason = reason
		d.lastErr = err
		return
	}
	d.state = StateSent
	d.reason = network.ReasonUnknown
	d.lastErr = nil
}

// clearRequest detaches the payment request once it has expired. Falling
// back to a plain network send is the caller's decision, on a new draft.
func (d *Draft) clearRequest() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.request = nil
	d.invoiceID = ""
}

// buildCoins returns the coins feeding the draft's current build.
func (d *Draft) buildCoins() []*tx.UTXO {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.coins
}

// buildInputs snapshots the knobs a rebuild runs from.
func (d *Draft) buildInputs() ([]*tx.XTxOutput, []*tx.UTXO, bool, tx.FeePolicy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputs, d.pinned, d.invoiceMode, d.policy
}

// IsChild reports whether the draft is a CPFP fee bump.
func (d *Draft) IsChild() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.child
}
