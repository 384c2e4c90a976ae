package spend

import (
	"fmt"

	"github.com/cobaltwallet/libcobalt-go/payreq"
	"github.com/cobaltwallet/libcobalt-go/tx"
)

// BuildRequest describes one payment to prepare.
type BuildRequest struct {
	// Outputs are the declared payment outputs. May be empty when Request
	// is set; the request's outputs are used instead.
	Outputs []*tx.XTxOutput

	// Pinned restricts the build to explicitly chosen coins, bypassing
	// every selection filter.
	Pinned []*tx.UTXO

	// InvoiceMode applies the stricter coin eligibility used for paying
	// external invoices. Implied when Request is set.
	InvoiceMode bool

	// FeePolicy overrides the session's configured fee rate. A pinned
	// manual fee survives rebuilds until the draft resets it.
	FeePolicy *tx.FeePolicy

	// Description is recorded as the transaction's label after a
	// successful broadcast.
	Description string

	// Request attaches a BIP270 payment request. Broadcast then delivers
	// the signed transaction to the payee instead of the peer network.
	Request *payreq.PaymentRequest

	// InvoiceID names the stored invoice to mark paid on delivery.
	InvoiceID string
}

// OutputsFromRequest converts a payment request's outputs into build
// outputs.
func OutputsFromRequest(req *payreq.PaymentRequest) ([]*tx.XTxOutput, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request", ErrNilParam)
	}

	outs := make([]*tx.XTxOutput, 0, len(req.Outputs))
	for i := range req.Outputs {
		lock, err := req.Outputs[i].LockingScript()
		if err != nil {
			return nil, fmt.Errorf("%w: request output %d: %v", tx.ErrBuildFailure, i, err)
		}
		outs = append(outs, &tx.XTxOutput{
			Amount:        req.Outputs[i].Amount,
			LockingScript: lock,
		})
	}
	return outs, nil
}

// BuildDraft selects coins, assembles an unsigned payment, and registers a
// new draft. The coin snapshot is read-only for the duration of the build;
// account state is never touched.
//
// Errors pass through from the builder: tx.ErrInsufficientFunds when the
// eligible coins cannot cover the outputs plus fee, tx.ErrExcessiveFee when
// the fee breaches the configured ceiling, tx.ErrBuildFailure for
// construction faults.
func (s *Session) BuildDraft(req *BuildRequest) (*Draft, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: build request", ErrNilParam)
	}
	if !s.Alive() {
		return nil, ErrSessionClosed
	}

	outputs := req.Outputs
	if len(outputs) == 0 && req.Request != nil {
		var err error
		outputs, err = OutputsFromRequest(req.Request)
		if err != nil {
			return nil, err
		}
	}

	policy := tx.FeePolicy{RatePerKB: s.cfg.FeeRatePerKB}
	if req.FeePolicy != nil {
		policy = *req.FeePolicy
	}

	d := &Draft{
		state:       StateDraft,
		outputs:     outputs,
		pinned:      req.Pinned,
		invoiceMode: req.InvoiceMode || req.Request != nil,
		policy:      policy,
		description: req.Description,
		request:     req.Request,
		invoiceID:   req.InvoiceID,
	}

	payment, coins, err := s.buildPayment(d)
	if err != nil {
		return nil, err
	}
	if err := d.applyBuild(payment, coins); err != nil {
		return nil, err
	}
	if err := s.register(d); err != nil {
		return nil, err
	}

	log.Debugf("draft %d built: fee=%d size=%d coins=%d change=%d",
		d.id, payment.Fee, payment.Size, len(coins), payment.ChangeValue)
	s.publish(Event{Type: EventDraftBuilt, DraftID: d.id})
	return d, nil
}

// RebuildDraft reruns selection and assembly for an editable draft against
// a fresh coin snapshot, preserving the draft's outputs, pinned coins, and
// fee policy. A manually pinned fee is kept as-is; only ResetFee clears it.
func (s *Session) RebuildDraft(id uint64) (*Draft, error) {
	if !s.Alive() {
		return nil, ErrSessionClosed
	}

	d, err := s.Draft(id)
	if err != nil {
		return nil, err
	}
	if d.IsChild() {
		return nil, ErrDraftState
	}

	payment, coins, err := s.buildPayment(d)
	if err != nil {
		return nil, err
	}
	if err := d.applyBuild(payment, coins); err != nil {
		return nil, err
	}

	log.Debugf("draft %d rebuilt: fee=%d size=%d coins=%d",
		id, payment.Fee, payment.Size, len(coins))
	s.publish(Event{Type: EventDraftBuilt, DraftID: id})
	return d, nil
}

// buildPayment runs selection and assembly for a draft's recorded build
// inputs. The engine derives the change script.
func (s *Session) buildPayment(d *Draft) (*tx.Payment, []*tx.UTXO, error) {
	outputs, pinned, invoiceMode, policy := d.buildInputs()

	snapshot := s.engine.SpendableCoins(tx.CoinConstraints{})
	coins := SelectCoins(snapshot, pinned, true, invoiceMode)

	payment, err := s.engine.MakeUnsigned(&tx.PaymentParams{
		Coins:        coins,
		Outputs:      outputs,
		FeePolicy:    policy,
		MaxRatePerKB: s.cfg.MaxFeeRatePerKB,
		DustLimit:    s.cfg.DustLimit,
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, coins, nil
}
