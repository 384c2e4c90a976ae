package spend

import (
	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/cobaltwallet/libcobalt-go/tx"
)

// ProposeBumpFee sizes the fee of a CPFP child so the target rate covers
// the whole parent-plus-child package: ratePerKB * (parentSize +
// childSize) / 1000, rounded up. A zero rate uses the session's configured
// rate. ErrParentNotSpendable reports a parent the engine can no longer
// bump.
func (s *Session) ProposeBumpFee(parentTxID []byte, ratePerKB uint64) (uint64, error) {
	if !s.Alive() {
		return 0, ErrSessionClosed
	}

	candidate, parentSize := s.engine.CPFPCandidate(parentTxID)
	if candidate == nil {
		return 0, ErrParentNotSpendable
	}
	if ratePerKB == 0 {
		ratePerKB = s.cfg.FeeRatePerKB
	}
	return tx.ProposeChildFee(parentSize, ratePerKB), nil
}

// BuildChildDraft constructs a child draft that respends the parent's
// unconfirmed change output back to the wallet at the given total fee, and
// registers it like any other draft; signing and broadcast then follow the
// normal pipeline. The reclaimed value returns to the same script that
// held it.
//
// The fee is bounded by the value being reclaimed: above it the build
// fails with tx.ErrExcessiveFee, equal to it the child carries a single
// zero-value output and the whole input is consumed as fee.
// ErrParentNotSpendable reports a parent whose change output is spent,
// frozen, or already confirmed.
func (s *Session) BuildChildDraft(parentTxID []byte, fee uint64) (*Draft, error) {
	if !s.Alive() {
		return nil, ErrSessionClosed
	}

	candidate, _ := s.engine.CPFPCandidate(parentTxID)
	if candidate == nil {
		return nil, ErrParentNotSpendable
	}

	childTx, err := tx.BuildChild(&tx.ChildParams{
		Parent:       candidate,
		Fee:          fee,
		ReturnScript: script.NewFromBytes(candidate.ScriptPubKey),
	})
	if err != nil {
		return nil, err
	}

	payment := &tx.Payment{
		Tx:          childTx,
		Fee:         fee,
		Size:        tx.ChildTxSize,
		ChangeVout:  0,
		ChangeValue: candidate.Amount - fee,
	}

	d := &Draft{
		state:  StateDraft,
		child:  true,
		policy: tx.FeePolicy{RatePerKB: s.cfg.FeeRatePerKB},
	}
	d.policy.PinFee(fee)
	if err := d.applyBuild(payment, []*tx.UTXO{candidate}); err != nil {
		return nil, err
	}
	if err := s.register(d); err != nil {
		return nil, err
	}

	log.Debugf("draft %d built as fee bump: fee=%d reclaims=%d",
		d.id, fee, candidate.Amount)
	s.publish(Event{Type: EventDraftBuilt, DraftID: d.id})
	return d, nil
}
