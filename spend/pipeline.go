package spend

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/cobaltwallet/libcobalt-go/tx"
)

// SignResult reports the outcome of an asynchronous signing task.
type SignResult struct {
	DraftID uint64
	TxID    string // display hex, set on success
	RawHex  string // signed raw transaction hex, set on success
	Err     error
}

// SignAsync submits a signing task for the draft and returns once the task
// is queued. Completion, success or failure, is delivered to done on a
// worker goroutine; done may be nil when the caller watches events instead.
//
// Only one signing task may be in flight per draft (ErrSignInFlight), and
// the draft must be in the editable or previewed state. A wrong password
// surfaces in the result as wallet.ErrDecryptionFailed; the draft stays
// where it was so the caller can re-prompt and try again.
func (s *Session) SignAsync(id uint64, password string, done func(*SignResult)) error {
	if !s.Alive() {
		return ErrSessionClosed
	}

	d, err := s.Draft(id)
	if err != nil {
		return err
	}
	if err := d.beginSign(); err != nil {
		return err
	}

	if err := s.pool.Submit(func() { s.runSign(d, password, done) }); err != nil {
		d.finishSign("", nil, "", err)
		return err
	}
	return nil
}

// runSign executes one signing task on a worker goroutine.
func (s *Session) runSign(d *Draft, password string, done func(*SignResult)) {
	res := &SignResult{DraftID: d.ID()}

	if !s.Alive() {
		res.Err = ErrSessionClosed
		d.finishSign("", nil, "", res.Err)
		s.deliverSign(done, res)
		return
	}

	payment := d.Payment()
	coins := d.buildCoins()

	rawHex, err := s.signChecked(payment.Tx, coins, password)
	if err != nil {
		log.Debugf("draft %d sign failed: %v", d.ID(), err)
		d.finishSign("", nil, "", err)
		res.Err = err
		s.publish(Event{Type: EventSignDone, DraftID: d.ID(), Err: err})
		s.deliverSign(done, res)
		return
	}

	hash := payment.Tx.TxID()
	d.finishSign(rawHex, hash.CloneBytes(), hash.String(), nil)
	res.RawHex = rawHex
	res.TxID = hash.String()

	log.Infof("draft %d signed: txid=%s", d.ID(), res.TxID)
	s.publish(Event{Type: EventSignDone, DraftID: d.ID(), TxID: res.TxID})
	s.deliverSign(done, res)
}

// signChecked invokes the engine under a recover guard so a signing panic
// surfaces as a failure to the callback instead of killing the worker.
func (s *Session) signChecked(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (rawHex string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sign panic: %v", tx.ErrSigningFailed, r)
		}
	}()
	return s.engine.SignTransaction(sdkTx, coins, password)
}

// deliverSign invokes the caller's completion callback. Callbacks always
// run once the task does; a panicking callback is logged and contained.
func (s *Session) deliverSign(done func(*SignResult), res *SignResult) {
	if done == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("sign callback panic for draft %d: %v", res.DraftID, r)
		}
	}()
	done(res)
}
