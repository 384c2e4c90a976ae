package spend

import (
	"context"
	"errors"
	"fmt"

	"github.com/cobaltwallet/libcobalt-go/network"
	"github.com/cobaltwallet/libcobalt-go/payreq"
	"github.com/cobaltwallet/libcobalt-go/wallet"
)

// BroadcastResult reports the outcome of an asynchronous broadcast task.
type BroadcastResult struct {
	DraftID uint64
	TxID    string         // display hex, set on success
	Memo    string         // payee ACK memo, when a payment request was paid
	Reason  network.Reason // failure classification, ReasonUnknown on success
	Err     error
}

// BroadcastAsync submits a broadcast task for a signed draft and returns
// once the task is queued. Completion is delivered to done on a worker
// goroutine; done may be nil. Broadcast is a single attempt: the pipeline
// never retries on its own, a retry is the caller's decision on a fresh
// draft.
//
// A draft carrying an unexpired payment request is delivered to the payee
// endpoint instead of the peer network. An expired request fails the draft
// with payreq.ErrRequestExpired and detaches the request; the invoice is
// left unpaid. Plain sends go to the blockchain service, which must report
// back the locally computed transaction id.
func (s *Session) BroadcastAsync(id uint64, done func(*BroadcastResult)) error {
	if !s.Alive() {
		return ErrSessionClosed
	}

	d, err := s.Draft(id)
	if err != nil {
		return err
	}
	if d.Request() == nil && s.chain == nil {
		return ErrOffline
	}
	if err := d.beginBroadcast(); err != nil {
		return err
	}

	if err := s.pool.Submit(func() { s.runBroadcast(d, done) }); err != nil {
		d.rollbackBroadcast()
		return err
	}
	return nil
}

// runBroadcast executes one broadcast task on a worker goroutine.
func (s *Session) runBroadcast(d *Draft, done func(*BroadcastResult)) {
	res := &BroadcastResult{DraftID: d.ID()}

	if !s.Alive() {
		res.Err = ErrSessionClosed
		d.finishBroadcast(network.ReasonUnknown, res.Err)
		s.deliverBroadcast(done, res)
		return
	}

	if req := d.Request(); req != nil {
		s.payRequest(d, req, res)
	} else {
		s.payNetwork(d, res)
	}

	if res.Err == nil {
		s.attachLabel(d, res.TxID)
	}

	s.publish(Event{Type: EventBroadcastDone, DraftID: d.ID(), TxID: res.TxID, Err: res.Err})
	s.deliverBroadcast(done, res)
}

// payRequest delivers the signed transaction to the payee named by the
// draft's payment request and marks the invoice paid on acknowledgement.
func (s *Session) payRequest(d *Draft, req *payreq.PaymentRequest, res *BroadcastResult) {
	if req.IsExpired() {
		err := fmt.Errorf("%w: %s", payreq.ErrRequestExpired, req.PaymentURL)
		log.Debugf("draft %d: payment request expired, detaching", d.ID())
		d.clearRequest()
		d.finishBroadcast(network.ReasonUnknown, err)
		res.Err = err
		return
	}

	endpoint := s.payee
	if endpoint == nil {
		endpoint = payreq.NewEndpoint(req.PaymentURL)
	}

	pay := &payreq.Payment{
		MerchantData: req.MerchantData,
		Transaction:  d.RawHex(),
		Memo:         d.Description(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	ack, err := endpoint.SendPayment(ctx, pay)
	if err != nil {
		log.Debugf("draft %d payment rejected: %v", d.ID(), err)
		d.finishBroadcast(network.ReasonUnknown, err)
		res.Err = err
		return
	}

	txid := d.TxIDHex()
	invoiceID := d.InvoiceID()
	d.finishBroadcast(network.ReasonUnknown, nil)
	res.TxID = txid
	if ack != nil {
		res.Memo = ack.Memo
	}
	log.Infof("draft %d payment accepted by payee: txid=%s", d.ID(), txid)

	if s.invoices != nil && invoiceID != "" {
		if !s.Alive() {
			log.Debugf("session closed, skipping invoice update for draft %d", d.ID())
			return
		}
		if err := s.invoices.SetPaid(invoiceID, txid); err != nil {
			log.Warnf("draft %d: mark invoice %s paid: %v", d.ID(), invoiceID, err)
			s.publish(Event{Type: EventInvoiceFailed, DraftID: d.ID(), TxID: txid, Err: err})
		}
	}
}

// payNetwork submits the signed transaction to the blockchain service and
// waits for acceptance. Already-known rejections come back as success from
// the broadcaster, so re-sending an accepted transaction converges on the
// same outcome and the state flags merge without regressing.
func (s *Session) payNetwork(d *Draft, res *BroadcastResult) {
	if s.chain == nil {
		d.finishBroadcast(network.ReasonUnknown, ErrOffline)
		res.Err = ErrOffline
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastTimeout)
	defer cancel()

	reported, err := s.chain.BroadcastAndWait(ctx, d.RawHex())
	if err != nil {
		reason := network.ClassifyBroadcastError(err)
		log.Debugf("draft %d broadcast failed (%s): %v", d.ID(), reason, err)
		d.finishBroadcast(reason, err)
		res.Reason = reason
		res.Err = err
		return
	}

	local := d.TxIDHex()
	if reported != local {
		err := fmt.Errorf("%w: sent %s, node reported %s",
			network.ErrBroadcastMismatch, local, reported)
		d.finishBroadcast(network.ReasonUnknown, err)
		res.Err = err
		return
	}

	d.finishBroadcast(network.ReasonUnknown, nil)
	res.TxID = local
	log.Infof("draft %d broadcast accepted: txid=%s", d.ID(), local)

	if !s.Alive() {
		log.Debugf("session closed, skipping state update for draft %d", d.ID())
		return
	}
	err = s.engine.SetTransactionState(d.TxID(), wallet.FlagDispatched|wallet.FlagByteData)
	if err != nil && !errors.Is(err, wallet.ErrTxNotTracked) {
		log.Warnf("draft %d: update transaction state: %v", d.ID(), err)
	}
}

// attachLabel records the draft's description against the accepted
// transaction as an explicit post-broadcast step. A failure here is
// reported through the event bus and never rolls back the broadcast.
func (s *Session) attachLabel(d *Draft, txid string) {
	desc := d.Description()
	if desc == "" || txid == "" {
		return
	}
	if !s.Alive() {
		log.Debugf("session closed, skipping label for draft %d", d.ID())
		return
	}

	if err := s.engine.SetLabel(d.TxID(), desc); err != nil {
		log.Warnf("draft %d: attach label: %v", d.ID(), err)
		s.publish(Event{Type: EventLabelFailed, DraftID: d.ID(), TxID: txid, Err: err})
	}
}

// deliverBroadcast invokes the caller's completion callback. Callbacks
// always run once the task does; a panicking callback is logged and
// contained.
func (s *Session) deliverBroadcast(done func(*BroadcastResult), res *BroadcastResult) {
	if done == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("broadcast callback panic for draft %d: %v", res.DraftID, r)
		}
	}()
	done(res)
}
