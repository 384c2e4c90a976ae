package payreq

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

var bucketInvoices = []byte("invoices")

// InvoiceState is the derived lifecycle state of a stored invoice.
type InvoiceState int

const (
	// InvoiceUnpaid is an open invoice with no recorded payment.
	InvoiceUnpaid InvoiceState = iota

	// InvoicePaid is an invoice with a recorded payment txid.
	InvoicePaid

	// InvoiceExpired is an unpaid invoice whose request expiry has passed.
	InvoiceExpired
)

// String returns a short human-readable name for the state.
func (s InvoiceState) String() string {
	switch s {
	case InvoicePaid:
		return "paid"
	case InvoiceExpired:
		return "expired"
	default:
		return "unpaid"
	}
}

// Invoice ties stored payment terms to their outcome.
type Invoice struct {
	ID          string
	Request     *PaymentRequest
	Description string
	TxID        string // transaction that settled the invoice, set by SetPaid
	CreatedAt   time.Time
	PaidAt      time.Time
}

// State derives the invoice lifecycle state. Payment wins over expiry: an
// invoice paid before its terms lapsed stays paid.
func (inv *Invoice) State() InvoiceState {
	if inv.TxID != "" {
		return InvoicePaid
	}
	if inv.Request != nil && inv.Request.IsExpired() {
		return InvoiceExpired
	}
	return InvoiceUnpaid
}

// Store persists invoices in bbolt.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens or creates the invoice database at dbPath.
// The parent directory is created if it does not exist.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("payreq: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("payreq: open invoice db: %w", err)
	}

	err = db.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketInvoices)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("payreq: create invoice bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores an invoice, overwriting any existing entry with the same id.
// An invoice without an id takes one derived from its request terms, so
// re-storing the same fetched terms lands on the same entry.
func (s *Store) Put(inv *Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: invoice", ErrNilParam)
	}
	if inv.ID == "" {
		if inv.Request == nil {
			return fmt.Errorf("%w: invoice has neither id nor request", ErrInvalidRequest)
		}
		inv.ID = inv.Request.DeriveID()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	data, err := encodeInvoice(inv)
	if err != nil {
		return fmt.Errorf("payreq: encode invoice: %w", err)
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketInvoices).Put([]byte(inv.ID), data)
	})
}

// Get retrieves an invoice by id.
func (s *Store) Get(id string) (*Invoice, error) {
	var inv Invoice
	err := s.db.View(func(btx *bbolt.Tx) error {
		data := btx.Bucket(bucketInvoices).Get([]byte(id))
		if data == nil {
			return ErrInvoiceNotFound
		}
		return decodeInvoice(data, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns all stored invoices ordered by creation time, then id.
func (s *Store) List() ([]*Invoice, error) {
	var invs []*Invoice
	err := s.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketInvoices).ForEach(func(k, v []byte) error {
			var inv Invoice
			if err := decodeInvoice(v, &inv); err != nil {
				return fmt.Errorf("payreq: decode invoice in list: %w", err)
			}
			invs = append(invs, &inv)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("payreq: list invoices: %w", err)
	}

	sort.Slice(invs, func(i, j int) bool {
		if !invs[i].CreatedAt.Equal(invs[j].CreatedAt) {
			return invs[i].CreatedAt.Before(invs[j].CreatedAt)
		}
		return invs[i].ID < invs[j].ID
	})
	return invs, nil
}

// SetPaid records the transaction that settled an invoice. Calling it
// again with the same txid is a no-op, so a duplicate broadcast cannot
// disturb the record.
func (s *Store) SetPaid(id, txid string) error {
	if txid == "" {
		return fmt.Errorf("%w: txid", ErrNilParam)
	}

	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketInvoices)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrInvoiceNotFound
		}

		var inv Invoice
		if err := decodeInvoice(data, &inv); err != nil {
			return fmt.Errorf("payreq: decode invoice: %w", err)
		}

		if inv.TxID == txid {
			return nil
		}
		inv.TxID = txid
		inv.PaidAt = time.Now().UTC()

		out, err := encodeInvoice(&inv)
		if err != nil {
			return fmt.Errorf("payreq: encode invoice: %w", err)
		}
		return b.Put([]byte(id), out)
	})
}

// Delete removes an invoice. Deleting an absent id is not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketInvoices).Delete([]byte(id))
	})
}

// encodeInvoice serializes an invoice using gob encoding.
func encodeInvoice(inv *Invoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(inv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeInvoice deserializes a gob-encoded invoice.
func decodeInvoice(data []byte, inv *Invoice) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(inv)
}
