package wallet

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketTxState = []byte("tx_state")

// TxFlags records what the wallet knows about one of its own transactions.
// State flags accumulate and are never cleared once set; a transaction that
// reached Dispatched stays Dispatched even if a later merge carries only
// an earlier flag.
type TxFlags uint32

const (
	// FlagSigned marks a fully signed transaction held by the wallet.
	FlagSigned TxFlags = 1 << 0

	// FlagDispatched marks a transaction accepted by the network.
	FlagDispatched TxFlags = 1 << 1

	// FlagCleared marks a transaction seen in the mempool by a peer.
	FlagCleared TxFlags = 1 << 2

	// FlagSettled marks a transaction confirmed in a block.
	FlagSettled TxFlags = 1 << 3

	// FlagByteData marks that the raw transaction bytes are retained.
	FlagByteData TxFlags = 1 << 4
)

// Has reports whether all bits of flag are set.
func (f TxFlags) Has(flag TxFlags) bool {
	return f&flag == flag
}

// State returns the most advanced lifecycle flag set on f, or zero when
// the transaction has no recorded lifecycle state.
func (f TxFlags) State() TxFlags {
	switch {
	case f.Has(FlagSettled):
		return FlagSettled
	case f.Has(FlagCleared):
		return FlagCleared
	case f.Has(FlagDispatched):
		return FlagDispatched
	case f.Has(FlagSigned):
		return FlagSigned
	}
	return 0
}

// String renders the flag set for logs.
func (f TxFlags) String() string {
	if f == 0 {
		return "none"
	}
	var buf bytes.Buffer
	appendFlag := func(flag TxFlags, name string) {
		if !f.Has(flag) {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte('|')
		}
		buf.WriteString(name)
	}
	appendFlag(FlagSigned, "signed")
	appendFlag(FlagDispatched, "dispatched")
	appendFlag(FlagCleared, "cleared")
	appendFlag(FlagSettled, "settled")
	appendFlag(FlagByteData, "bytedata")
	if buf.Len() == 0 {
		return fmt.Sprintf("unknown(0x%x)", uint32(f))
	}
	return buf.String()
}

// TxRecord is one tracked transaction in the state store.
type TxRecord struct {
	TxID      []byte
	Raw       []byte // raw transaction bytes, present when Flags has FlagByteData
	Flags     TxFlags
	Label     string
	UpdatedAt time.Time
}

// TxStateStore persists per-transaction state flags in bbolt.
type TxStateStore struct {
	db *bbolt.DB
}

// OpenTxStateStore opens or creates the state database at dbPath.
// The parent directory is created if it does not exist.
func OpenTxStateStore(dbPath string) (*TxStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("wallet: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet: open state db: %w", err)
	}

	err = db.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketTxState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("wallet: create state bucket: %w", err)
	}

	return &TxStateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *TxStateStore) Close() error { return s.db.Close() }

// Track records a transaction, creating the entry or merging flags into an
// existing one. Raw bytes are stored once and never replaced; passing raw
// sets FlagByteData. Track is idempotent.
func (s *TxStateStore) Track(txID, raw []byte, flags TxFlags) error {
	if len(txID) != 32 {
		return ErrInvalidTxID
	}
	if len(raw) > 0 {
		flags |= FlagByteData
	}

	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketTxState)

		rec := TxRecord{TxID: append([]byte(nil), txID...)}
		if data := b.Get(txID); data != nil {
			if err := decodeTxRecord(data, &rec); err != nil {
				return fmt.Errorf("wallet: decode state record: %w", err)
			}
		}

		rec.Flags |= flags
		if len(rec.Raw) == 0 && len(raw) > 0 {
			rec.Raw = append([]byte(nil), raw...)
		}
		rec.UpdatedAt = time.Now().UTC()

		data, err := encodeTxRecord(&rec)
		if err != nil {
			return fmt.Errorf("wallet: encode state record: %w", err)
		}
		return b.Put(txID, data)
	})
}

// MergeFlags merges flags into an existing entry and returns the result.
// Returns ErrTxNotTracked when the transaction has never been tracked.
func (s *TxStateStore) MergeFlags(txID []byte, flags TxFlags) (TxFlags, error) {
	if len(txID) != 32 {
		return 0, ErrInvalidTxID
	}

	var merged TxFlags
	err := s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketTxState)
		data := b.Get(txID)
		if data == nil {
			return ErrTxNotTracked
		}

		var rec TxRecord
		if err := decodeTxRecord(data, &rec); err != nil {
			return fmt.Errorf("wallet: decode state record: %w", err)
		}

		rec.Flags |= flags
		rec.UpdatedAt = time.Now().UTC()
		merged = rec.Flags

		out, err := encodeTxRecord(&rec)
		if err != nil {
			return fmt.Errorf("wallet: encode state record: %w", err)
		}
		return b.Put(txID, out)
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// SetLabel stores a label on a tracked transaction.
func (s *TxStateStore) SetLabel(txID []byte, label string) error {
	if len(txID) != 32 {
		return ErrInvalidTxID
	}

	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketTxState)
		data := b.Get(txID)
		if data == nil {
			return ErrTxNotTracked
		}

		var rec TxRecord
		if err := decodeTxRecord(data, &rec); err != nil {
			return fmt.Errorf("wallet: decode state record: %w", err)
		}

		rec.Label = label
		rec.UpdatedAt = time.Now().UTC()

		out, err := encodeTxRecord(&rec)
		if err != nil {
			return fmt.Errorf("wallet: encode state record: %w", err)
		}
		return b.Put(txID, out)
	})
}

// Get retrieves a tracked transaction by txid.
func (s *TxStateStore) Get(txID []byte) (*TxRecord, error) {
	if len(txID) != 32 {
		return nil, ErrInvalidTxID
	}

	var rec TxRecord
	err := s.db.View(func(btx *bbolt.Tx) error {
		data := btx.Bucket(bucketTxState).Get(txID)
		if data == nil {
			return ErrTxNotTracked
		}
		return decodeTxRecord(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all tracked transactions.
func (s *TxStateStore) List() ([]*TxRecord, error) {
	var recs []*TxRecord
	err := s.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketTxState).ForEach(func(k, v []byte) error {
			var rec TxRecord
			if err := decodeTxRecord(v, &rec); err != nil {
				return fmt.Errorf("wallet: decode state record in list: %w", err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: list state records: %w", err)
	}
	return recs, nil
}

// encodeTxRecord serializes a record using gob encoding.
func encodeTxRecord(rec *TxRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeTxRecord deserializes a gob-encoded record.
func decodeTxRecord(data []byte, rec *TxRecord) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(rec)
}
