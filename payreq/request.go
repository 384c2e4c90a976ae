package payreq

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-sdk/script"
)

// Output is a single requested payment output in BIP270 payment terms.
// Script is the hex-encoded locking script the payee wants funded.
type Output struct {
	Amount uint64 `json:"amount"`
	Script string `json:"script"`
	Desc   string `json:"description,omitempty"`
}

// LockingScript decodes the output's hex locking script.
func (o *Output) LockingScript() (*script.Script, error) {
	s, err := script.NewFromHex(o.Script)
	if err != nil {
		return nil, fmt.Errorf("%w: output script: %v", ErrInvalidRequest, err)
	}
	return s, nil
}

// PaymentRequest is a BIP270 payment terms document fetched from a payee.
type PaymentRequest struct {
	Network             string   `json:"network"`
	Outputs             []Output `json:"outputs"`
	CreationTimestamp   int64    `json:"creationTimestamp"`
	ExpirationTimestamp int64    `json:"expirationTimestamp,omitempty"`
	Memo                string   `json:"memo,omitempty"`
	PaymentURL          string   `json:"paymentUrl"`
	MerchantData        string   `json:"merchantData,omitempty"`
}

// IsExpired returns true if the request carries an expiration time that has
// passed. Requests without an expiration never expire.
func (r *PaymentRequest) IsExpired() bool {
	return r.ExpirationTimestamp > 0 && time.Now().Unix() > r.ExpirationTimestamp
}

// TotalAmount returns the sum of all requested output amounts in satoshis.
func (r *PaymentRequest) TotalAmount() uint64 {
	var total uint64
	for i := range r.Outputs {
		total += r.Outputs[i].Amount
	}
	return total
}

// Validate checks the structural requirements of the payment terms: the
// bitcoin network, at least one output, decodable output scripts, and a
// payment URL to deliver the transaction to.
func (r *PaymentRequest) Validate() error {
	if r.Network != "" && r.Network != "bitcoin" && r.Network != "bitcoin-sv" {
		return fmt.Errorf("%w: unsupported network %q", ErrInvalidRequest, r.Network)
	}
	if len(r.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidRequest)
	}
	for i := range r.Outputs {
		if _, err := r.Outputs[i].LockingScript(); err != nil {
			return err
		}
	}
	if r.PaymentURL == "" {
		return fmt.Errorf("%w: no payment URL", ErrInvalidRequest)
	}
	return nil
}

// DeriveID computes a stable identifier for the request from its
// payment-relevant fields, so the same terms fetched twice map onto the
// same stored invoice.
func (r *PaymentRequest) DeriveID() string {
	h := sha256.New()
	h.Write([]byte(r.PaymentURL))
	h.Write([]byte(r.MerchantData))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(r.ExpirationTimestamp))
	h.Write(ts[:])

	for i := range r.Outputs {
		var amt [8]byte
		binary.BigEndian.PutUint64(amt[:], r.Outputs[i].Amount)
		h.Write(amt[:])
		h.Write([]byte(r.Outputs[i].Script))
	}

	return hex.EncodeToString(h.Sum(nil)[:16])
}
