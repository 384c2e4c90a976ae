package tx

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// UTXO represents an unspent transaction output tracked by the wallet.
type UTXO struct {
	TxID         []byte         `json:"txid"`          // 32 bytes
	Vout         uint32         `json:"vout"`
	Amount       uint64         `json:"amount"`        // satoshis
	ScriptPubKey []byte         `json:"script_pubkey"` // locking script bytes
	Height       int32          `json:"height"`        // confirming block height, 0 while unconfirmed
	Frozen       bool           `json:"frozen"`        // excluded from automatic selection
	FromSelf     bool           `json:"from_self"`     // change from one of our own transactions
	KeyPath      string         `json:"key_path"`      // derivation path of the owning key
	PrivateKey   *ec.PrivateKey `json:"-"`             // signing key (not serialized)
}

// Outpoint returns the canonical "txid:vout" string for map keys and logs.
func (u *UTXO) Outpoint() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(u.TxID), u.Vout)
}

// Confirmed reports whether the output's transaction is in a block.
func (u *UTXO) Confirmed() bool {
	return u.Height > 0
}

// SumAmounts returns the total satoshi value of the given coins.
func SumAmounts(coins []*UTXO) uint64 {
	var total uint64
	for _, c := range coins {
		total += c.Amount
	}
	return total
}

// CoinConstraints filters the coins an account reports as spendable.
type CoinConstraints struct {
	ExcludeFrozen bool `json:"exclude_frozen"` // drop coins frozen by the user
	ConfirmedOnly bool `json:"confirmed_only"` // drop coins not yet in a block
}

// Clone returns a deep copy of the coin. The signing key pointer is shared;
// keys are immutable once derived.
func (u *UTXO) Clone() *UTXO {
	if u == nil {
		return nil
	}
	c := *u
	c.TxID = append([]byte(nil), u.TxID...)
	c.ScriptPubKey = append([]byte(nil), u.ScriptPubKey...)
	return &c
}
