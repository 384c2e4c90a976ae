package spend

import (
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/cobaltwallet/libcobalt-go/tx"
	"github.com/cobaltwallet/libcobalt-go/wallet"
)

// AccountEngine is the wallet-side contract the pipeline drives. It owns the
// account's coins, keys, and persisted transaction state; the pipeline only
// reads coin snapshots during a build cycle and writes state strictly after
// a broadcast is accepted.
type AccountEngine interface {
	// SpendableCoins snapshots the account's UTXO set under the given
	// constraints. Returned coins are copies; mutating them does not touch
	// account state.
	SpendableCoins(cc tx.CoinConstraints) []*tx.UTXO

	// MakeUnsigned builds an unsigned payment, deriving a change script
	// when the parameters carry none.
	MakeUnsigned(p *tx.PaymentParams) (*tx.Payment, error)

	// SignTransaction signs sdkTx against the coins it spends and returns
	// the raw transaction hex. A wrong password surfaces as
	// wallet.ErrDecryptionFailed.
	SignTransaction(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (string, error)

	// SetTransactionState merges state flags into a tracked transaction.
	// Flags accumulate monotonically; transactions the engine has never
	// tracked return wallet.ErrTxNotTracked.
	SetTransactionState(txID []byte, flags wallet.TxFlags) error

	// SetLabel attaches a human-readable label to a transaction.
	SetLabel(txID []byte, label string) error

	// CPFPCandidate returns the parent's unconfirmed change output and the
	// parent's raw size when a fee bump is still possible, or (nil, 0).
	CPFPCandidate(parentTxID []byte) (*tx.UTXO, int)
}

var _ AccountEngine = (*wallet.Account)(nil)
