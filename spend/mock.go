package spend

import (
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/cobaltwallet/libcobalt-go/tx"
	"github.com/cobaltwallet/libcobalt-go/wallet"
)

// MockEngine is a test double for AccountEngine.
// All function fields must be set before the corresponding method is called.
type MockEngine struct {
	SpendableCoinsFn      func(cc tx.CoinConstraints) []*tx.UTXO
	MakeUnsignedFn        func(p *tx.PaymentParams) (*tx.Payment, error)
	SignTransactionFn     func(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (string, error)
	SetTransactionStateFn func(txID []byte, flags wallet.TxFlags) error
	SetLabelFn            func(txID []byte, label string) error
	CPFPCandidateFn       func(parentTxID []byte) (*tx.UTXO, int)
}

var _ AccountEngine = (*MockEngine)(nil)

func (m *MockEngine) SpendableCoins(cc tx.CoinConstraints) []*tx.UTXO {
	return m.SpendableCoinsFn(cc)
}

func (m *MockEngine) MakeUnsigned(p *tx.PaymentParams) (*tx.Payment, error) {
	return m.MakeUnsignedFn(p)
}

func (m *MockEngine) SignTransaction(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (string, error) {
	return m.SignTransactionFn(sdkTx, coins, password)
}

func (m *MockEngine) SetTransactionState(txID []byte, flags wallet.TxFlags) error {
	return m.SetTransactionStateFn(txID, flags)
}

func (m *MockEngine) SetLabel(txID []byte, label string) error {
	return m.SetLabelFn(txID, label)
}

func (m *MockEngine) CPFPCandidate(parentTxID []byte) (*tx.UTXO, int) {
	return m.CPFPCandidateFn(parentTxID)
}
