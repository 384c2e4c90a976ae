package spend

import (
	"bytes"
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"

	"github.com/cobaltwallet/libcobalt-go/network"
	"github.com/cobaltwallet/libcobalt-go/tx"
	"github.com/cobaltwallet/libcobalt-go/wallet"
)

const testPassword = "open sesame"

// testCoin returns a spendable coin with a real key and locking script,
// so signing through the test engine produces a genuinely signed
// transaction. The seed byte fills the txid so distinct coins have
// distinct outpoints.
func testCoin(t *testing.T, amount uint64, seed byte) *tx.UTXO {
	t.Helper()
	privKey, err := ec.NewPrivateKey()
	require.NoError(t, err)
	scriptBytes, err := tx.BuildP2PKHScript(privKey.PubKey())
	require.NoError(t, err)
	return &tx.UTXO{
		TxID:         bytes.Repeat([]byte{seed}, 32),
		Vout:         0,
		Amount:       amount,
		ScriptPubKey: scriptBytes,
		Height:       100,
		PrivateKey:   privKey,
	}
}

// testScript returns a fresh P2PKH locking script unrelated to any coin.
func testScript(t *testing.T) *script.Script {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	scriptBytes, err := tx.BuildP2PKHScript(priv.PubKey())
	require.NoError(t, err)
	return script.NewFromBytes(scriptBytes)
}

// engineState records the wallet-side effects a test engine observes, for
// assertions after broadcast.
type engineState struct {
	mu     sync.Mutex
	flags  map[string]wallet.TxFlags
	labels map[string]string
}

func (st *engineState) flagsFor(txID []byte) wallet.TxFlags {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.flags[hex.EncodeToString(txID)]
}

func (st *engineState) labelFor(txID []byte) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.labels[hex.EncodeToString(txID)]
}

// newTestEngine wires a MockEngine over the given coins. Builds run the
// real builder with a derived change script, signing uses the coins' keys
// and accepts testPassword, and state updates accumulate in the returned
// recorder the way the wallet's flag merge does.
func newTestEngine(t *testing.T, coins []*tx.UTXO) (*MockEngine, *engineState) {
	t.Helper()

	st := &engineState{
		flags:  make(map[string]wallet.TxFlags),
		labels: make(map[string]string),
	}
	eng := &MockEngine{
		SpendableCoinsFn: func(cc tx.CoinConstraints) []*tx.UTXO {
			return coins
		},
		MakeUnsignedFn: func(p *tx.PaymentParams) (*tx.Payment, error) {
			p.ChangeScript = testScript(t)
			return tx.BuildPayment(p)
		},
		SignTransactionFn: func(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (string, error) {
			if password != testPassword {
				return "", wallet.ErrDecryptionFailed
			}
			return tx.SignPayment(sdkTx, coins)
		},
		SetTransactionStateFn: func(txID []byte, flags wallet.TxFlags) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.flags[hex.EncodeToString(txID)] |= flags
			return nil
		},
		SetLabelFn: func(txID []byte, label string) error {
			st.mu.Lock()
			defer st.mu.Unlock()
			st.labels[hex.EncodeToString(txID)] = label
			return nil
		},
		CPFPCandidateFn: func(parentTxID []byte) (*tx.UTXO, int) {
			return nil, 0
		},
	}
	return eng, st
}

// echoBroadcaster accepts every transaction and reports the id a node
// would compute from the raw bytes.
func echoBroadcaster() *network.MockBroadcaster {
	return &network.MockBroadcaster{
		BroadcastAndWaitFn: func(ctx context.Context, rawTxHex string) (string, error) {
			parsed, err := transaction.NewTransactionFromHex(rawTxHex)
			if err != nil {
				return "", err
			}
			return parsed.TxID().String(), nil
		},
	}
}

// newTestSession builds a session over the engine and chain, closed via
// t.Cleanup.
func newTestSession(t *testing.T, eng AccountEngine, chain network.Broadcaster) *Session {
	t.Helper()
	s, err := NewSession(&SessionParams{Engine: eng, Chain: chain})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// buildTestDraft builds a one-output draft against the session's engine at
// 1 sat/byte.
func buildTestDraft(t *testing.T, s *Session, amount uint64) *Draft {
	t.Helper()
	d, err := s.BuildDraft(&BuildRequest{
		Outputs:   []*tx.XTxOutput{{Amount: amount, LockingScript: testScript(t)}},
		FeePolicy: &tx.FeePolicy{RatePerKB: 1000},
	})
	require.NoError(t, err)
	return d
}

// signDraft runs the signing task to completion and requires success.
func signDraft(t *testing.T, s *Session, d *Draft) *SignResult {
	t.Helper()
	ch := make(chan *SignResult, 1)
	require.NoError(t, s.SignAsync(d.ID(), testPassword, func(r *SignResult) { ch <- r }))
	res := waitSign(t, ch)
	require.NoError(t, res.Err)
	require.Equal(t, StateSigned, d.State())
	return res
}

// waitSign blocks until the sign callback fires or the test times out.
func waitSign(t *testing.T, ch <-chan *SignResult) *SignResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sign result")
		return nil
	}
}

// waitBroadcast blocks until the broadcast callback fires or the test
// times out.
func waitBroadcast(t *testing.T, ch <-chan *BroadcastResult) *BroadcastResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for broadcast result")
		return nil
	}
}

// waitEvent receives from ch until an event of the wanted type arrives,
// discarding others along the way.
func waitEvent(t *testing.T, ch <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == want {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
			return Event{}
		}
	}
}
