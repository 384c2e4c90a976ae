package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	script "github.com/bsv-blockchain/go-sdk/script"
	transaction "github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/cobaltwallet/libcobalt-go/tx"
)

// Account is the spending engine over one BIP44 account. It tracks the
// account's UTXO set, freeze and pin marks, transaction labels, and the
// persisted state flags of its own transactions. Address derivation uses
// the in-memory keystore; signing always goes through the encrypted seed.
//
// All methods are safe for concurrent use.
type Account struct {
	mu            sync.Mutex
	wallet        *Wallet
	network       *NetworkConfig
	encryptedSeed []byte
	states        *TxStateStore

	coins  map[string]*tx.UTXO // by outpoint
	pinned map[string]bool     // outpoints marked for explicit spending
	labels map[string]string   // txid hex -> label

	nextReceive uint32
	nextChange  uint32
}

// NewAccount creates an account over a keystore.
//
// encryptedSeed is the EncryptSeed output gating SignTransaction; when nil
// and w is non-nil the account signs from the in-memory keystore without a
// password. states may be nil for accounts that do not persist transaction
// state (CPFP and broadcast flag tracking are then unavailable).
func NewAccount(w *Wallet, encryptedSeed []byte, states *TxStateStore) *Account {
	network := &MainNet
	if w != nil {
		network = w.Network()
	}
	return &Account{
		wallet:        w,
		network:       network,
		encryptedSeed: encryptedSeed,
		states:        states,
		coins:         make(map[string]*tx.UTXO),
		pinned:        make(map[string]bool),
		labels:        make(map[string]string),
	}
}

// OpenAccount derives a wallet from mnemonic + passphrase, encrypts the
// seed under password, and opens the transaction state store at statePath.
// An empty statePath skips state persistence.
func OpenAccount(mnemonic, passphrase, password string, network *NetworkConfig, statePath string) (*Account, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}

	w, err := NewWallet(seed, network)
	if err != nil {
		return nil, err
	}

	encrypted, err := EncryptSeed(seed, password)
	if err != nil {
		return nil, err
	}

	var states *TxStateStore
	if statePath != "" {
		states, err = OpenTxStateStore(statePath)
		if err != nil {
			return nil, err
		}
	}

	return NewAccount(w, encrypted, states), nil
}

// Close releases the account's state store, if any.
func (a *Account) Close() error {
	a.mu.Lock()
	states := a.states
	a.states = nil
	a.mu.Unlock()

	if states == nil {
		return nil
	}
	return states.Close()
}

// ---------------------------------------------------------------------------
// Coin set
// ---------------------------------------------------------------------------

// AddCoin registers an unspent output with the account.
func (a *Account) AddCoin(c *tx.UTXO) error {
	if c == nil {
		return fmt.Errorf("%w: coin", ErrNilParam)
	}
	if len(c.TxID) != 32 {
		return ErrInvalidTxID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	op := c.Outpoint()
	if _, ok := a.coins[op]; ok {
		return fmt.Errorf("%w: %s", ErrCoinExists, op)
	}
	a.coins[op] = c.Clone()
	return nil
}

// RemoveCoin drops an outpoint from the account, e.g. once spent.
func (a *Account) RemoveCoin(outpoint string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.coins[outpoint]; !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotFound, outpoint)
	}
	delete(a.coins, outpoint)
	delete(a.pinned, outpoint)
	return nil
}

// FreezeCoin excludes an outpoint from automatic coin selection.
func (a *Account) FreezeCoin(outpoint string) error {
	return a.setFrozen(outpoint, true)
}

// UnfreezeCoin returns a frozen outpoint to the spendable set.
func (a *Account) UnfreezeCoin(outpoint string) error {
	return a.setFrozen(outpoint, false)
}

func (a *Account) setFrozen(outpoint string, frozen bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.coins[outpoint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotFound, outpoint)
	}
	c.Frozen = frozen
	return nil
}

// PinCoin marks an outpoint for explicit spending. Pinned coins are handed
// to the selector ahead of the spendable snapshot and bypass the frozen
// filter.
func (a *Account) PinCoin(outpoint string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.coins[outpoint]; !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotFound, outpoint)
	}
	a.pinned[outpoint] = true
	return nil
}

// UnpinCoin clears the explicit-spend mark from an outpoint.
func (a *Account) UnpinCoin(outpoint string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.coins[outpoint]; !ok {
		return fmt.Errorf("%w: %s", ErrCoinNotFound, outpoint)
	}
	delete(a.pinned, outpoint)
	return nil
}

// PinnedCoins returns copies of all pinned coins in outpoint order.
func (a *Account) PinnedCoins() []*tx.UTXO {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*tx.UTXO
	for op := range a.pinned {
		if c, ok := a.coins[op]; ok {
			out = append(out, c.Clone())
		}
	}
	sortCoins(out)
	return out
}

// Balance returns the total satoshi value of all registered coins,
// frozen included.
func (a *Account) Balance() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total uint64
	for _, c := range a.coins {
		total += c.Amount
	}
	return total
}

// SpendableCoins snapshots the account's UTXO set under the given
// constraints. Returned coins are copies in deterministic outpoint order;
// mutating them does not touch account state.
func (a *Account) SpendableCoins(cc tx.CoinConstraints) []*tx.UTXO {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*tx.UTXO
	for _, c := range a.coins {
		if cc.ExcludeFrozen && c.Frozen {
			continue
		}
		if cc.ConfirmedOnly && !c.Confirmed() {
			continue
		}
		out = append(out, c.Clone())
	}
	sortCoins(out)
	return out
}

// sortCoins orders coins by outpoint for deterministic builds.
func sortCoins(coins []*tx.UTXO) {
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Outpoint() < coins[j].Outpoint()
	})
}

// ---------------------------------------------------------------------------
// Addresses
// ---------------------------------------------------------------------------

// ReceiveAddress returns the address at the given receive chain index.
func (a *Account) ReceiveAddress(index uint32) (string, error) {
	if a.wallet == nil {
		return "", ErrWatchOnly
	}
	kp, err := a.wallet.ReceiveKey(index)
	if err != nil {
		return "", err
	}
	return a.wallet.Address(kp)
}

// NextReceiveAddress returns the next unused receive address and advances
// the receive index.
func (a *Account) NextReceiveAddress() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.wallet == nil {
		return "", ErrWatchOnly
	}
	kp, err := a.wallet.ReceiveKey(a.nextReceive)
	if err != nil {
		return "", err
	}
	addr, err := a.wallet.Address(kp)
	if err != nil {
		return "", err
	}
	a.nextReceive++
	return addr, nil
}

// ChangeScript derives the locking script at the current change index.
// The index is not advanced; builds stay idempotent until the caller
// commits a transaction and calls AdvanceChangeIndex.
func (a *Account) ChangeScript() (*script.Script, error) {
	a.mu.Lock()
	idx := a.nextChange
	a.mu.Unlock()

	if a.wallet == nil {
		return nil, ErrWatchOnly
	}
	kp, err := a.wallet.ChangeKey(idx)
	if err != nil {
		return nil, err
	}
	scriptBytes, err := tx.BuildP2PKHScript(kp.PublicKey)
	if err != nil {
		return nil, err
	}
	return script.NewFromBytes(scriptBytes), nil
}

// AdvanceChangeIndex moves the change chain forward once a change output
// has been committed, and returns the new index.
func (a *Account) AdvanceChangeIndex() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextChange++
	return a.nextChange
}

// ---------------------------------------------------------------------------
// Building and signing
// ---------------------------------------------------------------------------

// MakeUnsigned builds an unsigned payment from the given parameters,
// deriving a change script at the current change index when the caller
// supplies none. Account state is never mutated.
func (a *Account) MakeUnsigned(p *tx.PaymentParams) (*tx.Payment, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: payment params", ErrNilParam)
	}

	params := *p
	if params.ChangeScript == nil && a.wallet != nil {
		cs, err := a.ChangeScript()
		if err != nil {
			return nil, err
		}
		params.ChangeScript = cs
	}

	return tx.BuildPayment(&params)
}

// SignTransaction signs sdkTx against the coins it spends and returns the
// raw transaction hex.
//
// When the account carries an encrypted seed the password is always
// verified, and keys for coins without an attached signing key are derived
// from the decrypted seed along each coin's KeyPath. A wrong password
// returns ErrDecryptionFailed. On success the transaction is recorded in
// the state store with FlagSigned and its raw bytes.
func (a *Account) SignTransaction(sdkTx *transaction.Transaction, coins []*tx.UTXO, password string) (string, error) {
	if sdkTx == nil {
		return "", fmt.Errorf("%w: transaction", ErrNilParam)
	}

	a.mu.Lock()
	enc := a.encryptedSeed
	w := a.wallet
	network := a.network
	states := a.states
	a.mu.Unlock()

	keyed := make([]*tx.UTXO, len(coins))
	needSeed := false
	for i, c := range coins {
		if c == nil {
			return "", fmt.Errorf("%w: coin %d", ErrNilParam, i)
		}
		keyed[i] = c.Clone()
		if keyed[i].PrivateKey == nil {
			needSeed = true
		}
	}

	// Resolve the signing keystore. An encrypted seed always gates on the
	// password, even when every coin already carries its key.
	var signer *Wallet
	switch {
	case len(enc) > 0:
		seed, err := DecryptSeed(enc, password)
		if err != nil {
			return "", err
		}
		signer, err = NewWallet(seed, network)
		if err != nil {
			return "", err
		}
	case w != nil:
		signer = w
	default:
		if needSeed {
			return "", ErrWatchOnly
		}
	}

	for _, c := range keyed {
		if c.PrivateKey != nil {
			continue
		}
		account, chain, index, err := parseKeyPath(c.KeyPath)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrNoKeyForCoin, c.KeyPath)
		}
		kp, err := signer.DeriveKey(account, chain, index)
		if err != nil {
			return "", err
		}
		c.PrivateKey = kp.PrivateKey
	}

	rawHex, err := tx.SignPayment(sdkTx, keyed)
	if err != nil {
		return "", err
	}

	if states != nil {
		txID := sdkTx.TxID().CloneBytes()
		if err := states.Track(txID, sdkTx.Bytes(), FlagSigned); err != nil {
			return "", fmt.Errorf("wallet: record signed transaction: %w", err)
		}
	}

	return rawHex, nil
}

// parseKeyPath extracts the account, chain and address index from the
// trailing components of a derivation path such as "m/44'/236'/0'/1/7".
func parseKeyPath(path string) (account, chain, index uint32, err error) {
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("wallet: derivation path too short: %q", path)
	}

	acctStr := parts[len(parts)-3]
	if !strings.HasSuffix(acctStr, "'") {
		return 0, 0, 0, fmt.Errorf("wallet: account component not hardened: %q", path)
	}
	acct, err := strconv.ParseUint(strings.TrimSuffix(acctStr, "'"), 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wallet: bad account component: %q", path)
	}

	ch, err := strconv.ParseUint(parts[len(parts)-2], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wallet: bad chain component: %q", path)
	}

	idx, err := strconv.ParseUint(parts[len(parts)-1], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wallet: bad index component: %q", path)
	}

	return uint32(acct), uint32(ch), uint32(idx), nil
}

// ---------------------------------------------------------------------------
// Transaction state, labels, CPFP
// ---------------------------------------------------------------------------

// SetTransactionState merges state flags into a tracked transaction.
// Flags only accumulate; re-dispatching an already dispatched transaction
// is a no-op rather than a regression. Returns ErrTxNotTracked for
// transactions the account has never signed or tracked.
func (a *Account) SetTransactionState(txID []byte, flags TxFlags) error {
	if len(txID) != 32 {
		return ErrInvalidTxID
	}

	a.mu.Lock()
	states := a.states
	a.mu.Unlock()

	if states == nil {
		return ErrNoStateStore
	}
	_, err := states.MergeFlags(txID, flags)
	return err
}

// TransactionState returns the accumulated flags of a tracked transaction.
func (a *Account) TransactionState(txID []byte) (TxFlags, error) {
	if len(txID) != 32 {
		return 0, ErrInvalidTxID
	}

	a.mu.Lock()
	states := a.states
	a.mu.Unlock()

	if states == nil {
		return 0, ErrNoStateStore
	}
	rec, err := states.Get(txID)
	if err != nil {
		return 0, err
	}
	return rec.Flags, nil
}

// TrackTransaction records a transaction the account should follow, with
// optional raw bytes. Used for restoring state and for parents received
// out of band.
func (a *Account) TrackTransaction(txID, raw []byte, flags TxFlags) error {
	a.mu.Lock()
	states := a.states
	a.mu.Unlock()

	if states == nil {
		return ErrNoStateStore
	}
	return states.Track(txID, raw, flags)
}

// SetLabel attaches a human-readable label to a transaction. The label is
// kept in memory and persisted onto the state record when the transaction
// is tracked.
func (a *Account) SetLabel(txID []byte, label string) error {
	if len(txID) != 32 {
		return ErrInvalidTxID
	}

	a.mu.Lock()
	a.labels[hex.EncodeToString(txID)] = label
	states := a.states
	a.mu.Unlock()

	if states != nil {
		if err := states.SetLabel(txID, label); err != nil && !errors.Is(err, ErrTxNotTracked) {
			return err
		}
	}
	return nil
}

// Label returns the label attached to a transaction, or "".
func (a *Account) Label(txID []byte) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.labels[hex.EncodeToString(txID)]
}

// CPFPCandidate returns the parent transaction's unconfirmed change output
// and the parent's raw size when a fee bump is still possible. The coin is
// a copy. A nil coin means the parent is confirmed, unknown to the account,
// or its change output is no longer spendable.
func (a *Account) CPFPCandidate(parentTxID []byte) (*tx.UTXO, int) {
	if len(parentTxID) != 32 {
		return nil, 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.states == nil {
		return nil, 0
	}
	rec, err := a.states.Get(parentTxID)
	if err != nil || len(rec.Raw) == 0 {
		return nil, 0
	}
	if rec.Flags.Has(FlagSettled) {
		return nil, 0
	}

	var candidates []*tx.UTXO
	for _, c := range a.coins {
		if !bytes.Equal(c.TxID, parentTxID) {
			continue
		}
		if !c.FromSelf || c.Confirmed() || c.Frozen {
			continue
		}
		candidates = append(candidates, c.Clone())
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Vout < candidates[j].Vout
	})
	return candidates[0], len(rec.Raw)
}
