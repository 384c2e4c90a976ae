package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// SignPayment signs all inputs of an unsigned payment transaction using the
// private keys carried by the coins it spends.
//
// The coins slice must have the same length as the number of transaction
// inputs, and each coin must carry a non-nil PrivateKey and ScriptPubKey.
// Coins are matched to inputs by position (coins[i] signs input i).
// Signing mutates the transaction's input scripts in place; callers must
// not sign the same transaction concurrently.
//
// Returns the signed transaction hex.
func SignPayment(sdkTx *transaction.Transaction, coins []*UTXO) (string, error) {
	if sdkTx == nil {
		return "", fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if len(coins) == 0 {
		return "", fmt.Errorf("%w: coins", ErrNilParam)
	}
	if len(coins) != len(sdkTx.Inputs) {
		return "", fmt.Errorf("%w: have %d coins but tx has %d inputs",
			ErrSigningFailed, len(coins), len(sdkTx.Inputs))
	}

	// For each input, attach source output info and a P2PKH unlocker.
	for i, coin := range coins {
		if coin == nil {
			return "", fmt.Errorf("%w: coin[%d] is nil", ErrNilParam, i)
		}
		if coin.PrivateKey == nil {
			return "", fmt.Errorf("%w: coin[%d] has nil PrivateKey", ErrSigningFailed, i)
		}
		if len(coin.ScriptPubKey) == 0 {
			return "", fmt.Errorf("%w: coin[%d] has empty ScriptPubKey", ErrSigningFailed, i)
		}

		unlocker, err := p2pkh.Unlock(coin.PrivateKey, nil)
		if err != nil {
			return "", fmt.Errorf("%w: failed to create unlocker for input %d: %w",
				ErrSigningFailed, i, err)
		}

		// Attach the source output information so the sighash can be computed.
		lockingScript := script.NewFromBytes(coin.ScriptPubKey)
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      coin.Amount,
			LockingScript: lockingScript,
		})

		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	if err := sdkTx.Sign(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	return sdkTx.Hex(), nil
}

// FullySigned reports whether every input carries an unlocking script.
func FullySigned(sdkTx *transaction.Transaction) bool {
	if sdkTx == nil || len(sdkTx.Inputs) == 0 {
		return false
	}
	for _, in := range sdkTx.Inputs {
		if in.UnlockingScript == nil || len(*in.UnlockingScript) == 0 {
			return false
		}
	}
	return true
}

// BuildP2PKHScript creates a P2PKH locking script for the given public key.
// Returns the raw script bytes suitable for use as UTXO.ScriptPubKey.
func BuildP2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pubKey, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock script: %w", ErrScriptBuild, err)
	}
	return []byte(*lockScript), nil
}

// BuildP2PKHScriptFromAddress creates a P2PKH locking script for a base58
// address string.
func BuildP2PKHScriptFromAddress(address string) (*script.Script, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address", ErrNilParam)
	}
	addr, err := script.NewAddressFromString(address)
	if err != nil {
		return nil, fmt.Errorf("%w: address %q: %w", ErrScriptBuild, address, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock script: %w", ErrScriptBuild, err)
	}
	return lockScript, nil
}

// BuildP2PKHOutput creates a TransactionOutput with a P2PKH locking script
// for the given public key hash (20 bytes) and satoshi amount.
func BuildP2PKHOutput(pubKeyHash []byte, satoshis uint64) (*transaction.TransactionOutput, error) {
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return &transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: lockScript,
	}, nil
}
