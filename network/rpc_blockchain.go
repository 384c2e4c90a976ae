package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Compile-time interface check.
var _ BlockchainService = (*RPCClient)(nil)

// defaultAcceptPoll is how often BroadcastAndWait re-queries the node for
// a just-broadcast transaction when no poll interval is configured.
const defaultAcceptPoll = 500 * time.Millisecond

// btcToSat converts a BTC float64 amount (as returned by the RPC node) to satoshis.
// It uses math.Round to avoid floating-point truncation issues.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

// LocalTxID computes the txid of a raw transaction hex without contacting
// the node. The id is returned in the conventional display (reversed hex)
// order, matching what sendrawtransaction reports.
func LocalTxID(rawTxHex string) (string, error) {
	parsed, err := transaction.NewTransactionFromHex(rawTxHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRawTx, err)
	}
	return parsed.TxID().String(), nil
}

// listUnspentResult maps the JSON fields returned by the Bitcoin RPC listunspent call.
type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent returns all unspent transaction outputs for the given address.
// It calls `listunspent 0 9999999 ["address"]` and converts BTC amounts to satoshis.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// gettxoutResult maps the JSON fields returned by the Bitcoin RPC gettxout call.
// The pointer type allows detecting JSON null (spent output) vs present result.
type gettxoutResult struct {
	Value         float64 `json:"value"`
	Confirmations int64   `json:"confirmations"`
	ScriptPubKey  struct {
		Hex       string   `json:"hex"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

// GetUTXO returns a specific unspent transaction output by txid and output index.
// It calls `gettxout "txid" vout`. When the output is spent, gettxout returns JSON null,
// which is detected and returned as ErrTxNotFound.
func (c *RPCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	params := []interface{}{txid, vout}
	var result *gettxoutResult
	if err := c.Call(ctx, "gettxout", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: output %s:%d is spent", ErrTxNotFound, txid, vout)
	}

	utxo := &UTXO{
		TxID:          txid,
		Vout:          vout,
		Amount:        btcToSat(result.Value),
		ScriptPubKey:  result.ScriptPubKey.Hex,
		Confirmations: result.Confirmations,
	}
	if len(result.ScriptPubKey.Addresses) > 0 {
		utxo.Address = result.ScriptPubKey.Addresses[0]
	}
	return utxo, nil
}

// BroadcastTx submits a raw transaction hex to the network and returns the txid.
// It calls `sendrawtransaction "hex"`. RPC errors are wrapped with ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	params := []interface{}{rawTxHex}
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", params, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	return txid, nil
}

// BroadcastAndWait submits a raw transaction and blocks until the node
// reports it, polling getrawtransaction on the configured interval. The
// caller bounds the total wait through ctx; an expired ctx surfaces as
// ErrBroadcastTimeout.
//
// A rejection because the transaction is already in the mempool or a block
// is treated as a successful broadcast, since the goal of the call is for
// the network to know the transaction. The returned txid always matches
// the locally computed one; a node reporting a different id is an
// ErrBroadcastMismatch.
func (c *RPCClient) BroadcastAndWait(ctx context.Context, rawTxHex string) (string, error) {
	local, err := LocalTxID(rawTxHex)
	if err != nil {
		return "", err
	}

	log.Debugf("broadcasting tx %s (%d bytes)", local, len(rawTxHex)/2)

	reported, err := c.BroadcastTx(ctx, rawTxHex)
	if err != nil {
		if ClassifyBroadcastError(err) != ReasonDuplicate {
			return "", err
		}
		log.Infof("tx %s already known to the network, treating as accepted", local)
		reported = local
	}
	if reported != local {
		return "", fmt.Errorf("%w: sent %s, node reported %s", ErrBroadcastMismatch, local, reported)
	}

	if err := c.waitForAcceptance(ctx, local); err != nil {
		return "", err
	}
	log.Debugf("tx %s accepted by the network", local)
	return local, nil
}

// waitForAcceptance polls the node until the transaction is visible or ctx
// expires. Lookup failures while polling are expected (the node may not
// serve the transaction immediately) and only surface if the deadline hits.
func (c *RPCClient) waitForAcceptance(ctx context.Context, txid string) error {
	ticker := time.NewTicker(c.pollWait)
	defer ticker.Stop()

	var lastErr error
	for {
		if _, err := c.GetRawTx(ctx, txid); err == nil {
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%w: %s: %v", ErrBroadcastTimeout, txid, lastErr)
			}
			return fmt.Errorf("%w: %s", ErrBroadcastTimeout, txid)
		case <-ticker.C:
		}
	}
}

// GetRawTx returns the raw transaction bytes for the given txid.
// It calls `getrawtransaction "txid" false` (non-verbose) to get the hex-encoded
// transaction and decodes it to bytes.
func (c *RPCClient) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	params := []interface{}{txid, false}
	var rawHex string
	if err := c.Call(ctx, "getrawtransaction", params, &rawHex); err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx hex: %v", ErrInvalidResponse, err)
	}
	return data, nil
}

// verboseTxResult maps the JSON fields from getrawtransaction with verbose=true.
type verboseTxResult struct {
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint64 `json:"blockheight"`
}

// GetTxStatus returns the confirmation status of a transaction.
// It calls `getrawtransaction "txid" true` (verbose mode) to get confirmation info.
func (c *RPCClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	params := []interface{}{txid, true}
	var result verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", params, &result); err != nil {
		return nil, err
	}
	return &TxStatus{
		Confirmed:   result.Confirmations > 0,
		BlockHash:   result.BlockHash,
		BlockHeight: result.BlockHeight,
	}, nil
}

// GetBestBlockHeight returns the height of the current chain tip.
// It calls `getblockcount` which returns an integer block height.
func (c *RPCClient) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	params := []interface{}{}
	var raw json.RawMessage
	if err := c.Call(ctx, "getblockcount", params, &raw); err != nil {
		return 0, err
	}
	// getblockcount returns an integer, but JSON numbers are float64.
	var height float64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("%w: invalid block height: %v", ErrInvalidResponse, err)
	}
	return uint64(height), nil
}
