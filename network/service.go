package network

import "context"

// Broadcaster submits transactions to the network. It is the narrow
// dependency the spend pipeline takes: implementations compute the txid
// locally, push the raw transaction, and block until the node reports it
// in its mempool or a block.
type Broadcaster interface {
	// BroadcastAndWait submits a raw transaction hex and waits until the
	// node accepts it. It returns the txid the transaction is known by.
	BroadcastAndWait(ctx context.Context, rawTxHex string) (string, error)
}

// BlockchainService is the primary interface for blockchain interaction.
// It extends Broadcaster with the queries a wallet needs to discover coins
// and follow its transactions.
type BlockchainService interface {
	Broadcaster

	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// GetUTXO returns a specific unspent transaction output by txid and output index.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetRawTx returns the raw transaction bytes for the given txid.
	GetRawTx(ctx context.Context, txid string) ([]byte, error)

	// GetTxStatus returns the confirmation status of a transaction.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)

	// GetBestBlockHeight returns the height of the current chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)
}

// UTXO represents an unspent transaction output as reported by a node.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TxStatus represents the confirmation status of a transaction.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHash   string `json:"block_hash"`
	BlockHeight uint64 `json:"block_height"`
	TxIndex     int    `json:"tx_index"`
}
