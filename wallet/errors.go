package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrIndexOutOfRange indicates an address index exceeds BIP32 non-hardened max.
	ErrIndexOutOfRange = errors.New("wallet: address index exceeds maximum (2^31-1)")

	// ErrDecryptionFailed indicates wrong password or corrupted wallet data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrInvalidNetwork indicates unknown network name with no custom config.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("wallet: nil parameter")

	// ErrCoinExists indicates the outpoint is already registered with the account.
	ErrCoinExists = errors.New("wallet: coin already registered")

	// ErrCoinNotFound indicates the outpoint is not registered with the account.
	ErrCoinNotFound = errors.New("wallet: coin not found")

	// ErrNoKeyForCoin indicates a coin carries neither a signing key nor a
	// derivation path the keystore can resolve.
	ErrNoKeyForCoin = errors.New("wallet: no signing key for coin")

	// ErrWatchOnly indicates the account has no encrypted seed to sign with.
	ErrWatchOnly = errors.New("wallet: account is watch-only")

	// ErrTxNotTracked indicates the transaction is not in the account's state store.
	ErrTxNotTracked = errors.New("wallet: transaction not tracked")

	// ErrInvalidTxID indicates a transaction id is not 32 bytes.
	ErrInvalidTxID = errors.New("wallet: txid must be 32 bytes")

	// ErrNoStateStore indicates the account was opened without a state store.
	ErrNoStateStore = errors.New("wallet: no transaction state store")
)
