package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInsufficientFunds indicates the selected coins cannot cover the
	// outputs plus the fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrExcessiveFee indicates the fee's implied rate exceeds the
	// configured maximum allowed rate.
	ErrExcessiveFee = errors.New("tx: fee exceeds maximum allowed rate")

	// ErrBuildFailure indicates a construction fault: zero outputs,
	// an unresolved output amount, or a malformed script.
	ErrBuildFailure = errors.New("tx: transaction build failed")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrInvalidTxID indicates a transaction ID is not 32 bytes.
	ErrInvalidTxID = errors.New("tx: txid must be 32 bytes")
)
