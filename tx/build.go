package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Sentinel amounts for XTxOutput. Both exceed the total satoshi supply, so
// they can never collide with a real value.
const (
	// AllAvailable marks the max-send output: it absorbs everything left
	// over after the fee. At most one output per build may carry it.
	AllAvailable = uint64(1<<64 - 1)

	// AmountUnset marks an output whose amount was never resolved by the
	// caller. Builds reject it outright.
	AmountUnset = uint64(1<<64 - 2)
)

// XTxOutput is a declared payment output: an amount paired with a locking
// script. The amount may be a concrete satoshi value, AllAvailable, or
// AmountUnset.
type XTxOutput struct {
	Amount        uint64
	LockingScript *script.Script
}

// PaymentParams holds everything needed to assemble an unsigned payment.
type PaymentParams struct {
	Coins        []*UTXO        // inputs, spent in the order given
	Outputs      []*XTxOutput   // payment outputs, in the order given
	FeePolicy    FeePolicy      // per-KB rate or pinned total
	MaxRatePerKB uint64         // fee ceiling; 0 means DefaultMaxFeeRate
	DustLimit    uint64         // minimum change; 0 means DustLimit
	ChangeScript *script.Script // pays change back to the wallet
}

// Payment wraps a built unsigned transaction with its resolved amounts.
type Payment struct {
	Tx  *transaction.Transaction
	Fee uint64

	// Size is the estimated size the fee was computed from.
	Size int

	// ChangeVout is the change output index, or -1 when change was below
	// dust and folded into the fee (or max-send mode absorbed it).
	ChangeVout  int
	ChangeValue uint64

	// MaxValue is the resolved amount of the AllAvailable output, or 0
	// when the build had none.
	MaxValue uint64

	// FeeBelowFloor is set when the fee is under ~0.5 sat/byte. The
	// transaction is valid; callers should warn before proceeding.
	FeeBelowFloor bool
}

// BuildPayment assembles an unsigned transaction from the given coins and
// outputs. It is a pure function of its parameters: building twice with
// identical inputs yields structurally identical transactions, and the
// coin set is never mutated.
//
// Failure modes: ErrBuildFailure for construction faults (no outputs, an
// unset amount, more than one max-send output, bad scripts),
// ErrInsufficientFunds when the coins cannot cover outputs plus fee, and
// ErrExcessiveFee when the final fee's implied rate breaches the ceiling.
func BuildPayment(params *PaymentParams) (*Payment, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	if len(params.Coins) == 0 {
		return nil, fmt.Errorf("%w: no coins selected", ErrInsufficientFunds)
	}
	if len(params.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrBuildFailure)
	}

	dust := params.DustLimit
	if dust == 0 {
		dust = DustLimit
	}

	// Validate outputs and locate the max-send output, if any.
	maxIdx := -1
	var fixedTotal uint64
	for i, out := range params.Outputs {
		if out == nil {
			return nil, fmt.Errorf("%w: output %d is nil", ErrBuildFailure, i)
		}
		if out.LockingScript == nil || len(*out.LockingScript) == 0 {
			return nil, fmt.Errorf("%w: output %d has no locking script", ErrBuildFailure, i)
		}
		switch out.Amount {
		case AmountUnset:
			return nil, fmt.Errorf("%w: output %d amount unset", ErrBuildFailure, i)
		case AllAvailable:
			if maxIdx >= 0 {
				return nil, fmt.Errorf("%w: more than one max-send output", ErrBuildFailure)
			}
			maxIdx = i
		default:
			fixedTotal += out.Amount
		}
	}

	for i, coin := range params.Coins {
		if coin == nil {
			return nil, fmt.Errorf("%w: coin %d is nil", ErrNilParam, i)
		}
		if len(coin.TxID) != TxIDLen {
			return nil, fmt.Errorf("%w: coin %d", ErrInvalidTxID, i)
		}
	}

	inputTotal := SumAmounts(params.Coins)

	// Size and fee. In max-send mode the variable output doubles as the
	// change sink, so no extra change output enters the estimate.
	var size int
	if maxIdx >= 0 {
		size = EstimateTxSize(len(params.Coins), len(params.Outputs))
	} else {
		size = EstimateTxSize(len(params.Coins), len(params.Outputs)+1)
	}
	fee := params.FeePolicy.FeeFor(size)

	// Resolve amounts. Below-dust change folds into the fee before the
	// ceiling check, so the checked fee is the one the transaction pays.
	var maxValue, changeValue uint64
	withChange := false
	if maxIdx >= 0 {
		spent := fixedTotal + fee
		if inputTotal <= spent {
			return nil, fmt.Errorf("%w: need more than %d sat, have %d sat",
				ErrInsufficientFunds, spent, inputTotal)
		}
		maxValue = inputTotal - spent
	} else {
		needed := fixedTotal + fee
		if inputTotal < needed {
			return nil, fmt.Errorf("%w: need %d sat, have %d sat",
				ErrInsufficientFunds, needed, inputTotal)
		}
		changeValue = inputTotal - needed
		if changeValue >= dust {
			withChange = true
		} else {
			fee += changeValue
			changeValue = 0
		}
	}

	if err := CheckFeeCeiling(fee, size, params.MaxRatePerKB); err != nil {
		return nil, err
	}

	// Assemble the go-sdk transaction.
	sdkTx := transaction.NewTransaction()

	for i, coin := range params.Coins {
		prevHash, err := chainhash.NewHash(coin.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: coin %d txid: %w", ErrBuildFailure, i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       prevHash,
			SourceTxOutIndex: coin.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	for i, out := range params.Outputs {
		amount := out.Amount
		if i == maxIdx {
			amount = maxValue
		}
		sdkTx.Outputs = append(sdkTx.Outputs, &transaction.TransactionOutput{
			Satoshis:      amount,
			LockingScript: out.LockingScript,
		})
	}

	changeVout := -1
	if withChange {
		if params.ChangeScript == nil || len(*params.ChangeScript) == 0 {
			return nil, fmt.Errorf("%w: change needed but no change script", ErrBuildFailure)
		}
		changeVout = len(sdkTx.Outputs)
		sdkTx.Outputs = append(sdkTx.Outputs, &transaction.TransactionOutput{
			Satoshis:      changeValue,
			LockingScript: params.ChangeScript,
		})
	}

	return &Payment{
		Tx:            sdkTx,
		Fee:           fee,
		Size:          size,
		ChangeVout:    changeVout,
		ChangeValue:   changeValue,
		MaxValue:      maxValue,
		FeeBelowFloor: FeeBelowFloor(fee, size),
	}, nil
}
