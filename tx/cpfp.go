package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ChildTxSize is the estimated size of a CPFP child transaction:
// one P2PKH input respending the parent's output, one P2PKH output
// returning the value to the wallet.
const ChildTxSize = txOverhead + P2PKHInputSize + P2PKHOutputSize

// ProposeChildFee sizes a CPFP child's fee so that the target rate covers
// the whole package: fee = ratePerKB * (parentSize + childSize) / 1000,
// with the same ceiling rounding as EstimateFee. Miners evaluating the
// child see the combined fee over the combined size.
func ProposeChildFee(parentSizeBytes int, ratePerKB uint64) uint64 {
	return EstimateFee(parentSizeBytes+ChildTxSize, ratePerKB)
}

// ChildParams describes a CPFP child transaction: the parent output being
// reclaimed and the script the remaining value returns to.
type ChildParams struct {
	Parent       *UTXO          // the parent's own output to respend
	Fee          uint64         // total fee carried by the child
	ReturnScript *script.Script // pays the reclaimed value back to the wallet
}

// BuildChild constructs an unsigned CPFP child spending exactly the
// parent's reclaimable output back to the wallet.
//
// The fee may not exceed the value being reclaimed; that value is the
// only input, so it bounds what the child can pay. Fee equal to the value
// is the documented zero-edge case: the build succeeds and the child
// carries a single zero-value output.
func BuildChild(params *ChildParams) (*transaction.Transaction, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	if params.Parent == nil {
		return nil, fmt.Errorf("%w: parent output", ErrNilParam)
	}
	if params.ReturnScript == nil || len(*params.ReturnScript) == 0 {
		return nil, fmt.Errorf("%w: return script", ErrNilParam)
	}
	if len(params.Parent.TxID) != TxIDLen {
		return nil, fmt.Errorf("%w: parent output", ErrInvalidTxID)
	}

	if params.Fee > params.Parent.Amount {
		return nil, fmt.Errorf("%w: fee %d exceeds reclaimable value %d",
			ErrExcessiveFee, params.Fee, params.Parent.Amount)
	}

	parentHash, err := chainhash.NewHash(params.Parent.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: parent txid: %w", ErrBuildFailure, err)
	}

	sdkTx := transaction.NewTransaction()
	sdkTx.AddInput(&transaction.TransactionInput{
		SourceTXID:       parentHash,
		SourceTxOutIndex: params.Parent.Vout,
		SequenceNumber:   transaction.DefaultSequenceNumber,
	})
	sdkTx.Outputs = append(sdkTx.Outputs, &transaction.TransactionOutput{
		Satoshis:      params.Parent.Amount - params.Fee,
		LockingScript: params.ReturnScript,
	})

	return sdkTx, nil
}
