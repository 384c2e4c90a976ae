package tx

const (
	// DustLimit is the minimum P2PKH output value in satoshis; change
	// below it folds into the fee.
	DustLimit = uint64(546)

	// DefaultFeeRate is the default fee rate in sat/KB.
	DefaultFeeRate = uint64(500)

	// DefaultMaxFeeRate is the default ceiling rate in sat/KB (50 sat/byte).
	// Fees implying a higher rate are rejected before signing.
	DefaultMaxFeeRate = uint64(50000)

	// TxIDLen is the length of a transaction ID.
	TxIDLen = 32

	// P2PKHInputSize is the estimated serialized size of one P2PKH input:
	// prevout (32+4) + script length (1) + scriptSig (106, assuming a
	// 71-byte DER signature and compressed pubkey) + sequence (4).
	P2PKHInputSize = 147

	// P2PKHOutputSize is the serialized size of one P2PKH output:
	// value (8) + script length (1) + script (25).
	P2PKHOutputSize = 34

	// txOverhead is version (4) + locktime (4) + the two count varints.
	txOverhead = 10
)

// EstimateFee estimates the transaction fee for a given size and fee rate.
// Returns ceil(txSizeBytes * feeRate / 1000).
func EstimateFee(txSizeBytes int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	fee := uint64(txSizeBytes) * feeRate
	// Ceiling division by 1000
	return (fee + 999) / 1000
}

// EstimateTxSize estimates the serialized size in bytes of a transaction
// with the given number of P2PKH inputs and outputs.
func EstimateTxSize(numInputs, numOutputs int) int {
	return txOverhead + numInputs*P2PKHInputSize + numOutputs*P2PKHOutputSize
}

// CheckFeeCeiling returns ErrExcessiveFee when fee's implied rate over
// txSizeBytes exceeds maxRatePerKB. A zero maxRatePerKB means
// DefaultMaxFeeRate.
func CheckFeeCeiling(fee uint64, txSizeBytes int, maxRatePerKB uint64) error {
	if maxRatePerKB == 0 {
		maxRatePerKB = DefaultMaxFeeRate
	}
	if fee*1000 > uint64(txSizeBytes)*maxRatePerKB {
		return ErrExcessiveFee
	}
	return nil
}

// FeeBelowFloor reports whether fee is under half a satoshi per byte for
// the given size. That fee is relayable but may confirm slowly; callers
// surface a warning and let the user decide. The threshold is the ceiling
// of size/2, so a fee exactly at half size is clean.
func FeeBelowFloor(fee uint64, txSizeBytes int) bool {
	return fee < uint64(txSizeBytes+1)/2
}

// FeePolicy selects how the fee for a build is determined: a per-kilobyte
// rate, or a manually pinned total. A pinned fee survives rebuilds until
// Reset is called, so edits to outputs never silently recompute it.
type FeePolicy struct {
	RatePerKB uint64

	manual uint64
	pinned bool
}

// PinFee pins the total fee to a manual value.
func (p *FeePolicy) PinFee(fee uint64) {
	p.manual = fee
	p.pinned = true
}

// Reset clears a pinned fee; subsequent builds recompute from RatePerKB.
func (p *FeePolicy) Reset() {
	p.manual = 0
	p.pinned = false
}

// Pinned returns the manual fee and whether one is set.
func (p FeePolicy) Pinned() (uint64, bool) {
	return p.manual, p.pinned
}

// FeeFor returns the fee for a transaction of the given estimated size.
func (p FeePolicy) FeeFor(txSizeBytes int) uint64 {
	if p.pinned {
		return p.manual
	}
	return EstimateFee(txSizeBytes, p.RatePerKB)
}
