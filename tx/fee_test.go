package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- EstimateFee tests ---

func TestEstimateFee(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		rate    uint64
		wantFee uint64
	}{
		{"one_sat_per_byte", 225, 1000, 225},
		{"half_sat_per_byte", 1000, 500, 500},
		{"rounds_up", 1, 1000, 1},
		{"rounds_up_small_rate", 999, 1, 1},
		{"exact_kilobyte", 1000, 1000, 1000},
		{"zero_size", 0, 500, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantFee, EstimateFee(tc.size, tc.rate))
		})
	}
}

func TestEstimateFee_ZeroRateUsesDefault(t *testing.T) {
	// DefaultFeeRate is 500 sat/KB.
	assert.Equal(t, uint64(500), EstimateFee(1000, 0))
}

// --- EstimateTxSize tests ---

func TestEstimateTxSize(t *testing.T) {
	tests := []struct {
		name     string
		inputs   int
		outputs  int
		wantSize int
	}{
		{"one_in_two_out", 1, 2, 225},
		{"empty", 0, 0, 10},
		{"two_in_one_out", 2, 1, 338},
		{"one_in_one_out", 1, 1, 191},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantSize, EstimateTxSize(tc.inputs, tc.outputs))
		})
	}
}

// --- CheckFeeCeiling tests ---

func TestCheckFeeCeiling(t *testing.T) {
	// At 50000 sat/KB over 225 bytes the ceiling fee is 11250.
	assert.NoError(t, CheckFeeCeiling(11250, 225, 50000))
	assert.ErrorIs(t, CheckFeeCeiling(11251, 225, 50000), ErrExcessiveFee)
	assert.NoError(t, CheckFeeCeiling(0, 225, 50000))
}

func TestCheckFeeCeiling_ZeroMaxUsesDefault(t *testing.T) {
	// DefaultMaxFeeRate is 50000 sat/KB.
	assert.NoError(t, CheckFeeCeiling(11250, 225, 0))
	assert.ErrorIs(t, CheckFeeCeiling(11251, 225, 0), ErrExcessiveFee)
}

// --- FeeBelowFloor tests ---

func TestFeeBelowFloor(t *testing.T) {
	// Threshold for odd size 225 is ceil(225/2) = 113.
	assert.True(t, FeeBelowFloor(112, 225))
	assert.False(t, FeeBelowFloor(113, 225))

	// Threshold for even size 224 is 112.
	assert.True(t, FeeBelowFloor(111, 224))
	assert.False(t, FeeBelowFloor(112, 224))
}

// --- FeePolicy tests ---

func TestFeePolicy_RateFee(t *testing.T) {
	p := FeePolicy{RatePerKB: 1000}
	assert.Equal(t, uint64(225), p.FeeFor(225))

	_, pinned := p.Pinned()
	assert.False(t, pinned)
}

func TestFeePolicy_PinnedFeeSticky(t *testing.T) {
	p := FeePolicy{RatePerKB: 1000}
	p.PinFee(42)

	// The pinned total wins regardless of size.
	assert.Equal(t, uint64(42), p.FeeFor(225))
	assert.Equal(t, uint64(42), p.FeeFor(10000))

	manual, pinned := p.Pinned()
	assert.True(t, pinned)
	assert.Equal(t, uint64(42), manual)
}

func TestFeePolicy_Reset(t *testing.T) {
	p := FeePolicy{RatePerKB: 1000}
	p.PinFee(42)
	p.Reset()

	assert.Equal(t, uint64(225), p.FeeFor(225))
	_, pinned := p.Pinned()
	assert.False(t, pinned)
}
