package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	calc := NewCalculator(0.10)

	tests := []struct {
		name         string
		providerFee  int64
		wantPlatform int64
		wantTotal    int64
	}{
		{"even split", 500, 50, 550},
		{"rounds down below half", 333, 33, 366},
		{"rounds half up", 335, 34, 369},
		{"zero fee", 0, 0, 0},
		{"large fee", 1_000_000, 100_000, 1_100_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := calc.Compute(tt.providerFee)
			require.NoError(t, err)

			assert.Equal(t, tt.providerFee, breakdown.ProviderFee)
			assert.Equal(t, tt.wantPlatform, breakdown.PlatformFee)
			assert.Equal(t, tt.wantTotal, breakdown.TotalAmount)
		})
	}
}

func TestCompute_NegativeFee(t *testing.T) {
	calc := NewCalculator(0.10)

	_, err := calc.Compute(-1)
	assert.ErrorIs(t, err, ErrInvalidFee)
}

func TestCompute_TotalAlwaysConsistent(t *testing.T) {
	calc := NewCalculator(0.125)

	for _, fee := range []int64{1, 7, 99, 1234, 999_999} {
		breakdown, err := calc.Compute(fee)
		require.NoError(t, err)
		assert.Equal(t, breakdown.ProviderFee+breakdown.PlatformFee, breakdown.TotalAmount, "fee %d", fee)
	}
}
