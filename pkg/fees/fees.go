package fees

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidFee is returned when the provider fee is negative
var ErrInvalidFee = errors.New("provider fee must not be negative")

// Breakdown holds the fee split for a single appointment.
// Amounts are in the currency's minor unit.
type Breakdown struct {
	ProviderFee int64
	PlatformFee int64
	TotalAmount int64
}

// Calculator computes the platform fee from a provider's base fee.
// Pure: no I/O, no state beyond the configured percentage.
type Calculator struct {
	percent decimal.Decimal
}

// NewCalculator creates a Calculator from a fractional percentage,
// e.g. 0.10 for a 10% platform cut.
func NewCalculator(percent float64) *Calculator {
	return &Calculator{percent: decimal.NewFromFloat(percent)}
}

// Compute returns the platform fee and total for the given provider fee.
// The platform fee is rounded half-up on the minor unit; the total is
// always providerFee + platformFee.
func (c *Calculator) Compute(providerFee int64) (Breakdown, error) {
	if providerFee < 0 {
		return Breakdown{}, ErrInvalidFee
	}

	platformFee := decimal.NewFromInt(providerFee).Mul(c.percent).Round(0).IntPart()

	return Breakdown{
		ProviderFee: providerFee,
		PlatformFee: platformFee,
		TotalAmount: providerFee + platformFee,
	}, nil
}
