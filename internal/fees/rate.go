package fees

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFeeRate is applied when no rate is configured.
var DefaultPlatformFeeRate = decimal.NewFromFloat(0.10)

var one = decimal.NewFromInt(1)

// ResolveRate parses the configured platform fee rate. Blank or malformed
// values, and rates outside [0, 1), fall back to the default.
func ResolveRate(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPlatformFeeRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return DefaultPlatformFeeRate
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
		return DefaultPlatformFeeRate
	}
	return rate
}

// PlatformFee computes the commission on a sale amount, rounded down to a
// whole yen so the seller never loses a fraction twice.
func PlatformFee(amount int, rate decimal.Decimal) int {
	if amount <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(amount)).Mul(rate).Floor().IntPart())
}

// SplitSale returns the platform fee and the seller's net earnings for a sale.
func SplitSale(amount int, rate decimal.Decimal) (fee, net int) {
	fee = PlatformFee(amount, rate)
	return fee, amount - fee
}
