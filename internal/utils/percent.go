package utils

import "math/big"

var (
	hundred = big.NewRat(100, 1)
	half    = big.NewRat(1, 2)
)

// Percent returns 100 * num / den as an exact rational. den must be positive.
func Percent(num, den int64) *big.Rat {
	r := big.NewRat(num, den)
	return r.Mul(r, hundred)
}

// PercentFromFloat converts a stored percentage back to a rational.
func PercentFromFloat(v float64) *big.Rat {
	r := new(big.Rat)
	if r.SetFloat64(v) == nil {
		return new(big.Rat)
	}
	return r
}

// MeanPercent averages values over count, which may exceed len(values) when
// missing entries count as zero. A zero count yields zero.
func MeanPercent(values []*big.Rat, count int) *big.Rat {
	sum := new(big.Rat)
	if count <= 0 {
		return sum
	}
	for _, v := range values {
		sum.Add(sum, v)
	}
	return sum.Quo(sum, big.NewRat(int64(count), 1))
}

// QuantizePercent rounds a non-negative percentage half-up to two decimals.
func QuantizePercent(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	scaled := new(big.Rat).Mul(r, hundred)
	scaled.Add(scaled, half)
	hundredths := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	f, _ := new(big.Rat).SetFrac(hundredths, big.NewInt(100)).Float64()
	return f
}
