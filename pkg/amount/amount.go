// Package amount converts raw on-chain integer amounts into exact token
// quantities. All conversions go through shopspring/decimal so that repeated
// summation and percentage math never touch floating point.
package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// divisionScale bounds the precision of the few divisions this package
// performs (mean, percentage). 18 fractional digits matches the finest
// token granularity we ever report.
const divisionScale = 18

// RawToTokens converts a raw integer amount (smallest indivisible unit) to
// whole tokens. The conversion is exact: raw becomes the coefficient and
// decimals the negative exponent.
func RawToTokens(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// TokensToRaw converts a token quantity back to the raw integer unit,
// rounding to the nearest integer.
func TokensToRaw(tokens decimal.Decimal, decimals int32) *big.Int {
	return tokens.Shift(decimals).Round(0).BigInt()
}

// ToTrillions rescales a token quantity to trillions of tokens.
func ToTrillions(tokens decimal.Decimal) decimal.Decimal {
	return tokens.Shift(-12)
}

// Percent returns part/whole expressed as a percentage. A zero whole yields
// zero rather than a division error.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).DivRound(whole, divisionScale)
}

// Mean returns the arithmetic mean of vals, zero for an empty slice.
func Mean(vals []decimal.Decimal) decimal.Decimal {
	if len(vals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range vals {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(vals))), divisionScale)
}

// Format renders d as a plain decimal string with trailing fractional zeros
// stripped ("12.500" -> "12.5", "10.00" -> "10").
func Format(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
