package domain

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Monetary amounts cross the API boundary as decimals but are stored and
// computed in int64 minor units (two decimal places), which keeps repeated
// deposits and withdrawals free of float drift.
var (
	ErrAmountPrecision = errors.New("amount has more than two decimal places")
	ErrAmountRange     = errors.New("amount out of range")
)

var minorUnitFactor = decimal.NewFromInt(100)

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits converts a decimal amount to minor units. Amounts that are
// not exactly representable at two decimal places are rejected rather than
// rounded.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(minorUnitFactor)
	if !scaled.IsInteger() {
		return 0, ErrAmountPrecision
	}
	if scaled.GreaterThan(maxMinorUnits) || scaled.LessThan(minMinorUnits) {
		return 0, ErrAmountRange
	}
	return scaled.IntPart(), nil
}

func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}
