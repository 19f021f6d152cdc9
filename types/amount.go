package types

import (
	"errors"
	"fmt"
	"math/bits"
)

// Amounts are unsigned integers in the asset's smallest unit.
// All arithmetic is integer-only — no floating point.

// BasisPoints expresses a rate in units of 1/10000.
//
// Examples:
//   - BasisPoints(100)  = 1%
//   - BasisPoints(300)  = 3%
//   - BasisPoints(1000) = 10%
type BasisPoints uint32

// BasisPointDenominator is the full scale of a BasisPoints rate.
const BasisPointDenominator = 10000

// ErrOverflow is returned when amount arithmetic exceeds uint64 range.
var ErrOverflow = errors.New("types: amount overflow")

// Valid reports whether the rate is within the 0–10000 scale.
func (bp BasisPoints) Valid() bool { return bp <= BasisPointDenominator }

// Percent returns the rate as a human-readable percentage string.
func (bp BasisPoints) Percent() string {
	return fmt.Sprintf("%d.%02d%%", bp/100, bp%100)
}

// FeeOn returns floor(amount × bp / 10000). The intermediate product is
// computed in 128 bits so the result is exact for the full uint64 range.
// Panics if the rate exceeds full scale (programming error).
func (bp BasisPoints) FeeOn(amount uint64) uint64 {
	if !bp.Valid() {
		panic(fmt.Sprintf("types: basis points out of range: %d", bp))
	}
	hi, lo := bits.Mul64(amount, uint64(bp))
	// hi < 10000 whenever bp <= 10000, so Div64 cannot trap.
	q, _ := bits.Div64(hi, lo, BasisPointDenominator)
	return q
}

// NetOn returns amount minus the fee at this rate, floored the same way
// the fee itself is.
func (bp BasisPoints) NetOn(amount uint64) uint64 {
	return amount - bp.FeeOn(amount)
}

// AddChecked returns a+b, or ErrOverflow if the sum wraps.
func AddChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SumChecked reduces a slice of amounts with overflow-checked addition.
func SumChecked(amounts []uint64) (uint64, error) {
	var total uint64
	for _, a := range amounts {
		s, err := AddChecked(total, a)
		if err != nil {
			return 0, err
		}
		total = s
	}
	return total, nil
}
