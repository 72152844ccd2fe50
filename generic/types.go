/*
Package generic provides the domain-agnostic pieces shared by the payout engine.

PURPOSE:
  Types and contracts that several packages need without depending on the
  rewards rules themselves: error taxonomy, period labels, the threshold store
  interface and decimal helpers.

KEY CONCEPTS IN THIS FILE (types.go):
  - FloorToStep: Rounding rewards down to a multiple of a step
  - ParseDecimal: Lenient numeric parsing with zero fallback

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 600000 x 0.025 is exactly 15000
  2. Silent recovery: Unparseable numbers become zero, never an error
  3. Write-once memory: Threshold records are inserted, never updated

SEE ALSO:
  - errors.go: Sentinel and structured errors
  - store.go: ThresholdStore interface
  - period.go: Period labels
*/
package generic

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MaxNumeric bounds the magnitude ParseDecimal accepts. Cells beyond it are
// treated as unparseable.
var MaxNumeric = decimal.New(1, 15)

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// ParseDecimal parses s as a decimal number. Surrounding whitespace is
// ignored. ok is false for empty, unparseable or out-of-range input.
func ParseDecimal(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThan(MaxNumeric) {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDecimalOrZero parses s, returning zero when it is not a number.
func ParseDecimalOrZero(s string) decimal.Decimal {
	d, _ := ParseDecimal(s)
	return d
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FloorToStep rounds x down to the nearest lower multiple of step.
// A step of 1 or less floors to an integer. Negative x gives 0 and values
// past the int64 range saturate.
func FloorToStep(x decimal.Decimal, step int64) int64 {
	if step < 1 {
		step = 1
	}
	// Floor is exact; dividing first would round at DivisionPrecision.
	n := x.Floor()
	if !n.IsPositive() {
		return 0
	}
	if n.GreaterThan(maxInt64) {
		n = maxInt64
	}
	i := n.IntPart()
	return i - i%step
}
