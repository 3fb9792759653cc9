package shared

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

var (
	// absoluteTolerance absorbs cent-level rounding on small amounts.
	absoluteTolerance = decimal.New(1, -2)
	// relativeTolerance absorbs representation noise on large amounts.
	relativeTolerance = decimal.New(1, -6)
)

// NearlyEqual reports whether two monetary amounts agree within tolerance:
// either the absolute difference is at most one cent, or the relative
// difference is at most 1e-6 of the larger magnitude.
func NearlyEqual(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	if diff.Cmp(absoluteTolerance) <= 0 {
		return true
	}
	scale := a.Abs()
	if s := b.Abs(); s.GreaterThan(scale) {
		scale = s
	}
	return diff.Cmp(scale.Mul(relativeTolerance)) <= 0
}

// ParseGermanDecimal parses a locale-formatted amount ("1.234,56") into a
// decimal. Returns ok=false on empty or malformed input.
func ParseGermanDecimal(text string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return decimal.Zero, false
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// EvalAmount parses an amount that may be a plain number or a small
// arithmetic expression like "3*4+1", as they appear in hand-written count
// sheets.
func EvalAmount(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return d, nil
	}
	expr, err := govaluate.NewEvaluableExpression(trimmed)
	if err != nil {
		return decimal.Zero, err
	}
	result, err := expr.Evaluate(nil)
	if err != nil {
		return decimal.Zero, err
	}
	value, ok := result.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("expression %q is not numeric", trimmed)
	}
	return decimal.NewFromFloat(value), nil
}
