// Package money holds the rounding rules shared by cart totals and
// discount computation. Amounts are decimal prices rounded half-away-from-
// zero to 2 places; intermediate math stays unrounded and callers round
// once at the final sum.
package money

import "math"

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
