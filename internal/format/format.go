// Package format holds the rounding and number rendering shared by the
// engine's result cards and diagnostic trails.
package format

import (
	"math"
	"strconv"
)

// Round rounds x half away from zero to d decimal places.
func Round(x float64, d int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(d))
	return math.Round(x*p) / p
}

// Num renders x rounded to d decimals without trailing zeros ("90", "89.9").
func Num(x float64, d int) string {
	return strconv.FormatFloat(Round(x, d), 'f', -1, 64)
}

// PriceDecimals returns the decimals that keep at least five significant
// digits of price. Prices of 1 and above use 4.
func PriceDecimals(price float64) int {
	a := math.Abs(price)
	if !Finite(a) || a == 0 || a >= 1 {
		return 4
	}
	d := 4 - int(math.Floor(math.Log10(a)))
	if d > 12 {
		d = 12
	}
	return d
}

// Price renders a price with PriceDecimals(ref) decimals.
func Price(x, ref float64) string {
	return Num(x, PriceDecimals(ref))
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
