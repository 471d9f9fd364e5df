package analysis

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"guardian-futures-engine/internal/format"
)

const (
	DefaultATRLength = 14
	DefaultMinATRPct = 0.0009
)

// VolatilityReading is the outcome of one gate evaluation
type VolatilityReading struct {
	ATR        float64 `json:"atr"`
	ATRPercent float64 `json:"atrPct"`
	Passed     bool    `json:"passed"`
	Reason     string  `json:"reason,omitempty"`
	Why        string  `json:"-"`
}

// VolatilityGate rejects markets too quiet for R-multiple targets.
type VolatilityGate struct {
	length    int
	minATRPct float64
}

// NewVolatilityGate creates a gate. Non-positive arguments take the defaults,
// so the gate cannot be disabled with a zero threshold.
func NewVolatilityGate(length int, minATRPct float64) *VolatilityGate {
	if length <= 0 {
		length = DefaultATRLength
	}
	if minATRPct <= 0 {
		minATRPct = DefaultMinATRPct
	}
	return &VolatilityGate{length: length, minATRPct: minATRPct}
}

// ATR is the simple average of the trailing length true ranges.
// ok is false when fewer than length+2 candles are available.
func (vg *VolatilityGate) ATR(candles []Candle) (atr float64, ok bool) {
	if len(candles) < vg.length+2 {
		return 0, false
	}

	n := len(candles)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
	}

	// TRange leaves index 0 empty; every later index uses the previous close.
	tr := talib.TRange(high, low, closes)
	sum := 0.0
	for _, v := range tr[n-vg.length:] {
		sum += v
	}
	return sum / float64(vg.length), true
}

// Evaluate computes ATR on candles and compares ATR/close with the threshold.
// Equality passes. Missing history or a zero ATR fails closed.
func (vg *VolatilityGate) Evaluate(candles []Candle) VolatilityReading {
	atr, ok := vg.ATR(candles)
	if !ok || atr <= 0 {
		return VolatilityReading{
			Passed: false,
			Reason: fmt.Sprintf("Chop filter: ATR unavailable (need %d candles, have %d).", vg.length+2, len(candles)),
			Why:    "✖ ATR unavailable",
		}
	}

	last := candles[len(candles)-1].Close
	pct := atr / last
	reading := VolatilityReading{ATR: atr, ATRPercent: pct}
	if !format.Finite(pct) || pct < vg.minATRPct {
		reading.Reason = fmt.Sprintf("Chop filter: ATR too low (%s%%).", format.Num(pct*100, 3))
		reading.Why = fmt.Sprintf("✖ ATR%% < %s%%", format.Num(vg.minATRPct*100, 3))
		return reading
	}

	reading.Passed = true
	reading.Why = fmt.Sprintf("✔ ATR%% %s%% >= %s%%", format.Num(pct*100, 3), format.Num(vg.minATRPct*100, 3))
	return reading
}
