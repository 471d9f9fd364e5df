package analysis

import (
	"fmt"

	"guardian-futures-engine/internal/format"
)

// TrendDirection represents higher-timeframe bias
type TrendDirection string

const (
	TrendUp   TrendDirection = "UP"
	TrendDown TrendDirection = "DOWN"
	TrendNone TrendDirection = "NONE"
)

// Polarity maps UP to +1, DOWN to -1 and NONE to 0.
func (d TrendDirection) Polarity() float64 {
	switch d {
	case TrendUp:
		return 1
	case TrendDown:
		return -1
	}
	return 0
}

// TrendState is the classified market structure.
// ProtectedLevel must hold during a pullback; ReclaimLevel is the price a
// lower-timeframe close has to cross to confirm continuation.
type TrendState struct {
	Direction      TrendDirection `json:"dir"`
	ProtectedLevel float64        `json:"protectedLevel"`
	ReclaimLevel   float64        `json:"reclaimLevel"`
	Why            []string       `json:"why"`
}

// Clean reports whether a direction with levels was found.
func (ts TrendState) Clean() bool {
	return ts.Direction == TrendUp || ts.Direction == TrendDown
}

// TrendClassifier derives direction from the two latest swing highs and lows
type TrendClassifier struct {
	timeframe string
}

// NewTrendClassifier creates a classifier. timeframe only labels the
// diagnostic trail.
func NewTrendClassifier(timeframe string) *TrendClassifier {
	return &TrendClassifier{timeframe: timeframe}
}

// Classify returns UP on a higher high and higher low, DOWN on a lower high
// and lower low, and NONE for anything else including ties.
func (tc *TrendClassifier) Classify(swings Swings) TrendState {
	prevH, lastH, okH := lastTwo(swings.Highs)
	prevL, lastL, okL := lastTwo(swings.Lows)
	if !okH || !okL {
		return TrendState{
			Direction: TrendNone,
			Why:       []string{"✖ Not enough swings yet (need 2 highs + 2 lows)."},
		}
	}

	higherHigh := lastH.Price > prevH.Price
	higherLow := lastL.Price > prevL.Price
	lowerHigh := lastH.Price < prevH.Price
	lowerLow := lastL.Price < prevL.Price

	detected := fmt.Sprintf("✔ %s swings detected", tc.timeframe)

	switch {
	case lowerHigh && lowerLow:
		return TrendState{
			Direction:      TrendDown,
			ProtectedLevel: lastH.Price,
			ReclaimLevel:   lastL.Price,
			Why: []string{
				detected,
				tc.step("LH", prevH.Price, lastH.Price),
				tc.step("LL", prevL.Price, lastL.Price),
			},
		}
	case higherHigh && higherLow:
		return TrendState{
			Direction:      TrendUp,
			ProtectedLevel: lastL.Price,
			ReclaimLevel:   lastH.Price,
			Why: []string{
				detected,
				tc.step("HH", prevH.Price, lastH.Price),
				tc.step("HL", prevL.Price, lastL.Price),
			},
		}
	}

	return TrendState{
		Direction: TrendNone,
		Why:       []string{detected, "✖ Structure not clean (no HH+HL or LH+LL)."},
	}
}

func (tc *TrendClassifier) step(label string, prev, last float64) string {
	return fmt.Sprintf("✔ %s %s: %s → %s", tc.timeframe, label, format.Num(prev, 2), format.Num(last, 2))
}
