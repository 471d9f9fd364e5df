package analysis

import (
	"math"
	"testing"
)

// flatCandles returns n candles closing at close with a constant range.
func flatCandles(n int, close, rng float64) []Candle {
	candles := make([]Candle, n)
	for i := range candles {
		candles[i] = Candle{
			OpenTime: int64(i),
			Open:     close,
			High:     close + rng/2,
			Low:      close - rng/2,
			Close:    close,
		}
	}
	return candles
}

// TestATRRequiresHistory tests that fewer than length+2 candles fail closed
func TestATRRequiresHistory(t *testing.T) {
	vg := NewVolatilityGate(14, 0)

	if _, ok := vg.ATR(flatCandles(15, 100, 1)); ok {
		t.Error("Expected ATR to be unavailable with 15 candles")
	}
	if atr, ok := vg.ATR(flatCandles(16, 100, 1)); !ok || atr != 1 {
		t.Errorf("Expected ATR 1 with 16 candles, got %v (ok=%v)", atr, ok)
	}

	reading := vg.Evaluate(flatCandles(10, 100, 1))
	if reading.Passed {
		t.Error("Expected gate to fail closed on short history")
	}
}

// TestATRUsesPreviousClose tests the gap terms of the true range
func TestATRUsesPreviousClose(t *testing.T) {
	vg := NewVolatilityGate(2, 0)
	candles := []Candle{
		{Open: 10, High: 11, Low: 9, Close: 10},
		{Open: 10, High: 11, Low: 9, Close: 10},
		{Open: 14, High: 15, Low: 14, Close: 15}, // gap up: |15-10| = 5
		{Open: 12, High: 13, Low: 11, Close: 12}, // |11-15| = 4
	}
	atr, ok := vg.ATR(candles)
	if !ok {
		t.Fatal("Expected ATR")
	}
	if atr != 4.5 {
		t.Errorf("Expected ATR 4.5, got %v", atr)
	}
}

// TestGateBoundaryIsInclusive tests that ATR% equal to the threshold passes
func TestGateBoundaryIsInclusive(t *testing.T) {
	candles := flatCandles(20, 100, 0.5)
	measure := NewVolatilityGate(14, 0)
	atr, _ := measure.ATR(candles)
	pct := atr / candles[len(candles)-1].Close

	atThreshold := NewVolatilityGate(14, pct)
	if r := atThreshold.Evaluate(candles); !r.Passed {
		t.Errorf("Expected pass at exact threshold, got %+v", r)
	}

	above := NewVolatilityGate(14, math.Nextafter(pct, math.Inf(1)))
	r := above.Evaluate(candles)
	if r.Passed {
		t.Error("Expected fail when ATR% is one unit below the threshold")
	}
	if r.ATR != atr {
		t.Errorf("Expected reading to carry ATR %v, got %v", atr, r.ATR)
	}
}

// TestGateDefaults tests the default threshold against a quiet market
func TestGateDefaults(t *testing.T) {
	vg := NewVolatilityGate(0, 0)
	if vg.minATRPct != DefaultMinATRPct {
		t.Fatalf("Expected default threshold, got %v", vg.minATRPct)
	}

	quiet := vg.Evaluate(flatCandles(30, 100, 0.05))
	if quiet.Passed {
		t.Error("Expected 0.05% ATR to be filtered")
	}
	if quiet.Reason != "Chop filter: ATR too low (0.05%)." {
		t.Errorf("Unexpected reason: %s", quiet.Reason)
	}

	active := vg.Evaluate(flatCandles(30, 100, 2))
	if !active.Passed {
		t.Errorf("Expected 2%% ATR to pass, got %+v", active)
	}
}
