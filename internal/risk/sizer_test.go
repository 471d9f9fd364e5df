package risk

import (
	"errors"
	"math"
	"testing"
)

// TestSizeMinimumStepFallback tests the documented overshoot case
func TestSizeMinimumStepFallback(t *testing.T) {
	ps := NewPositionSizer(0.015, NewStepTable(map[string]float64{"TESTUSDT": 1}))

	pos, err := ps.Size("TESTUSDT", 200, 90, 100.2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if pos.RiskAmount != 3 {
		t.Errorf("Expected risk 3, got %v", pos.RiskAmount)
	}
	if pos.StopDistance != 10.2 {
		t.Errorf("Expected stop distance 10.2, got %v", pos.StopDistance)
	}
	if pos.LossFraction != 0.1133 {
		t.Errorf("Expected loss fraction 0.1133, got %v", pos.LossFraction)
	}
	if pos.Notional != 26.47 {
		t.Errorf("Expected notional 26.47, got %v", pos.Notional)
	}
	if pos.Quantity != 1 || !pos.MinStepFallback {
		t.Errorf("Expected fallback to one step, got qty %v fallback %v", pos.Quantity, pos.MinStepFallback)
	}
	if pos.LeverageHint != "1.00x" {
		t.Errorf("Expected 1.00x, got %s", pos.LeverageHint)
	}
}

// TestSizeFloorsToStep tests that quantity never rounds up
func TestSizeFloorsToStep(t *testing.T) {
	ps := NewPositionSizer(0, nil)
	if ps.RiskFraction() != DefaultRiskFraction {
		t.Fatalf("Expected default risk fraction, got %v", ps.RiskFraction())
	}

	// risk 150 at a 1% stop -> notional 15000 -> 0.15 BTC
	pos, err := ps.Size("BTCUSDT", 10000, 100000, 99000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if pos.Notional != 15000 {
		t.Errorf("Expected notional 15000, got %v", pos.Notional)
	}
	if pos.Quantity != 0.15 {
		t.Errorf("Expected quantity 0.15, got %v", pos.Quantity)
	}
	if pos.MinStepFallback {
		t.Error("Did not expect fallback")
	}
	if pos.LeverageHint != "1.50x (approx)" {
		t.Errorf("Expected 1.50x (approx), got %s", pos.LeverageHint)
	}
	if pos.Quantity*100000 > pos.Notional {
		t.Errorf("Quantity %v exceeds intended notional %v", pos.Quantity, pos.Notional)
	}
}

// TestSizeRejectsBadInput tests the error paths
func TestSizeRejectsBadInput(t *testing.T) {
	ps := NewPositionSizer(0.015, nil)

	if _, err := ps.Size("BTCUSDT", 200, 90, 90); !errors.Is(err, ErrInvalidStop) {
		t.Errorf("Expected ErrInvalidStop, got %v", err)
	}
	if _, err := ps.Size("BTCUSDT", 200, math.Inf(1), 90); !errors.Is(err, ErrInvalidStop) {
		t.Errorf("Expected ErrInvalidStop for infinite entry, got %v", err)
	}
	for _, eq := range []float64{0, -5, math.NaN()} {
		if _, err := ps.Size("BTCUSDT", eq, 90, 100); !errors.Is(err, ErrInvalidEquity) {
			t.Errorf("Expected ErrInvalidEquity for %v, got %v", eq, err)
		}
	}
}

// TestMaxQuantity tests decimal flooring of the risk budget
func TestMaxQuantity(t *testing.T) {
	tests := []struct {
		budget, dist, step, want float64
	}{
		{0.3, 1, 0.1, 0.3},
		{0.29999, 1, 0.1, 0.2},
		{3, 600, 0.001, 0.005},
		{7.9, 1, 1, 7},
		{3, 10.2, 1, 0},
		{-1, 1, 1, 0},
		{math.NaN(), 1, 1, 0},
		{5, 1, 0, 0},
		{5, 0, 1, 0},
	}
	for _, tt := range tests {
		if got := maxQuantity(tt.budget, tt.dist, tt.step); got != tt.want {
			t.Errorf("maxQuantity(%v, %v, %v) = %v, want %v", tt.budget, tt.dist, tt.step, got, tt.want)
		}
	}
}

// TestSizeStaysWithinBudgetAtStepBoundary tests a notional that rounds up
// across a step boundary
func TestSizeStaysWithinBudgetAtStepBoundary(t *testing.T) {
	ps := NewPositionSizer(0.015, NewStepTable(map[string]float64{"TESTUSDT": 0.001}))

	pos, err := ps.Size("TESTUSDT", 200, 1, 1.0300012)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if pos.Notional != 100 {
		t.Errorf("Expected displayed notional 100, got %v", pos.Notional)
	}
	if pos.Quantity != 99.996 {
		t.Errorf("Expected quantity 99.996, got %v", pos.Quantity)
	}
	if pos.MinStepFallback {
		t.Error("Did not expect fallback")
	}
	if loss := pos.Quantity * 0.0300012; loss > 3 {
		t.Errorf("Loss at stop %v exceeds risk 3", loss)
	}
}

// TestStepTable tests defaults and overrides
func TestStepTable(t *testing.T) {
	st := NewStepTable(map[string]float64{"dogeusdt": 10, "BADUSDT": 0})

	if st.Step("BTCUSDT") != 0.001 || st.Step("ETHUSDT") != 0.01 || st.Step("SOLUSDT") != 0.1 {
		t.Error("Unexpected built-in steps")
	}
	if st.Step("DOGEUSDT") != 10 {
		t.Errorf("Expected override 10, got %v", st.Step("DOGEUSDT"))
	}
	if st.Step("BADUSDT") != DefaultQuantityStep || st.Step("XRPUSDT") != DefaultQuantityStep {
		t.Error("Expected default step for unknown symbols")
	}
	if n := st.Merge(map[string]float64{"BTCUSDT": 0.01}); n != 1 {
		t.Errorf("Expected 1 merged step, got %d", n)
	}
	if st.Step("BTCUSDT") != 0.01 {
		t.Errorf("Expected merged BTC step, got %v", st.Step("BTCUSDT"))
	}
}
