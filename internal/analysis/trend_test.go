package analysis

import (
	"strings"
	"testing"
)

func swingsOf(highs, lows []float64) Swings {
	s := Swings{}
	for i, p := range highs {
		s.Highs = append(s.Highs, SwingPoint{Index: i, Price: p, Kind: SwingHigh})
	}
	for i, p := range lows {
		s.Lows = append(s.Lows, SwingPoint{Index: i, Price: p, Kind: SwingLow})
	}
	return s
}

// TestClassify tests trend classification from the last two swings
func TestClassify(t *testing.T) {
	tc := NewTrendClassifier("15m")

	tests := []struct {
		name      string
		highs     []float64
		lows      []float64
		want      TrendDirection
		protected float64
		reclaim   float64
	}{
		{"higher high and higher low", []float64{100, 110}, []float64{90, 95}, TrendUp, 95, 110},
		{"lower high and lower low", []float64{110, 100}, []float64{95, 90}, TrendDown, 100, 90},
		{"equal highs", []float64{110, 110}, []float64{90, 95}, TrendNone, 0, 0},
		{"equal lows", []float64{110, 100}, []float64{90, 90}, TrendNone, 0, 0},
		{"mixed expansion", []float64{100, 110}, []float64{95, 90}, TrendNone, 0, 0},
		{"uses only the last two", []float64{200, 100, 110}, []float64{10, 90, 95}, TrendUp, 95, 110},
		{"one high", []float64{100}, []float64{90, 95}, TrendNone, 0, 0},
		{"no lows", []float64{100, 110}, nil, TrendNone, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tc.Classify(swingsOf(tt.highs, tt.lows))
			if got.Direction != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got.Direction)
			}
			if got.ProtectedLevel != tt.protected || got.ReclaimLevel != tt.reclaim {
				t.Errorf("Expected protected %v reclaim %v, got %v / %v",
					tt.protected, tt.reclaim, got.ProtectedLevel, got.ReclaimLevel)
			}
			if len(got.Why) == 0 {
				t.Error("Expected a diagnostic trail")
			}
		})
	}
}

// TestClassifyTrail tests the labels in the diagnostic trail
func TestClassifyTrail(t *testing.T) {
	tc := NewTrendClassifier("15m")
	got := tc.Classify(swingsOf([]float64{110.123, 100.456}, []float64{95, 90}))

	want := []string{"✔ 15m swings detected", "✔ 15m LH: 110.12 → 100.46", "✔ 15m LL: 95 → 90"}
	if strings.Join(got.Why, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, got.Why)
	}

	none := tc.Classify(Swings{})
	if !strings.Contains(none.Why[0], "Not enough swings") {
		t.Errorf("Unexpected trail for empty swings: %v", none.Why)
	}
}

func TestPolarity(t *testing.T) {
	if TrendUp.Polarity() != 1 || TrendDown.Polarity() != -1 || TrendNone.Polarity() != 0 {
		t.Error("Unexpected polarity mapping")
	}
}
