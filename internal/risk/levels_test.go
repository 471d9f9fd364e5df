package risk

import (
	"errors"
	"math"
	"testing"
)

// TestBuildShortLevels tests the confirmed short case end to end
func TestBuildShortLevels(t *testing.T) {
	lb := NewLevelBuilder(DefaultLevelConfig())

	levels, err := lb.Build(SideShort, 90, 100, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if levels.Entry != 90 || levels.Stop != 100.2 {
		t.Errorf("Expected entry 90 stop 100.2, got %v / %v", levels.Entry, levels.Stop)
	}
	if levels.TP1 != 84.9 || levels.TP2 != 79.8 {
		t.Errorf("Expected tp1 84.9 tp2 79.8, got %v / %v", levels.TP1, levels.TP2)
	}
	if math.Abs(levels.R()-10.2) > 1e-9 {
		t.Errorf("Expected R 10.2, got %v", levels.R())
	}

	p := levels.Partials
	if math.Abs(p.TP1Pct+p.TP2Pct+p.RunnerPct-1) > 1e-12 {
		t.Errorf("Partials must sum to 1, got %+v", p)
	}
}

// TestBuildLongLevels tests the mirrored long case
func TestBuildLongLevels(t *testing.T) {
	lb := NewLevelBuilder(LevelConfig{})

	levels, err := lb.Build(SideLong, 110, 100, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if levels.Stop != 99.8 || levels.TP1 != 115.1 || levels.TP2 != 120.2 {
		t.Errorf("Unexpected long levels: %+v", levels)
	}
	if levels.Direction != SideLong {
		t.Errorf("Expected LONG, got %s", levels.Direction)
	}
}

// TestBuildRejectsInvertedStop tests that a stop on the profit side fails
func TestBuildRejectsInvertedStop(t *testing.T) {
	lb := NewLevelBuilder(DefaultLevelConfig())

	if _, err := lb.Build(SideShort, 101, 100, 2); !errors.Is(err, ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels for short entry above stop, got %v", err)
	}
	if _, err := lb.Build(SideLong, 100, 100, 0); !errors.Is(err, ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels for zero R, got %v", err)
	}
	if _, err := lb.Build(SideLong, math.NaN(), 100, 2); !errors.Is(err, ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels for NaN entry, got %v", err)
	}
}

// TestBuildSubCentPrices tests that low priced contracts keep their levels
func TestBuildSubCentPrices(t *testing.T) {
	lb := NewLevelBuilder(DefaultLevelConfig())

	levels, err := lb.Build(SideShort, 0.00001234, 0.000013, 0.0000002)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := Levels{Entry: 0.00001234, Stop: 0.00001302, TP1: 0.000012, TP2: 0.00001166}
	got := []float64{levels.Entry, levels.Stop, levels.TP1, levels.TP2}
	exp := []float64{want.Entry, want.Stop, want.TP1, want.TP2}
	for i := range got {
		if math.Abs(got[i]-exp[i]) > 1e-15 {
			t.Errorf("Unexpected levels %+v, want %+v", levels, want)
			break
		}
	}
	if levels.R() <= 0 {
		t.Errorf("Expected positive R, got %v", levels.R())
	}

	pos, err := NewPositionSizer(0.015, nil).Size("1000PEPEUSDT", 200, levels.Entry, levels.Stop)
	if err != nil {
		t.Fatalf("Levels should be sizable: %v", err)
	}
	if pos.StopDistance <= 0 || pos.Quantity <= 0 {
		t.Errorf("Unexpected position %+v", pos)
	}
}

// TestBuildRejectsGapLostToRounding tests that a stop rounding onto entry fails
func TestBuildRejectsGapLostToRounding(t *testing.T) {
	lb := NewLevelBuilder(DefaultLevelConfig())

	// R is 1e-6 but entry 0.5 keeps only 5 decimals
	if _, err := lb.Build(SideShort, 0.5, 0.500001, 0); !errors.Is(err, ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels, got %v", err)
	}
}
