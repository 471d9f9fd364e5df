package orders

import (
	"testing"
	"time"

	"guardian-futures-engine/internal/risk"
)

func TestParseClientOrderID_Formats(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantNil       bool
		wantDirection risk.Side
		wantSymbol    string
		wantLeg       LegType
		wantBase      string
	}{
		{
			name:          "short entry",
			input:         "SHT-17OCT1430-BTCUSDT-E",
			wantDirection: risk.SideShort,
			wantSymbol:    "BTCUSDT",
			wantLeg:       LegEntry,
			wantBase:      "SHT-17OCT1430-BTCUSDT",
		},
		{
			name:          "long stop loss",
			input:         "LNG-01JAN0005-ETHUSDT-SL",
			wantDirection: risk.SideLong,
			wantSymbol:    "ETHUSDT",
			wantLeg:       LegStop,
			wantBase:      "LNG-01JAN0005-ETHUSDT",
		},
		{
			name:          "lowercase input",
			input:         "lng-28feb2359-1000pepeusdt-run",
			wantDirection: risk.SideLong,
			wantSymbol:    "1000PEPEUSDT",
			wantLeg:       LegRunner,
			wantBase:      "LNG-28FEB2359-1000PEPEUSDT",
		},
		{name: "unknown direction", input: "BUY-17OCT1430-BTCUSDT-E", wantNil: true},
		{name: "unknown leg", input: "SHT-17OCT1430-BTCUSDT-TP3", wantNil: true},
		{name: "bad month", input: "SHT-17XYZ1430-BTCUSDT-E", wantNil: true},
		{name: "bad hour", input: "SHT-17OCT2530-BTCUSDT-E", wantNil: true},
		{name: "missing symbol", input: "SHT-17OCT1430--E", wantNil: true},
		{name: "extra segment", input: "SHT-17OCT1430-BTC-USDT-E", wantNil: true},
		{name: "venue generated", input: "x-Cb7ytekJ1234567890", wantNil: true},
		{name: "empty", input: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClientOrderID(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Expected %q to parse", tt.input)
			}
			if got.Direction != tt.wantDirection || got.Symbol != tt.wantSymbol || got.Leg != tt.wantLeg {
				t.Errorf("Unexpected parse %+v", got)
			}
			if got.BaseID != tt.wantBase {
				t.Errorf("Expected base %s, got %s", tt.wantBase, got.BaseID)
			}
			if got.Raw != tt.input {
				t.Errorf("Raw should keep the input, got %s", got.Raw)
			}
		})
	}
}

func TestParseClientOrderID_TimeHasNoYear(t *testing.T) {
	got := ParseClientOrderID("SHT-31DEC2359-BTCUSDT-TP2")
	if got == nil {
		t.Fatal("Expected ID to parse")
	}
	want := time.Date(0, time.December, 31, 23, 59, 0, 0, time.UTC)
	if !got.Time.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got.Time)
	}
}

func TestPlanIDsParseBack(t *testing.T) {
	for _, leg := range AllLegTypes() {
		id, err := ClientOrderID(risk.SideLong, "SOLUSDT", testAsOf, leg)
		if err != nil {
			t.Fatalf("%s: %v", leg, err)
		}
		if got := ParseClientOrderID(id); got == nil || got.Leg != leg {
			t.Errorf("%s should parse back to leg %s, got %+v", id, leg, got)
		}
	}
}
