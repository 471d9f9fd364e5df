package orders

import (
	"testing"

	"guardian-futures-engine/internal/risk"
)

const testAsOf = int64(1760711400000) // 2025-10-17 14:30 UTC

func shortLevels() *risk.Levels {
	return &risk.Levels{
		Direction: risk.SideShort,
		Entry:     93000,
		Stop:      93600,
		TP1:       92700,
		TP2:       92400,
		Partials:  risk.DefaultPartials,
	}
}

func testPosition() *risk.Position {
	return &risk.Position{RiskAmount: 3, StopDistance: 600, Notional: 465, Quantity: 0.005, LeverageHint: "2.33x (approx)"}
}

// TestBuildShortPlan tests the mapping of a short into venue sides
func TestBuildShortPlan(t *testing.T) {
	pb := NewPlanBuilder(nil)
	plan := pb.Build("BTCUSDT", shortLevels(), testPosition(), testAsOf)
	if plan == nil {
		t.Fatal("Expected a plan")
	}

	if plan.EntrySide != SideSell || plan.EntryType != EntryTypeOnTrigger || plan.EntryPrice != 93000 {
		t.Errorf("Unexpected entry: %s %s %v", plan.EntrySide, plan.EntryType, plan.EntryPrice)
	}
	if plan.Quantity != 0.005 || plan.Notional != 465 {
		t.Errorf("Expected qty 0.005 notional 465, got %v / %v", plan.Quantity, plan.Notional)
	}
	if plan.StopLoss.Side != SideBuy || plan.StopLoss.Price != 93600 || !plan.StopLoss.ReduceOnly {
		t.Errorf("Unexpected stop leg: %+v", plan.StopLoss)
	}

	if len(plan.TakeProfits) != 2 {
		t.Fatalf("Expected 2 take profits, got %d", len(plan.TakeProfits))
	}
	tp1, tp2 := plan.TakeProfits[0], plan.TakeProfits[1]
	if tp1.Name != "TP1" || tp1.Price != 92700 || tp1.QtyPct != 0.3 || tp1.Side != SideBuy || !tp1.ReduceOnly {
		t.Errorf("Unexpected TP1: %+v", tp1)
	}
	if tp2.Name != "TP2" || tp2.Price != 92400 || tp2.QtyPct != 0.3 {
		t.Errorf("Unexpected TP2: %+v", tp2)
	}
	if plan.Runner.QtyPct != 0.4 || plan.Runner.Plan != RunnerPlan {
		t.Errorf("Unexpected runner: %+v", plan.Runner)
	}
	if len(plan.Notes) != len(DefaultNotes) {
		t.Errorf("Expected default notes, got %v", plan.Notes)
	}

	if plan.ClientOrderID != "SHT-17OCT1430-BTCUSDT-E" {
		t.Errorf("Unexpected entry client order id: %s", plan.ClientOrderID)
	}
	if tp2.ClientOrderID != "SHT-17OCT1430-BTCUSDT-TP2" {
		t.Errorf("Unexpected TP2 client order id: %s", tp2.ClientOrderID)
	}
}

// TestBuildLongPlan tests the long sides
func TestBuildLongPlan(t *testing.T) {
	levels := shortLevels()
	levels.Direction = risk.SideLong

	plan := NewPlanBuilder([]string{"custom"}).Build("ETHUSDT", levels, testPosition(), 0)
	if plan.EntrySide != SideBuy || plan.StopLoss.Side != SideSell {
		t.Errorf("Expected BUY entry and SELL exits, got %s / %s", plan.EntrySide, plan.StopLoss.Side)
	}
	if plan.ClientOrderID != "" {
		t.Errorf("Expected no client order ids without asOf, got %s", plan.ClientOrderID)
	}
	if len(plan.Notes) != 1 || plan.Notes[0] != "custom" {
		t.Errorf("Expected custom notes, got %v", plan.Notes)
	}
}

// TestBuildNilInputs tests that a plan needs both levels and a position
func TestBuildNilInputs(t *testing.T) {
	pb := NewPlanBuilder(nil)
	if pb.Build("BTCUSDT", nil, testPosition(), testAsOf) != nil {
		t.Error("Expected nil plan without levels")
	}
	if pb.Build("BTCUSDT", shortLevels(), nil, testAsOf) != nil {
		t.Error("Expected nil plan without position")
	}
}

// TestBuildNotesAreCopied tests that callers cannot mutate builder notes
func TestBuildNotesAreCopied(t *testing.T) {
	pb := NewPlanBuilder(nil)
	plan := pb.Build("BTCUSDT", shortLevels(), testPosition(), 0)
	plan.Notes[0] = "changed"
	if DefaultNotes[0] == "changed" {
		t.Error("Plan notes alias the defaults")
	}
}
