package orders

import (
	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/risk"
)

// RunnerPlan is the guidance attached to the runner leg.
const RunnerPlan = "Trail structure (next swings)"

// DefaultNotes are attached to every plan.
var DefaultNotes = []string{
	"Stage A = sweep intrabar (watch). Stage B = close confirm (trade allowed).",
	"Use reduce-only for TP/SL if supported.",
	"Set isolated margin and confirm one-way position mode before entry.",
	"Runner is manual trail in MVP.",
}

// PlanBuilder maps levels and a position to an OrderPlan.
type PlanBuilder struct {
	notes []string
}

// NewPlanBuilder creates a builder. Empty notes use DefaultNotes.
func NewPlanBuilder(notes []string) *PlanBuilder {
	if len(notes) == 0 {
		notes = DefaultNotes
	}
	return &PlanBuilder{notes: notes}
}

// Build returns nil when levels or pos is nil. asOf is the trigger candle
// time used for the suggested client order IDs; 0 omits them.
func (pb *PlanBuilder) Build(symbol string, levels *risk.Levels, pos *risk.Position, asOf int64) *OrderPlan {
	if levels == nil || pos == nil {
		return nil
	}

	entrySide, exitSide := sidesFor(levels.Direction)
	p := levels.Partials

	plan := &OrderPlan{
		Symbol:     symbol,
		EntrySide:  entrySide,
		EntryType:  EntryTypeOnTrigger,
		EntryPrice: levels.Entry,
		Quantity:   pos.Quantity,
		Notional:   pos.Notional,
		StopLoss: StopLeg{
			Price:      levels.Stop,
			Side:       exitSide,
			ReduceOnly: true,
		},
		TakeProfits: []TakeProfitLeg{
			{Name: string(LegTP1), Price: levels.TP1, QtyPct: p.TP1Pct, Side: exitSide, ReduceOnly: true},
			{Name: string(LegTP2), Price: levels.TP2, QtyPct: p.TP2Pct, Side: exitSide, ReduceOnly: true},
		},
		Runner: RunnerLeg{QtyPct: p.RunnerPct, Plan: RunnerPlan},
		Notes:  append([]string(nil), pb.notes...),
	}

	if asOf > 0 {
		pb.assignClientOrderIDs(plan, levels.Direction, asOf)
	}
	return plan
}

func (pb *PlanBuilder) assignClientOrderIDs(plan *OrderPlan, dir risk.Side, asOf int64) {
	ids := make(map[LegType]string, 4)
	for _, leg := range []LegType{LegEntry, LegStop, LegTP1, LegTP2} {
		id, err := ClientOrderID(dir, plan.Symbol, asOf, leg)
		if err != nil {
			// IDs are a convenience; the plan stays valid without them.
			logging.Debug("client order id skipped", "symbol", plan.Symbol, "leg", leg, "error", err)
			return
		}
		ids[leg] = id
	}
	plan.ClientOrderID = ids[LegEntry]
	plan.StopLoss.ClientOrderID = ids[LegStop]
	plan.TakeProfits[0].ClientOrderID = ids[LegTP1]
	plan.TakeProfits[1].ClientOrderID = ids[LegTP2]
}
