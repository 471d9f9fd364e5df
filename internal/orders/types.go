// Package orders turns levels and a sized position into a descriptive,
// non-executing order plan.
package orders

import "guardian-futures-engine/internal/risk"

// Side is the venue order side
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// EntryTypeOnTrigger means enter at market once the trigger has confirmed.
const EntryTypeOnTrigger = "MARKET_ON_TRIGGER"

// LegType represents the purpose of one leg in a plan
type LegType string

const (
	LegEntry  LegType = "E"   // Entry at the reclaim level
	LegStop   LegType = "SL"  // Reduce-only stop loss
	LegTP1    LegType = "TP1" // First partial
	LegTP2    LegType = "TP2" // Second partial
	LegRunner LegType = "RUN" // Manually trailed remainder
)

// AllLegTypes returns all valid leg types
func AllLegTypes() []LegType {
	return []LegType{LegEntry, LegStop, LegTP1, LegTP2, LegRunner}
}

// sidesFor returns the entry and exit sides for a trade direction.
func sidesFor(dir risk.Side) (entry, exit Side) {
	if dir == risk.SideShort {
		return SideSell, SideBuy
	}
	return SideBuy, SideSell
}

// StopLeg is the protective exit
type StopLeg struct {
	Price         float64 `json:"price"`
	Side          Side    `json:"side"`
	ReduceOnly    bool    `json:"reduceOnly"`
	ClientOrderID string  `json:"clientOrderId,omitempty"`
}

// TakeProfitLeg is one partial exit
type TakeProfitLeg struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	QtyPct        float64 `json:"qtyPct"`
	Side          Side    `json:"side"`
	ReduceOnly    bool    `json:"reduceOnly"`
	ClientOrderID string  `json:"clientOrderId,omitempty"`
}

// RunnerLeg is the remainder left open after the partials
type RunnerLeg struct {
	QtyPct float64 `json:"qtyPct"`
	Plan   string  `json:"plan"`
}

// OrderPlan is advice only. Nothing in it is sent to a venue.
type OrderPlan struct {
	Symbol        string          `json:"symbol"`
	EntrySide     Side            `json:"entrySide"`
	EntryType     string          `json:"entryType"`
	EntryPrice    float64         `json:"entryPrice"`
	Quantity      float64         `json:"qtyApprox"`
	Notional      float64         `json:"notionalUSD"`
	ClientOrderID string          `json:"clientOrderId,omitempty"`
	StopLoss      StopLeg         `json:"stopLoss"`
	TakeProfits   []TakeProfitLeg `json:"takeProfits"`
	Runner        RunnerLeg       `json:"runner"`
	Notes         []string        `json:"notes"`
}
