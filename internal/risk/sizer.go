package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"guardian-futures-engine/internal/format"
	"guardian-futures-engine/internal/logging"
)

var (
	// ErrInvalidStop is returned for a zero or non-finite stop distance.
	ErrInvalidStop = errors.New("invalid stop distance")
	// ErrInvalidEquity is returned for zero, negative or non-finite equity.
	ErrInvalidEquity = errors.New("invalid equity")
)

// DefaultRiskFraction is the share of equity put at risk per trade.
const DefaultRiskFraction = 0.015

// Position is the risk-bounded size for a set of levels.
type Position struct {
	RiskAmount   float64 `json:"riskUSD"`
	StopDistance float64 `json:"stopDistance"`
	LossFraction float64 `json:"lossFrac"`
	Notional     float64 `json:"notionalUSD"`
	Quantity     float64 `json:"qtyApprox"`
	LeverageHint string  `json:"leverageHint"`
	// MinStepFallback is set when flooring gave zero and one step was used,
	// which can risk slightly more than RiskAmount.
	MinStepFallback bool `json:"minStepFallback,omitempty"`
}

// PositionSizer converts equity and levels into an order quantity
type PositionSizer struct {
	riskFraction float64
	steps        StepSource
}

// NewPositionSizer creates a sizer. A non-positive riskFraction uses the
// default and a nil steps uses the built-in table.
func NewPositionSizer(riskFraction float64, steps StepSource) *PositionSizer {
	if riskFraction <= 0 {
		riskFraction = DefaultRiskFraction
	}
	if steps == nil {
		steps = NewStepTable(nil)
	}
	return &PositionSizer{riskFraction: riskFraction, steps: steps}
}

// RiskFraction returns the configured fraction of equity at risk.
func (ps *PositionSizer) RiskFraction() float64 {
	return ps.riskFraction
}

// Size computes the position for symbol. Quantity is floored to the
// symbol's step from the unrounded risk budget and never rounded up, except
// that a zero result becomes one step. RiskAmount and Notional are rounded
// for display only.
func (ps *PositionSizer) Size(symbol string, equity, entry, stop float64) (*Position, error) {
	if !format.Finite(equity) || equity <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEquity, equity)
	}

	budget := equity * ps.riskFraction
	stopDistance := math.Abs(entry - stop)
	if !format.Finite(stopDistance) || stopDistance <= 0 {
		return nil, fmt.Errorf("%w: entry %v stop %v", ErrInvalidStop, entry, stop)
	}

	lossFraction := stopDistance / entry
	if !format.Finite(lossFraction) || lossFraction <= 0 {
		return nil, fmt.Errorf("%w: loss fraction %v", ErrInvalidStop, lossFraction)
	}

	notional := format.Round(budget/lossFraction, 2)
	step := ps.steps.Step(symbol)

	pos := &Position{
		RiskAmount:   format.Round(budget, 2),
		StopDistance: format.Round(stopDistance, format.PriceDecimals(entry)),
		LossFraction: format.Round(lossFraction, 4),
		Notional:     notional,
		LeverageHint: LeverageHint(notional, equity),
	}

	qty := maxQuantity(budget, stopDistance, step)
	if qty == 0 {
		qty = step
		pos.MinStepFallback = true
	}
	pos.Quantity = format.Round(qty, 6)

	logging.RiskContext(symbol, ps.riskFraction, pos.Quantity).Debug("position sized",
		"stop_distance", stopDistance, "step", step, "min_step_fallback", pos.MinStepFallback)
	return pos, nil
}

// maxQuantity is the largest step multiple whose loss at the stop stays
// within budget.
func maxQuantity(budget, stopDistance, step float64) float64 {
	if !format.Finite(budget) || budget <= 0 || !format.Finite(stopDistance) || stopDistance <= 0 ||
		!format.Finite(step) || step <= 0 {
		return 0
	}
	q := decimal.NewFromFloat(budget).Div(decimal.NewFromFloat(stopDistance))
	return floorDecimal(q, decimal.NewFromFloat(step))
}

// floorDecimal floors d to a multiple of step. Decimal arithmetic keeps
// values such as 0.3 with step 0.1 from being lost to binary rounding.
func floorDecimal(d, step decimal.Decimal) float64 {
	return d.Div(step).Floor().Mul(step).InexactFloat64()
}

// LeverageHint describes the leverage implied by notional on equity.
func LeverageHint(notional, equity float64) string {
	if notional > equity {
		return fmt.Sprintf("%.2fx (approx)", notional/equity)
	}
	return "1.00x"
}
