package signal

import (
	"guardian-futures-engine/internal/analysis"
	"guardian-futures-engine/internal/orders"
	"guardian-futures-engine/internal/risk"
)

// EngineVersion is stamped on every result
const EngineVersion = "FULL_STAGE_TRIGGER_V2"

// RiskModeBase is the only sizing mode
const RiskModeBase = "BASE"

// State is the advice carried by a result
type State string

const (
	StateNoTrade        State = "NO_TRADE"
	StateSetupWatch     State = "SETUP_WATCH"
	StateTradeAvailable State = "TRADE_AVAILABLE"
	StateBlocked        State = "BLOCKED"
)

// TrendSummary is the higher-timeframe bias
type TrendSummary struct {
	Timeframe string                  `json:"tf"`
	Direction analysis.TrendDirection `json:"dir"`
}

// RiskSummary echoes the sizing inputs
type RiskSummary struct {
	Equity      float64 `json:"equity"`
	Mode        string  `json:"mode"`
	RiskPercent float64 `json:"riskPercent"`
}

// Result is one evaluation. Levels, Position and Orders are either all set
// (TRADE_AVAILABLE) or all nil.
type Result struct {
	EngineVersion string            `json:"engineVersion"`
	AsOf          int64             `json:"asOf"`
	Symbol        string            `json:"symbol"`
	Trend         TrendSummary      `json:"trend"`
	Risk          RiskSummary       `json:"risk"`
	Levels        *risk.Levels      `json:"levels"`
	Position      *risk.Position    `json:"position"`
	Orders        *orders.OrderPlan `json:"orders"`
	State         State             `json:"state"`
	Reason        string            `json:"reason"`
	Why           []string          `json:"why"`
}

// HasTrade reports a complete trade card
func (r *Result) HasTrade() bool {
	return r.State == StateTradeAvailable && r.Levels != nil && r.Position != nil && r.Orders != nil
}

func (r *Result) clearTrade() {
	r.Levels = nil
	r.Position = nil
	r.Orders = nil
}
