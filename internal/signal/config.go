package signal

import (
	"time"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/analysis"
	"guardian-futures-engine/internal/risk"
	"guardian-futures-engine/internal/trigger"
)

// Config drives one parameterized pipeline. A zero or negative numeric field
// selects its default in the stage it feeds, so thresholds and buffers of
// exactly 0 cannot be configured; use a small positive value instead.
type Config struct {
	HTFInterval    string        `json:"htfInterval"`
	LTFInterval    string        `json:"ltfInterval"`
	CandleLimit    int           `json:"candleLimit"`
	SwingLook      int           `json:"swingLook"`
	ATRLength      int           `json:"atrLength"`
	MinATRPct      float64       `json:"minAtrPct"`
	PullbackWindow int           `json:"pullbackWindow"`
	TriggerBuffer  float64       `json:"triggerBufferFraction"`
	StopBuffer     float64       `json:"stopBufferFraction"`
	RiskFraction   float64       `json:"riskFraction"`
	FetchTimeout   time.Duration `json:"fetchTimeout"`
}

// DefaultConfig returns the 15m/5m configuration
func DefaultConfig() Config {
	return Config{
		HTFInterval:    "15m",
		LTFInterval:    "5m",
		CandleLimit:    240,
		SwingLook:      analysis.DefaultSwingLook,
		ATRLength:      analysis.DefaultATRLength,
		MinATRPct:      analysis.DefaultMinATRPct,
		PullbackWindow: trigger.DefaultPullbackWindow,
		TriggerBuffer:  trigger.DefaultBufferFraction,
		StopBuffer:     risk.DefaultLevelConfig().StopBufferFraction,
		RiskFraction:   risk.DefaultRiskFraction,
		FetchTimeout:   8 * time.Second,
	}
}

// ConfigFromEngine maps the engine config section, keeping defaults for zero values
func ConfigFromEngine(ec config.EngineConfig) Config {
	c := DefaultConfig()
	if ec.HTFInterval != "" {
		c.HTFInterval = ec.HTFInterval
	}
	if ec.LTFInterval != "" {
		c.LTFInterval = ec.LTFInterval
	}
	if ec.CandleLimit > 0 {
		c.CandleLimit = ec.CandleLimit
	}
	if ec.SwingLook > 0 {
		c.SwingLook = ec.SwingLook
	}
	if ec.ATRLength > 0 {
		c.ATRLength = ec.ATRLength
	}
	if ec.MinATRPct > 0 {
		c.MinATRPct = ec.MinATRPct
	}
	if ec.PullbackWindow > 0 {
		c.PullbackWindow = ec.PullbackWindow
	}
	if ec.TriggerBuffer > 0 {
		c.TriggerBuffer = ec.TriggerBuffer
	}
	if ec.StopBuffer > 0 {
		c.StopBuffer = ec.StopBuffer
	}
	if ec.RiskFraction > 0 {
		c.RiskFraction = ec.RiskFraction
	}
	if ec.FetchTimeout > 0 {
		c.FetchTimeout = ec.FetchTimeout
	}
	return c
}
