// Package trigger implements the two-stage sweep/confirm entry trigger.
//
// The engine keeps no history. Every call infers the stage from the
// lower-timeframe window it is given, so repeated polls can report SWEPT for
// different sweeps as price moves.
package trigger

import (
	"fmt"

	"guardian-futures-engine/internal/analysis"
	"guardian-futures-engine/internal/format"
)

// Stage is the inferred position of the setup in the trigger sequence
type Stage string

const (
	StageNone        Stage = "NONE"
	StageSwept       Stage = "SWEPT"
	StageConfirmed   Stage = "CONFIRMED"
	StageInvalidated Stage = "INVALIDATED"
)

const (
	DefaultPullbackWindow = 24
	DefaultBufferFraction = 0.05
)

// Config holds trigger tuning. A non-positive BufferFraction means the
// default, so a zero buffer cannot be set.
type Config struct {
	PullbackWindow int     `json:"pullback_window"`
	BufferFraction float64 `json:"buffer_fraction"`
	// Timeframe labels the lower-timeframe candles in reasons ("5m").
	Timeframe string `json:"timeframe"`
}

// DefaultConfig returns the standard trigger configuration
func DefaultConfig() Config {
	return Config{
		PullbackWindow: DefaultPullbackWindow,
		BufferFraction: DefaultBufferFraction,
		Timeframe:      "5m",
	}
}

// Setup is the higher-timeframe context the trigger evaluates against.
type Setup struct {
	Direction analysis.TrendDirection
	Protected float64
	Reclaim   float64
	ATR       float64
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Stage           Stage    `json:"stage"`
	Reason          string   `json:"reason"`
	Why             []string `json:"why"`
	Threshold       float64  `json:"threshold"`
	PullbackExtreme float64  `json:"pullbackExtreme"`
}

// Actionable reports whether a trade may be planned.
func (o Outcome) Actionable() bool {
	return o.Stage == StageConfirmed
}

// Engine evaluates sweep/confirm triggers
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling zero fields from DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.PullbackWindow <= 0 {
		cfg.PullbackWindow = def.PullbackWindow
	}
	if cfg.BufferFraction <= 0 {
		cfg.BufferFraction = def.BufferFraction
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = def.Timeframe
	}
	return &Engine{cfg: cfg}
}

// polarity words for one side of the market.
type sideWords struct {
	protected string // "protected high"
	label     string // "Protected high"
	extreme   string // "Pullback high"
	probe     string // "low"
	cmp       string // "<"
	breach    string // ">="
	candle    string // "red"
}

func wordsFor(s float64) sideWords {
	if s > 0 {
		return sideWords{"protected low", "Protected low", "Pullback low", "high", ">", "<=", "green"}
	}
	return sideWords{"protected high", "Protected high", "Pullback high", "low", "<", ">=", "red"}
}

// Evaluate runs the pullback check and both stages on ltf. The setup
// direction must be UP or DOWN and ltf must not be empty; anything else is
// reported as StageNone.
func (e *Engine) Evaluate(setup Setup, ltf []analysis.Candle) Outcome {
	s := setup.Direction.Polarity()
	if s == 0 || len(ltf) == 0 {
		return Outcome{
			Stage:  StageNone,
			Reason: "No directional setup to trigger.",
			Why:    []string{"✖ Trigger skipped"},
		}
	}

	w := wordsFor(s)
	tf := e.cfg.Timeframe
	px := func(x float64) string { return format.Price(x, setup.Reclaim) }
	recent := analysis.Tail(ltf, e.cfg.PullbackWindow)
	last := ltf[len(ltf)-1]

	// The pullback extreme moves against the trade: highs for a short,
	// lows for a long.
	extreme := analysis.MaxHigh(recent)
	probe := last.Low
	if s > 0 {
		extreme = analysis.MinLow(recent)
		probe = last.High
	}

	buffer := setup.ATR * e.cfg.BufferFraction
	threshold := setup.Reclaim + s*buffer

	if s*(setup.Protected-extreme) >= 0 {
		return Outcome{
			Stage:           StageInvalidated,
			Reason:          fmt.Sprintf("Pullback invalid: broke %s (%s).", w.protected, px(setup.Protected)),
			Why:             []string{fmt.Sprintf("✖ %s %s %s %s %s", w.extreme, px(extreme), w.breach, w.protected, px(setup.Protected))},
			Threshold:       threshold,
			PullbackExtreme: extreme,
		}
	}

	swept := s*(probe-setup.Reclaim) > 0
	closeConfirm := s*(last.Close-threshold) > 0
	candleConfirm := s*(last.Close-last.Open) > 0

	levelsWhy := []string{
		fmt.Sprintf("✔ %s: %s", w.label, px(setup.Protected)),
		fmt.Sprintf("✔ Reclaim: %s", px(setup.Reclaim)),
	}
	thr := px(threshold)

	out := Outcome{Threshold: threshold, PullbackExtreme: extreme}
	switch {
	case closeConfirm && candleConfirm:
		out.Stage = StageConfirmed
		out.Reason = fmt.Sprintf("Trigger confirmed: %s close %s %s %s.", tf, px(last.Close), w.cmp, thr)
		out.Why = []string{fmt.Sprintf("✔ Stage B confirm: close %s %s and %s candle", w.cmp, thr, w.candle)}
	case swept:
		out.Stage = StageSwept
		out.Reason = fmt.Sprintf("Reclaim swept intrabar (%s %s %s %s %s). Waiting for close confirm.",
			tf, w.probe, px(probe), w.cmp, px(setup.Reclaim))
		out.Why = append(levelsWhy,
			fmt.Sprintf("✔ Stage A: sweep (%s %s %s reclaim %s)", w.probe, px(probe), w.cmp, px(setup.Reclaim)),
			fmt.Sprintf("⏳ Stage B: close %s %s AND %s candle", w.cmp, thr, w.candle),
		)
	default:
		out.Stage = StageNone
		out.Reason = fmt.Sprintf("Waiting: %s close %s %s and %s candle. (close %s)", tf, w.cmp, thr, w.candle, px(last.Close))
		out.Why = append(levelsWhy, fmt.Sprintf("⏳ Need: close %s %s + %s candle", w.cmp, thr, w.candle))
	}
	return out
}

