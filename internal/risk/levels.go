package risk

import (
	"errors"
	"fmt"

	"guardian-futures-engine/internal/format"
)

// ErrNoLevels is returned when the stop does not sit on the losing side of entry.
var ErrNoLevels = errors.New("no levels")

// Side is the trade direction
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Polarity returns +1 for LONG and -1 for SHORT.
func (s Side) Polarity() float64 {
	if s == SideLong {
		return 1
	}
	return -1
}

// Partials splits a position across targets. The three fractions sum to 1.
type Partials struct {
	TP1Pct    float64 `json:"tp1Pct"`
	TP2Pct    float64 `json:"tp2Pct"`
	RunnerPct float64 `json:"runnerPct"`
}

// DefaultPartials is the fixed 30/30/40 allocation.
var DefaultPartials = Partials{TP1Pct: 0.3, TP2Pct: 0.3, RunnerPct: 0.4}

// Levels are the prices of a planned trade, rounded to the entry's price
// precision (4 decimals from 1 upwards).
type Levels struct {
	Direction Side     `json:"dir"`
	Entry     float64  `json:"entry"`
	Stop      float64  `json:"stop"`
	TP1       float64  `json:"tp1"`
	TP2       float64  `json:"tp2"`
	Partials  Partials `json:"partials"`
}

// R returns the entry-to-stop distance.
func (l *Levels) R() float64 {
	return l.Direction.Polarity() * (l.Entry - l.Stop)
}

// LevelConfig holds level construction parameters
type LevelConfig struct {
	StopBufferFraction float64 `json:"stop_buffer_fraction"` // of ATR, beyond the protected level
	TP1R               float64 `json:"tp1_r"`
	TP2R               float64 `json:"tp2_r"`
}

// DefaultLevelConfig returns stop buffer 10% ATR, targets at 0.5R and 1R
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{StopBufferFraction: 0.10, TP1R: 0.5, TP2R: 1.0}
}

// LevelBuilder converts a confirmed trigger into entry, stop and targets
type LevelBuilder struct {
	cfg LevelConfig
}

// NewLevelBuilder creates a builder; zero fields take the defaults.
func NewLevelBuilder(cfg LevelConfig) *LevelBuilder {
	def := DefaultLevelConfig()
	if cfg.StopBufferFraction <= 0 {
		cfg.StopBufferFraction = def.StopBufferFraction
	}
	if cfg.TP1R <= 0 {
		cfg.TP1R = def.TP1R
	}
	if cfg.TP2R <= 0 {
		cfg.TP2R = def.TP2R
	}
	return &LevelBuilder{cfg: cfg}
}

// Build places the stop beyond protected by ATR*StopBufferFraction and the
// targets at TP1R and TP2R multiples of the risk distance. Prices are rounded
// to format.PriceDecimals(entry); ErrNoLevels is returned when the rounded
// stop or first target no longer sits apart from entry.
func (lb *LevelBuilder) Build(side Side, entry, protected, atr float64) (*Levels, error) {
	s := side.Polarity()
	stop := protected - s*atr*lb.cfg.StopBufferFraction
	r := s * (entry - stop)
	if !format.Finite(r) || r <= 0 {
		return nil, fmt.Errorf("%w: entry %v stop %v", ErrNoLevels, entry, stop)
	}

	dp := format.PriceDecimals(entry)
	levels := &Levels{
		Direction: side,
		Entry:     format.Round(entry, dp),
		Stop:      format.Round(stop, dp),
		TP1:       format.Round(entry+s*lb.cfg.TP1R*r, dp),
		TP2:       format.Round(entry+s*lb.cfg.TP2R*r, dp),
		Partials:  DefaultPartials,
	}
	if levels.R() <= 0 || s*(levels.TP1-levels.Entry) <= 0 {
		return nil, fmt.Errorf("%w: risk distance %v lost at %d decimals", ErrNoLevels, r, dp)
	}
	return levels, nil
}
