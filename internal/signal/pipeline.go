// Package signal runs one evaluation of the trading pipeline: fetch, swings,
// trend, volatility gate, trigger, levels, sizing and the order plan.
//
// A Pipeline is immutable after New and safe for concurrent use. Evaluate
// never returns an error; every failure becomes a NO_TRADE or BLOCKED result.
package signal

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"guardian-futures-engine/internal/analysis"
	"guardian-futures-engine/internal/binance"
	"guardian-futures-engine/internal/events"
	"guardian-futures-engine/internal/format"
	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/orders"
	"guardian-futures-engine/internal/risk"
	"guardian-futures-engine/internal/trigger"
)

// CandleSource supplies ascending OHLC candles
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]analysis.Candle, error)
}

// Allowlist is the admission check
type Allowlist interface {
	Allowed(ctx context.Context, symbol string) (bool, error)
}

// Request is one evaluation input
type Request struct {
	Symbol   string
	Equity   float64
	TestMode bool
}

// Pipeline composes the analysis stages
type Pipeline struct {
	cfg     Config
	source  CandleSource
	allow   Allowlist
	bus     *events.EventBus
	swings  *analysis.SwingDetector
	trend   *analysis.TrendClassifier
	gate    *analysis.VolatilityGate
	trigger *trigger.Engine
	levels  *risk.LevelBuilder
	sizer   *risk.PositionSizer
	plans   *orders.PlanBuilder
}

// Option configures a Pipeline
type Option func(*pipelineOptions)

type pipelineOptions struct {
	allow Allowlist
	steps risk.StepSource
	bus   *events.EventBus
}

// WithAllowlist enables the admission check
func WithAllowlist(a Allowlist) Option {
	return func(o *pipelineOptions) { o.allow = a }
}

// WithSteps sets the quantity step source for sizing
func WithSteps(s risk.StepSource) Option {
	return func(o *pipelineOptions) { o.steps = s }
}

// WithEventBus publishes every result
func WithEventBus(bus *events.EventBus) Option {
	return func(o *pipelineOptions) { o.bus = bus }
}

// New builds a pipeline reading candles from source
func New(cfg Config, source CandleSource, opts ...Option) *Pipeline {
	var o pipelineOptions
	for _, opt := range opts {
		opt(&o)
	}

	levelCfg := risk.DefaultLevelConfig()
	levelCfg.StopBufferFraction = cfg.StopBuffer

	return &Pipeline{
		cfg:    cfg,
		source: source,
		allow:  o.allow,
		bus:    o.bus,
		swings: analysis.NewSwingDetector(cfg.SwingLook),
		trend:  analysis.NewTrendClassifier(cfg.HTFInterval),
		gate:   analysis.NewVolatilityGate(cfg.ATRLength, cfg.MinATRPct),
		trigger: trigger.NewEngine(trigger.Config{
			PullbackWindow: cfg.PullbackWindow,
			BufferFraction: cfg.TriggerBuffer,
			Timeframe:      cfg.LTFInterval,
		}),
		levels: risk.NewLevelBuilder(levelCfg),
		sizer:  risk.NewPositionSizer(cfg.RiskFraction, o.steps),
		plans:  orders.NewPlanBuilder(nil),
	}
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Evaluate runs one evaluation. The result is fully populated on every path.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) *Result {
	res := p.evaluate(ctx, req)

	logging.SignalContext(ctx, res.Symbol, res.Risk.Equity).Debug("evaluation complete",
		"state", string(res.State), "reason", res.Reason, "as_of", res.AsOf, "trade", res.HasTrade())
	if p.bus != nil {
		p.bus.PublishSignalEvaluated(res.Symbol, string(res.State), res.Reason, res)
	}
	return res
}

func (p *Pipeline) evaluate(ctx context.Context, req Request) *Result {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	res := p.newResult(symbol, req.Equity)

	if !format.Finite(req.Equity) || req.Equity <= 0 {
		return res.block("Invalid equity: must be a finite number greater than zero.",
			"✖ Equity must be a positive number")
	}

	if p.allow != nil {
		ok, err := p.allow.Allowed(ctx, symbol)
		if err != nil {
			return res.block(fmt.Sprintf("Symbol allowlist unavailable: %v", err), "✖ Universe lookup failed")
		}
		if !ok {
			return res.block("Symbol not in Guardian Top 50 allowlist (linear perps).",
				"✖ Symbol not allowed in MVP universe",
				"✔ Universe list: /api/analyze?universe=1")
		}
	}

	if req.TestMode {
		return p.forced(res, req.Equity)
	}

	htf, ltf, err := p.fetch(ctx, symbol)
	if err != nil {
		if p.bus != nil {
			p.bus.PublishError("binance", "candle fetch failed for "+symbol, err)
		}
		res.Reason = fmt.Sprintf("Data fetch failed (Binance): %v", err)
		res.Why = []string{"✖ Candle fetch failed"}
		return res
	}
	res.AsOf = ltf[len(ltf)-1].OpenTime

	// The gate runs before classification, so chop reports trend NONE.
	vol := p.gate.Evaluate(htf)
	if !vol.Passed {
		res.Reason = vol.Reason
		res.Why = []string{fmt.Sprintf("✔ Data loaded (%s/%s)", p.cfg.HTFInterval, p.cfg.LTFInterval), vol.Why}
		return res
	}

	state := p.trend.Classify(p.swings.Detect(htf))
	why := append([]string{fmt.Sprintf("✔ %s data loaded", p.cfg.HTFInterval)}, state.Why...)
	if !state.Clean() {
		res.Reason = fmt.Sprintf("%s structure not clean enough (stand down).", p.cfg.HTFInterval)
		res.Why = why
		return res
	}

	res.Trend.Direction = state.Direction

	outcome := p.trigger.Evaluate(trigger.Setup{
		Direction: state.Direction,
		Protected: state.ProtectedLevel,
		Reclaim:   state.ReclaimLevel,
		ATR:       vol.ATR,
	}, ltf)

	res.Reason = outcome.Reason
	if outcome.Stage == trigger.StageInvalidated {
		res.Why = append(why, outcome.Why...)
		return res
	}
	why = append(why, fmt.Sprintf("✔ %s data loaded", p.cfg.LTFInterval))
	res.Why = append(why, outcome.Why...)

	if outcome.Stage == trigger.StageSwept {
		res.State = StateSetupWatch
		return res
	}
	if !outcome.Actionable() {
		return res
	}

	side := risk.SideShort
	if state.Direction == analysis.TrendUp {
		side = risk.SideLong
	}
	return p.trade(res, side, state.ReclaimLevel, state.ProtectedLevel, vol.ATR, req.Equity)
}

// trade builds levels, size and plan; any failure keeps NO_TRADE.
func (p *Pipeline) trade(res *Result, side risk.Side, entry, protected, atr, equity float64) *Result {
	levels, err := p.levels.Build(side, entry, protected, atr)
	if err != nil {
		res.Reason = fmt.Sprintf("Level construction failed: %v", err)
		res.Why = append(res.Why, "✖ Non-positive R")
		return res
	}
	return p.attach(res, levels, equity)
}

func (p *Pipeline) attach(res *Result, levels *risk.Levels, equity float64) *Result {
	pos, err := p.sizer.Size(res.Symbol, equity, levels.Entry, levels.Stop)
	if err != nil {
		res.clearTrade()
		res.State = StateNoTrade
		res.Reason = fmt.Sprintf("Position sizing failed: %v", err)
		res.Why = append(res.Why, "✖ Position sizing failed")
		return res
	}

	res.Levels = levels
	res.Position = pos
	res.Orders = p.plans.Build(res.Symbol, levels, pos, res.AsOf)
	res.State = StateTradeAvailable
	return res
}

// forced returns a fixed SHORT card sized by the real sizer
func (p *Pipeline) forced(res *Result, equity float64) *Result {
	res.Trend.Direction = analysis.TrendDown
	res.Reason = "TEST MODE: Forced levels for UI verification."
	res.Why = []string{
		"✔ TEST MODE enabled",
		"✔ Returning forced TRADE_AVAILABLE (levels+position+orders)",
		"✱ Remove test=1 for real mode",
	}
	levels := &risk.Levels{
		Direction: risk.SideShort,
		Entry:     93000,
		Stop:      93600,
		TP1:       92700,
		TP2:       92400,
		Partials:  risk.DefaultPartials,
	}
	return p.attach(res, levels, equity)
}

// fetch loads both timeframes concurrently under the fetch timeout. The
// first failure or the deadline cancels the other request and no candles
// are returned.
func (p *Pipeline) fetch(ctx context.Context, symbol string) (htf, ltf []analysis.Candle, err error) {
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		htf, err = p.candles(gctx, symbol, p.cfg.HTFInterval)
		return err
	})
	g.Go(func() error {
		var err error
		ltf, err = p.candles(gctx, symbol, p.cfg.LTFInterval)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return htf, ltf, nil
}

func (p *Pipeline) candles(ctx context.Context, symbol, interval string) ([]analysis.Candle, error) {
	candles, err := p.source.Candles(ctx, symbol, interval, p.cfg.CandleLimit)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, binance.ErrEmptyCandles
	}
	return candles, nil
}

func (p *Pipeline) newResult(symbol string, equity float64) *Result {
	if !format.Finite(equity) {
		equity = 0
	}
	return &Result{
		EngineVersion: EngineVersion,
		Symbol:        symbol,
		Trend:         TrendSummary{Timeframe: p.cfg.HTFInterval, Direction: analysis.TrendNone},
		Risk:          RiskSummary{Equity: equity, Mode: RiskModeBase, RiskPercent: p.sizer.RiskFraction()},
		State:         StateNoTrade,
		Why:           []string{},
	}
}

func (r *Result) block(reason string, why ...string) *Result {
	r.State = StateBlocked
	r.Reason = reason
	r.Why = why
	return r
}
