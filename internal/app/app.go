// Package app wires configuration into a ready pipeline. The server binary
// and the CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/binance"
	"guardian-futures-engine/internal/cache"
	"guardian-futures-engine/internal/database"
	"guardian-futures-engine/internal/events"
	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/risk"
	"guardian-futures-engine/internal/signal"
	"guardian-futures-engine/internal/universe"
	"guardian-futures-engine/internal/vault"
)

// App holds the long-lived collaborators
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	EventBus   *events.EventBus
	Cache      cache.Cache
	DB         *database.DB
	Vault      *vault.Client
	MarketData binance.MarketData
	Steps      *risk.StepTable
	Allowlist  *universe.Allowlist
	Pipeline   *signal.Pipeline

	stopJanitor context.CancelFunc
}

// NewLogger builds the process logger from the logging section
func NewLogger(cfg config.LoggingConfig, component string) *logging.Logger {
	return logging.New(&logging.Config{
		Level:       cfg.Level,
		Output:      cfg.Output,
		JSONFormat:  cfg.JSONFormat,
		IncludeFile: cfg.IncludeFile,
		Component:   component,
	})
}

// Bootstrap overlays Vault secrets onto cfg and builds every collaborator.
// Optional backends (Vault, Redis, Postgres) degrade with a warning; only a
// failed Vault read or database connection when explicitly enabled is fatal.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logging.Default(),
		EventBus: events.NewEventBus(),
	}
	a.EventBus.SubscribeAll(a.logEvent)

	vc, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	a.Vault = vc
	if vc.IsEnabled() {
		if err := vc.Overlay(ctx, cfg); err != nil {
			return nil, fmt.Errorf("vault overlay: %w", err)
		}
	}

	a.Cache = cache.New(cfg.RedisConfig)
	if mc, ok := a.Cache.(*cache.MemoryCache); ok {
		a.startJanitor(mc)
	}

	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(ctx, cfg.DatabaseConfig)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			a.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.DB = db
	}

	a.MarketData = binance.NewMarketData(cfg.BinanceConfig)

	a.Steps = risk.NewStepTable(cfg.EngineConfig.QuantitySteps)
	if a.DB != nil && cfg.EngineConfig.LoadStepsFromStore {
		steps, err := database.NewSymbolRequirementsRepository(a.DB).StepSizes(ctx)
		if err != nil {
			a.Logger.WithError(err).Warn("Quantity steps from store unavailable, using configured table")
		} else {
			n := a.Steps.Merge(steps)
			a.Logger.Info("Loaded quantity steps from store", "count", n)
		}
	}

	var store universe.UniverseStore
	if a.DB != nil {
		store = database.NewUniverseRepository(a.DB)
	}
	uc := cfg.UniverseConfig
	a.Allowlist = universe.NewAllowlist(
		universe.Chain(uc.Source, uc.Size, store, a.MarketData),
		universe.WithCache(a.Cache, uc.CacheTTL),
		universe.WithSize(uc.Size),
		universe.WithEventBus(a.EventBus),
	)

	a.Pipeline = signal.New(
		signal.ConfigFromEngine(cfg.EngineConfig),
		binance.NewCandleSource(a.MarketData),
		signal.WithAllowlist(a.Allowlist),
		signal.WithSteps(a.Steps),
		signal.WithEventBus(a.EventBus),
	)

	a.Logger.Info("Engine ready",
		"universe_source", uc.Source,
		"mock_market_data", cfg.BinanceConfig.MockMode,
		"database", a.DB != nil,
		"redis", cfg.RedisConfig.Enabled,
		"vault", vc.IsEnabled(),
	)
	return a, nil
}

// HealthChecks returns a probe per enabled backend
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if a.DB != nil {
		checks["database"] = a.DB.Ping
	}
	if rc, ok := a.Cache.(*cache.RedisCache); ok {
		checks["cache"] = rc.Ping
	}
	if a.Vault != nil && a.Vault.IsEnabled() {
		checks["vault"] = a.Vault.Health
	}
	if fc, ok := a.MarketData.(*binance.FuturesClient); ok {
		checks["binance"] = fc.Health
	}
	return checks
}

// logEvent traces bus traffic. Error events are logged as warnings.
// Event data is shared between subscribers and must not be modified.
func (a *App) logEvent(e events.Event) {
	l := a.Logger.WithComponent("events")
	if e.Type == events.EventError {
		l.Warn("engine error event",
			"source", e.Data["source"], "message", e.Data["message"], "error", e.Data["error"])
		return
	}
	l.Debug("event", "type", string(e.Type), "symbol", e.Data["symbol"], "state", e.Data["state"])
}

// startJanitor evicts expired memory cache entries once a minute
func (a *App) startJanitor(mc *cache.MemoryCache) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopJanitor = cancel
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mc.CleanupExpired()
			}
		}
	}()
}

// Close releases backends. Safe on a partially built App.
func (a *App) Close() {
	if a.stopJanitor != nil {
		a.stopJanitor()
	}
	if rc, ok := a.Cache.(*cache.RedisCache); ok {
		st := rc.GetStats()
		a.Logger.Info("closing redis cache", "healthy", st.Healthy, "failures", st.FailureCount)
		if err := rc.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close redis cache")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
