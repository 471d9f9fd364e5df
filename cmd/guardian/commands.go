package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/app"
	"guardian-futures-engine/internal/auth"
	"guardian-futures-engine/internal/binance"
	"guardian-futures-engine/internal/database"
	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/signal"
)

// loadConfig reads config and routes logs to stderr so stdout stays parseable
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lc := cfg.LoggingConfig
	lc.Output = "stderr"
	lc.JSONFormat = false
	lc.Level = "WARN"
	if verbose {
		lc.Level = "DEBUG"
	}
	logging.SetDefault(app.NewLogger(lc, "cli"))
	return cfg, nil
}

func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(ctx, cfg)
}

func analyzeCmd() *cobra.Command {
	var (
		equity   float64
		testMode bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Evaluate one symbol and print the result card",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			symbol := "BTCUSDT"
			if len(args) > 0 {
				symbol = args[0]
			}
			if !cmd.Flags().Changed("equity") {
				equity = a.Config.EngineConfig.DefaultEquity
			}

			res := a.Pipeline.Evaluate(ctx, signal.Request{
				Symbol:   symbol,
				Equity:   equity,
				TestMode: testMode,
			})
			return render(cmd.OutOrStdout(), output, res)
		},
	}

	cmd.Flags().Float64VarP(&equity, "equity", "e", 200, "Account equity in USDT (default from config)")
	cmd.Flags().BoolVar(&testMode, "test", false, "Return the forced test-mode trade card")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	return cmd
}

func universeCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Print the ranked symbol allowlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if refresh {
				if err := a.Allowlist.Invalidate(ctx); err != nil {
					return fmt.Errorf("invalidate universe cache: %w", err)
				}
			}
			listing, err := a.Allowlist.Listing(ctx)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, map[string]interface{}{
				"ts":     time.Now().UnixMilli(),
				"source": listing.Source,
				"top":    listing.Top,
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop the cached listing before reading")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		clientID string
		scope    string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AuthConfig.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.AuthConfig.AccessTokenDuration
			}

			tok, err := auth.NewJWTManager(cfg.AuthConfig.JWTSecret, ttl).
				GenerateAccessToken(auth.ClientClaims{ClientID: clientID, Scope: scope})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, tok)
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Caller identity embedded in the token")
	cmd.Flags().StringVar(&scope, "scope", "analyze", "Token scope")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default from config)")
	cmd.MarkFlagRequired("client-id")
	return cmd
}

func hashKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to configure as AUTH_API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAPIKey(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", auth.DefaultBcryptCost, "bcrypt cost")
	return cmd
}

func syncRequirementsCmd() *cobra.Command {
	var (
		withUniverse bool
		size         int
	)

	cmd := &cobra.Command{
		Use:   "sync-requirements",
		Short: "Store venue LOT_SIZE filters (and optionally the ranked universe) in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.DB == nil {
				return fmt.Errorf("database is disabled (set DB_ENABLED=true)")
			}

			lots, err := binance.LotSizeSteps(ctx, a.MarketData)
			if err != nil {
				return fmt.Errorf("fetch exchange info: %w", err)
			}
			reqs := requirementsFromLots(lots, time.Now().UTC())
			n, err := database.NewSymbolRequirementsRepository(a.DB).BulkUpsert(ctx, reqs)
			if err != nil {
				return err
			}
			summary := map[string]interface{}{"requirements": n}

			if withUniverse {
				if size <= 0 {
					size = a.Config.UniverseConfig.Size
				}
				symbols, err := binance.TopSymbolsByQuoteVolume(ctx, a.MarketData, size)
				if err != nil {
					return fmt.Errorf("rank universe: %w", err)
				}
				if err := database.NewUniverseRepository(a.DB).Replace(ctx, "exchange", symbols); err != nil {
					return err
				}
				if err := a.Allowlist.Invalidate(ctx); err != nil {
					logging.WithError(err).Warn("Failed to drop cached universe")
				}
				summary["universe"] = len(symbols)
			}

			return render(cmd.OutOrStdout(), output, summary)
		},
	}

	cmd.Flags().BoolVar(&withUniverse, "universe", false, "Also replace symbol_universe with the top symbols by quote volume")
	cmd.Flags().IntVar(&size, "size", 0, "Universe size (default from config)")
	return cmd
}

// requirementsFromLots maps venue filters to rows, sorted by symbol
func requirementsFromLots(lots map[string]binance.SymbolLot, now time.Time) []*database.SymbolRequirements {
	out := make([]*database.SymbolRequirements, 0, len(lots))
	for symbol, lot := range lots {
		out = append(out, &database.SymbolRequirements{
			Symbol:            strings.ToUpper(symbol),
			PricePrecision:    lot.PricePrecision,
			QuantityPrecision: lot.QuantityPrecision,
			TickSize:          lot.TickSize,
			StepSize:          lot.StepSize,
			MinQty:            lot.MinQty,
			MinNotional:       lot.MinNotional,
			Status:            "TRADING",
			LastSyncedAt:      now,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

