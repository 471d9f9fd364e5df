package universe

import (
	"context"
	"errors"
	"strings"

	"guardian-futures-engine/internal/binance"
	"guardian-futures-engine/internal/database"
)

// Source labels reported with each listing
const (
	SourceStatic   = "hardcoded-top50-linear-perps"
	SourceDatabase = "database-symbol-universe"
	SourceExchange = "binance-usdt-perps-by-quote-volume"
)

// ErrEmptyUniverse is returned by a provider with nothing to offer
var ErrEmptyUniverse = errors.New("universe: provider returned no symbols")

// Provider yields an ordered symbol list, most important first
type Provider interface {
	Name() string
	Symbols(ctx context.Context) ([]string, error)
}

// top50LinearPerps is the built-in allowlist, ranked
var top50LinearPerps = []string{
	"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "BNBUSDT",
	"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "LINKUSDT", "TONUSDT",
	"DOTUSDT", "MATICUSDT", "TRXUSDT", "ATOMUSDT", "LTCUSDT",
	"BCHUSDT", "ETCUSDT", "UNIUSDT", "APTUSDT", "ARBUSDT",
	"OPUSDT", "INJUSDT", "SUIUSDT", "NEARUSDT", "FILUSDT",
	"IMXUSDT", "TIAUSDT", "SEIUSDT", "RUNEUSDT", "AAVEUSDT",
	"GALAUSDT", "PEPEUSDT", "WIFUSDT", "BONKUSDT", "JUPUSDT",
	"WLDUSDT", "RNDRUSDT", "FTMUSDT", "XLMUSDT", "EOSUSDT",
	"KASUSDT", "ICPUSDT", "CRVUSDT", "MKRUSDT", "LDOUSDT",
	"STXUSDT", "THETAUSDT", "FETUSDT", "ENSUSDT", "FLOWUSDT",
}

// StaticProvider serves a fixed list
type StaticProvider struct {
	symbols []string
}

// NewStaticProvider serves symbols, or the built-in top 50 when empty
func NewStaticProvider(symbols []string) *StaticProvider {
	if len(symbols) == 0 {
		symbols = top50LinearPerps
	}
	return &StaticProvider{symbols: normalize(symbols)}
}

func (p *StaticProvider) Name() string { return SourceStatic }

func (p *StaticProvider) Symbols(context.Context) ([]string, error) {
	out := make([]string, len(p.symbols))
	copy(out, p.symbols)
	return out, nil
}

// UniverseStore is the slice of database.UniverseRepository the provider reads
type UniverseStore interface {
	ListActive(ctx context.Context, limit int) ([]database.UniverseEntry, error)
}

// DatabaseProvider reads the ranked symbol_universe table
type DatabaseProvider struct {
	store UniverseStore
	limit int
}

// NewDatabaseProvider reads at most limit rows (all when limit <= 0)
func NewDatabaseProvider(store UniverseStore, limit int) *DatabaseProvider {
	return &DatabaseProvider{store: store, limit: limit}
}

func (p *DatabaseProvider) Name() string { return SourceDatabase }

func (p *DatabaseProvider) Symbols(ctx context.Context) ([]string, error) {
	entries, err := p.store.ListActive(ctx, p.limit)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return normalize(symbols), nil
}

// ExchangeProvider ranks live USDT perpetuals by 24h quote volume
type ExchangeProvider struct {
	md   binance.MarketData
	size int
}

// NewExchangeProvider returns the top size symbols from md
func NewExchangeProvider(md binance.MarketData, size int) *ExchangeProvider {
	return &ExchangeProvider{md: md, size: size}
}

func (p *ExchangeProvider) Name() string { return SourceExchange }

func (p *ExchangeProvider) Symbols(ctx context.Context) ([]string, error) {
	return binance.TopSymbolsByQuoteVolume(ctx, p.md, p.size)
}

// normalize upper-cases and drops blanks and duplicates, keeping order
func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Chain builds the provider fallback chain for a configured source.
// Every chain ends with the static list; nil store or md drops that step.
func Chain(source string, size int, store UniverseStore, md binance.MarketData) []Provider {
	var chain []Provider
	switch strings.ToLower(source) {
	case "database", "db":
		if store != nil {
			chain = append(chain, NewDatabaseProvider(store, size))
		}
		if md != nil {
			chain = append(chain, NewExchangeProvider(md, size))
		}
	case "exchange":
		if md != nil {
			chain = append(chain, NewExchangeProvider(md, size))
		}
	}
	return append(chain, NewStaticProvider(nil))
}
