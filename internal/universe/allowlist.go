// Package universe decides which symbols the engine will analyze.
//
// An Allowlist walks its providers in order and serves the first non-empty
// list. The result is cached under a TTL; concurrent refreshes may race and
// the last write wins.
package universe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guardian-futures-engine/internal/cache"
	"guardian-futures-engine/internal/events"
	"guardian-futures-engine/internal/logging"
)

// Entry is one ranked symbol
type Entry struct {
	Symbol string `json:"symbol"`
	Rank   int    `json:"rank"`
}

// Listing is a ranked universe with its source label
type Listing struct {
	Source string  `json:"source"`
	Top    []Entry `json:"top"`
}

// Symbols returns the listing's symbols in rank order
func (l *Listing) Symbols() []string {
	out := make([]string, len(l.Top))
	for i, e := range l.Top {
		out[i] = e.Symbol
	}
	return out
}

// Contains reports whether symbol is listed
func (l *Listing) Contains(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, e := range l.Top {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}

// Allowlist serves the symbol universe from a provider chain
type Allowlist struct {
	providers []Provider
	cache     cache.Cache
	ttl       time.Duration
	size      int
	bus       *events.EventBus
	log       *logging.Logger
}

// Option configures an Allowlist
type Option func(*Allowlist)

// WithCache caches listings in c for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Allowlist) {
		a.cache = c
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithSize truncates listings to n symbols
func WithSize(n int) Option {
	return func(a *Allowlist) { a.size = n }
}

// WithEventBus publishes a refresh event whenever a provider is consulted
func WithEventBus(bus *events.EventBus) Option {
	return func(a *Allowlist) { a.bus = bus }
}

// NewAllowlist tries providers in order. With no providers the static top 50 is used.
func NewAllowlist(providers []Provider, opts ...Option) *Allowlist {
	if len(providers) == 0 {
		providers = []Provider{NewStaticProvider(nil)}
	}
	a := &Allowlist{
		providers: providers,
		ttl:       cache.DefaultUniverseTTL,
		log:       logging.WithComponent("universe"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allowlist) cacheKey() string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return cache.UniverseKey(strings.Join(names, ">"))
}

// Listing returns the ranked universe. Cache errors are treated as misses.
func (a *Allowlist) Listing(ctx context.Context) (*Listing, error) {
	key := a.cacheKey()
	if a.cache != nil {
		var cached Listing
		err := cache.GetJSON(ctx, a.cache, key, &cached)
		if err == nil && len(cached.Top) > 0 {
			return &cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrMissKey) {
			a.log.Debug("universe cache read failed", "error", err)
		}
	}

	listing, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := cache.SetJSON(ctx, a.cache, key, listing, a.ttl); err != nil {
			a.log.Debug("universe cache write failed", "error", err)
		}
	}
	if a.bus != nil {
		a.bus.PublishUniverseRefreshed(listing.Source, len(listing.Top))
	}
	return listing, nil
}

func (a *Allowlist) load(ctx context.Context) (*Listing, error) {
	var errs []error
	for _, p := range a.providers {
		symbols, err := p.Symbols(ctx)
		if err == nil && len(symbols) == 0 {
			err = ErrEmptyUniverse
		}
		if err != nil {
			a.log.Warn("universe provider failed, trying next", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		symbols = normalize(symbols)
		if a.size > 0 && len(symbols) > a.size {
			symbols = symbols[:a.size]
		}
		listing := &Listing{Source: p.Name(), Top: make([]Entry, len(symbols))}
		for i, s := range symbols {
			listing.Top[i] = Entry{Symbol: s, Rank: i + 1}
		}
		return listing, nil
	}
	return nil, fmt.Errorf("no universe provider succeeded: %w", errors.Join(errs...))
}

// Symbols returns the universe in rank order
func (a *Allowlist) Symbols(ctx context.Context) ([]string, error) {
	listing, err := a.Listing(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Symbols(), nil
}

// Allowed reports whether symbol is in the universe
func (a *Allowlist) Allowed(ctx context.Context, symbol string) (bool, error) {
	listing, err := a.Listing(ctx)
	if err != nil {
		return false, err
	}
	return listing.Contains(symbol), nil
}

// Invalidate drops the cached listing
func (a *Allowlist) Invalidate(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Delete(ctx, a.cacheKey())
}
