// Package cache provides TTL-bounded key/value caching for shared lookups
// such as the symbol universe. A Redis-backed implementation degrades to
// errors when Redis is down; callers treat any error as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissKey is returned when a key is absent or expired
var ErrMissKey = errors.New("cache: key not found")

// Cache is a byte-oriented key/value store with per-entry TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key prefixes for cached values
const (
	PrefixUniverse = "guardian:universe:%s"
)

// DefaultUniverseTTL bounds how long a universe listing is reused
const DefaultUniverseTTL = 5 * time.Minute

// UniverseKey generates the cache key for a universe source
func UniverseKey(source string) string {
	return fmt.Sprintf(PrefixUniverse, source)
}

// GetJSON retrieves and unmarshals a JSON value from c
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

// SetJSON marshals and stores a JSON value in c
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
