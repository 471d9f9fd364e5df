package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/logging"
)

// ErrUnavailable is returned while the Redis circuit is open
var ErrUnavailable = errors.New("redis unavailable (circuit breaker open)")

// RedisCache provides Redis-based caching with graceful degradation.
// When Redis is unavailable, operations return errors that callers should
// handle by falling back to their source of truth.
type RedisCache struct {
	client       *redis.Client
	config       config.RedisConfig
	log          zerolog.Logger
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	// Circuit breaker settings
	maxFailures   int
	checkInterval time.Duration
}

// NewRedisCache creates a RedisCache and verifies connectivity.
// A failed ping returns the cache in degraded mode rather than an error.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &RedisCache{
		client:        client,
		config:        cfg,
		log:           logging.WithComponent("cache").Zerolog(),
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rc.log.Warn().Err(err).Str("address", cfg.Address).Msg("initial Redis connection failed, running degraded")
		rc.lastCheck = time.Now()
		return rc, nil
	}

	rc.healthy = true
	rc.lastCheck = time.Now()
	rc.log.Info().Str("address", cfg.Address).Msg("Redis connected")
	return rc, nil
}

// IsHealthy returns whether Redis is currently available.
func (rc *RedisCache) IsHealthy() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.healthy
}

func (rc *RedisCache) recordFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount++
	if rc.failureCount >= rc.maxFailures {
		if rc.healthy {
			rc.log.Warn().Int("failures", rc.failureCount).Msg("circuit breaker OPEN: Redis marked unhealthy")
		}
		rc.healthy = false
	}
}

func (rc *RedisCache) recordSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.healthy {
		rc.log.Info().Msg("circuit breaker CLOSED: Redis recovered")
	}
	rc.healthy = true
	rc.failureCount = 0
	rc.lastCheck = time.Now()
}

// checkHealth pings in the background once checkInterval has passed while unhealthy
func (rc *RedisCache) checkHealth() {
	rc.mu.Lock()
	shouldCheck := !rc.healthy && time.Since(rc.lastCheck) >= rc.checkInterval
	if shouldCheck {
		rc.lastCheck = time.Now()
	}
	rc.mu.Unlock()

	if !shouldCheck {
		return
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := rc.client.Ping(pingCtx).Err(); err == nil {
			rc.recordSuccess()
		}
	}()
}

// Get retrieves a value from Redis. A missing key yields ErrMissKey.
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	rc.checkHealth()
	if !rc.IsHealthy() {
		return nil, ErrUnavailable
	}

	result, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMissKey // Cache miss, not a failure
		}
		rc.recordFailure()
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	rc.recordSuccess()
	return result, nil
}

// Set stores a value in Redis with TTL.
func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rc.checkHealth()
	if !rc.IsHealthy() {
		return ErrUnavailable
	}

	if err := rc.client.Set(ctx, key, value, ttl).Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("redis set failed: %w", err)
	}

	rc.recordSuccess()
	return nil
}

// Delete removes a key from Redis.
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	rc.checkHealth()
	if !rc.IsHealthy() {
		return ErrUnavailable
	}

	if err := rc.client.Del(ctx, key).Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("redis delete failed: %w", err)
	}

	rc.recordSuccess()
	return nil
}

// Ping checks Redis connectivity.
func (rc *RedisCache) Ping(ctx context.Context) error {
	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.recordFailure()
		return err
	}
	rc.recordSuccess()
	return nil
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	if rc.client != nil {
		return rc.client.Close()
	}
	return nil
}

// Stats returns cache statistics for monitoring.
type Stats struct {
	Healthy      bool   `json:"healthy"`
	FailureCount int    `json:"failure_count"`
	Address      string `json:"address"`
	PoolSize     int    `json:"pool_size"`
}

// GetStats returns current cache statistics.
func (rc *RedisCache) GetStats() Stats {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return Stats{
		Healthy:      rc.healthy,
		FailureCount: rc.failureCount,
		Address:      rc.config.Address,
		PoolSize:     rc.config.PoolSize,
	}
}

// New returns a RedisCache when Redis is enabled, otherwise a MemoryCache
func New(cfg config.RedisConfig) Cache {
	if !cfg.Enabled {
		return NewMemoryCache()
	}
	rc, err := NewRedisCache(cfg)
	if err != nil {
		logging.WithComponent("cache").Warn("falling back to memory cache", "error", err)
		return NewMemoryCache()
	}
	return rc
}

var _ Cache = (*RedisCache)(nil)
var _ Cache = (*MemoryCache)(nil)
