package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"guardian-futures-engine/config"
)

func newClockedMemoryCache(start time.Time) (*MemoryCache, *time.Time) {
	now := start
	mc := NewMemoryCache()
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	mc, now := newClockedMemoryCache(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := mc.Set(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := mc.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	*now = now.Add(59 * time.Second)
	if _, err := mc.Get(ctx, "k"); err != nil {
		t.Fatalf("entry should still be live: %v", err)
	}

	*now = now.Add(time.Second)
	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrMissKey) {
		t.Fatalf("expected ErrMissKey at expiry, got %v", err)
	}

	if removed := mc.CleanupExpired(); removed != 1 || mc.Len() != 0 {
		t.Errorf("CleanupExpired removed %d, len %d", removed, mc.Len())
	}
}

func TestMemoryCacheLastWriteWins(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	_ = mc.Set(ctx, "k", []byte("first"), 0)
	_ = mc.Set(ctx, "k", []byte("second"), 0)
	got, _ := mc.Get(ctx, "k")
	if string(got) != "second" {
		t.Errorf("got %q, want second", got)
	}

	_ = mc.Delete(ctx, "k")
	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrMissKey) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	buf := []byte("abc")
	_ = mc.Set(ctx, "k", buf, 0)
	buf[0] = 'x'

	got, _ := mc.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _ := mc.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased stored buffer: %q", again)
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mc.Set(ctx, "shared", []byte{byte(i)}, time.Minute)
				_, _ = mc.Get(ctx, "shared")
			}
		}(i)
	}
	wg.Wait()

	if _, err := mc.Get(ctx, "shared"); err != nil {
		t.Fatalf("Get after concurrent writes: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	type payload struct {
		Symbols []string `json:"symbols"`
	}
	if err := SetJSON(ctx, mc, UniverseKey("static"), payload{Symbols: []string{"BTCUSDT"}}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out payload
	if err := GetJSON(ctx, mc, "guardian:universe:static", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(out.Symbols) != 1 || out.Symbols[0] != "BTCUSDT" {
		t.Errorf("unexpected payload %+v", out)
	}

	_ = mc.Set(ctx, "bad", []byte("{"), 0)
	if err := GetJSON(ctx, mc, "bad", &out); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestNewWithoutRedisUsesMemory(t *testing.T) {
	c := New(config.RedisConfig{Enabled: false})
	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("expected *MemoryCache, got %T", c)
	}
}

func TestRedisCacheDegradedMode(t *testing.T) {
	// Port 1 on loopback refuses connections immediately.
	rc, err := NewRedisCache(config.RedisConfig{Enabled: true, Address: "127.0.0.1:1", PoolSize: 1})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer rc.Close()

	if rc.IsHealthy() {
		t.Fatal("cache should start degraded")
	}
	if _, err := rc.Get(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get: expected ErrUnavailable, got %v", err)
	}
	if err := rc.Set(context.Background(), "k", []byte("v"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set: expected ErrUnavailable, got %v", err)
	}
	if stats := rc.GetStats(); stats.Healthy || stats.Address != "127.0.0.1:1" {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRedisCacheDisabled(t *testing.T) {
	if _, err := NewRedisCache(config.RedisConfig{Enabled: false}); err == nil {
		t.Fatal("expected error when redis disabled")
	}
}
