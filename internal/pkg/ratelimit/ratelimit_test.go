package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateLimiter_AllowReducesTokens(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, nil, "test:ratelimit:", 10, 2)
	ok, _, err := limiter.Allow(context.Background(), "basic")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatalf("expected first request to pass")
	}

	tokensStr, err := rdb.HGet(context.Background(), "test:ratelimit:basic", "tokens").Result()
	if err != nil {
		t.Fatalf("hget tokens: %v", err)
	}
	tokens, err := strconv.ParseFloat(tokensStr, 64)
	if err != nil {
		t.Fatalf("parse tokens: %v", err)
	}
	if tokens > 1.1 {
		t.Fatalf("expected tokens to decrease, got %.2f", tokens)
	}
}

func TestRateLimiter_RejectsWhenEmpty(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	now := time.UnixMilli(1_700_000_000_000)
	limiter := NewRedisRateLimiter(rdb, nil, "test:ratelimit:", 1, 1)
	limiter.now = func() time.Time { return now }

	if ok, _, err := limiter.Allow(context.Background(), "empty"); err != nil || !ok {
		t.Fatalf("warm allow: ok=%v err=%v", ok, err)
	}
	ok, wait, err := limiter.Allow(context.Background(), "empty")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection")
	}
	if wait != time.Second {
		t.Fatalf("expected 1s retry, got %v", wait)
	}

	now = now.Add(time.Second)
	if ok, _, err := limiter.Allow(context.Background(), "empty"); err != nil || !ok {
		t.Fatalf("expected refill after 1s: ok=%v err=%v", ok, err)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, nil, "test:ratelimit:", 1, 1)
	limiter.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	if ok, _, _ := limiter.Allow(context.Background(), "a"); !ok {
		t.Fatalf("expected a to pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "b"); !ok {
		t.Fatalf("expected b to pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "a"); ok {
		t.Fatalf("expected a to be limited")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	var nilLimiter *RateLimiter
	if ok, _, err := nilLimiter.Allow(context.Background(), "x"); !ok || err != nil {
		t.Fatalf("nil limiter should allow: ok=%v err=%v", ok, err)
	}
	limiter := NewRedisRateLimiter(nil, nil, "", 0, 0)
	if ok, _, err := limiter.Allow(context.Background(), "x"); !ok || err != nil {
		t.Fatalf("disabled limiter should allow: ok=%v err=%v", ok, err)
	}
}

func TestRateLimiter_ConcurrentAllow(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, nil, "test:ratelimit:", 5, 5)
	limiter.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	rejected := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := limiter.Allow(context.Background(), "concurrent")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				return
			}
			if ok {
				success++
			} else {
				rejected++
			}
		}()
	}

	wg.Wait()

	if success != 5 || rejected != 15 {
		t.Fatalf("expected 5 successes and 15 rejections, got %d/%d", success, rejected)
	}
}

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	return redis.NewClient(&redis.Options{Addr: s.Addr()})
}

func closeRedis(t *testing.T, rdb *redis.Client) {
	t.Helper()
	if err := rdb.Close(); err != nil {
		t.Fatalf("close redis: %v", err)
	}
}
