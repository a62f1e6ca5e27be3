package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/similarity/resilience"
)

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client)
}

func TestRedisCache_GetSetDelete(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("Get() of fresh key ok = true")
	}

	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := c.Get(ctx, key)
	if !ok || !bytes.Equal(got, []byte("v")) {
		t.Errorf("Get() = %q, %v, want v, true", got, ok)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(ctx, key); ok {
		t.Error("Get() after Delete ok = true")
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_ = c.Set(ctx, key, []byte("v"), 50*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get(ctx, key); ok {
		t.Error("Get() after expiry ok = true")
	}
}

func TestRedisCache_ErrorsReadAsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	var reported []string
	c := NewRedisCache(client, WithErrorHook(func(op string, err error) {
		reported = append(reported, op)
	}))
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get() against an unreachable server ok = true")
	}
	if len(reported) != 1 || reported[0] != "get" {
		t.Errorf("reported = %v, want [get]", reported)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set() against an unreachable server error = nil")
	}
	if err := c.Ping(ctx); err == nil || errors.Is(err, redis.Nil) {
		t.Errorf("Ping() error = %v, want connection error", err)
	}
}

func TestRedisCache_BreakerSkipsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	var reported []string
	c := NewRedisCache(client,
		WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "cache",
			MinRequests: 1,
			OpenTimeout: time.Hour,
		})),
		WithErrorHook(func(op string, err error) {
			reported = append(reported, op)
		}))
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("Get() against an unreachable server ok = true")
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("Get() with open breaker ok = true")
	}
	if len(reported) != 1 {
		t.Errorf("reported = %v, want only the first failure", reported)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Set() error = %v, want ErrCircuitOpen", err)
	}
	if err := c.Ping(ctx); err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Ping() error = %v, want a connection error", err)
	}
}
