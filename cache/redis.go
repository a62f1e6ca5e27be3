package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/similarity/resilience"
)

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	// Addr is host:port of the Redis server.
	// Default: localhost:6379
	Addr string

	Password string
	DB       int

	// PoolSize is the maximum number of socket connections.
	// Default: 10 per CPU (go-redis default)
	PoolSize int

	// DialTimeout bounds connection establishment.
	// Default: 5 seconds
	DialTimeout time.Duration

	// ReadTimeout and WriteTimeout bound single commands.
	// Default: 1 second
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: connect to redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisCache stores entries in Redis with native key expiry.
type RedisCache struct {
	client  redis.UniversalClient
	breaker *resilience.CircuitBreaker
	onError func(op string, err error)
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithErrorHook registers a callback for backend errors that Get hides as
// misses.
func WithErrorHook(fn func(op string, err error)) RedisOption {
	return func(c *RedisCache) {
		c.onError = fn
	}
}

// WithBreaker guards every command with cb. While it is open commands are
// skipped: Get reads as a miss and writes fail with resilience.ErrCircuitOpen.
// Ping bypasses the breaker.
func WithBreaker(cb *resilience.CircuitBreaker) RedisOption {
	return func(c *RedisCache) {
		c.breaker = cb
	}
}

// NewRedisCache creates a cache backed by the given client.
func NewRedisCache(client redis.UniversalClient, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value. Redis errors are reported to the error hook and
// read as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var (
		val   []byte
		found bool
	)
	err := c.guard(ctx, func(ctx context.Context) error {
		v, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		val, found = v, err == nil
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.report("get", err)
		}
		return nil, false
	}
	return val, found
}

// Set stores a value with SET key value EX ttl. TTL<=0 means no caching.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	err := c.guard(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.guard(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) guard(ctx context.Context, cmd func(context.Context) error) error {
	if c.breaker == nil {
		return cmd(ctx)
	}
	return c.breaker.Execute(ctx, cmd)
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) report(op string, err error) {
	if c.onError != nil {
		c.onError(op, err)
	}
}

var _ Cache = (*RedisCache)(nil)
