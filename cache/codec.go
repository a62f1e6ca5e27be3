package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JSON stores values of type T in a byte-level Cache as JSON.
//
// Entries that fail to decode are deleted and reported as a miss, so a
// format change never poisons reads.
type JSON[T any] struct {
	cache  Cache
	policy Policy
}

// NewJSON wraps c with JSON encoding and the given TTL policy.
func NewJSON[T any](c Cache, policy Policy) (*JSON[T], error) {
	if c == nil {
		return nil, ErrNilCache
	}
	return &JSON[T]{cache: c, policy: policy}, nil
}

// Get loads and decodes the value stored under key.
func (j *JSON[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if !j.policy.ShouldCache() {
		return zero, false
	}

	data, ok := j.cache.Get(ctx, key)
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		_ = j.cache.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

// Set encodes v and stores it under key with the policy's effective TTL for
// override. A zero override uses DefaultTTL.
func (j *JSON[T]) Set(ctx context.Context, key string, v T, override time.Duration) error {
	if !j.policy.ShouldCache() {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return j.cache.Set(ctx, key, data, j.policy.EffectiveTTL(override))
}

// Delete removes the value stored under key.
func (j *JSON[T]) Delete(ctx context.Context, key string) error {
	return j.cache.Delete(ctx, key)
}

// Policy returns the TTL policy.
func (j *JSON[T]) Policy() Policy {
	return j.policy
}
