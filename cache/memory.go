package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache keeps entries in process on an expiring LRU. Policy.MaxEntries
// bounds it and Policy.MaxTTL caps every entry. Entries past their own TTL
// read as a miss and are dropped.
type MemoryCache struct {
	policy Policy
	now    func() time.Time

	mu        sync.Mutex
	lru       *expirable.LRU[string, *memoryEntry]
	evictions atomic.Int64
}

type memoryEntry struct {
	value   []byte
	expires time.Time
	removed atomic.Bool
}

func (e *memoryEntry) live(at time.Time) bool { return at.Before(e.expires) }

// NewMemoryCache returns an empty cache governed by policy.
func NewMemoryCache(policy Policy) *MemoryCache {
	c := &MemoryCache{policy: policy, now: time.Now}
	c.lru = expirable.NewLRU[string, *memoryEntry](policy.MaxEntries, c.evicted, policy.MaxTTL)
	return c
}

// evicted counts entries pushed out by the size bound. Explicit removals and
// expiry are not evictions.
func (c *MemoryCache) evicted(_ string, e *memoryEntry) {
	if e.removed.Load() || !e.live(c.now()) {
		return
	}
	c.evictions.Add(1)
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !e.live(c.now()) {
		c.removeLocked(key, e)
		return nil, false
	}
	return e.value, true
}

// Set stores value until ttl, capped by the policy's MaxTTL, elapses.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if c.policy.MaxTTL > 0 {
		ttl = min(ttl, c.policy.MaxTTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, &memoryEntry{value: value, expires: c.now().Add(ttl)})
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Peek(key); ok {
		c.removeLocked(key, e)
	}
	return nil
}

// Len counts stored entries, expired ones included until they are read or
// swept.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// Evictions counts entries dropped to stay within MaxEntries.
func (c *MemoryCache) Evictions() int64 { return c.evictions.Load() }

func (c *MemoryCache) removeLocked(key string, e *memoryEntry) {
	e.removed.Store(true)
	c.lru.Remove(key)
}

var _ Cache = (*MemoryCache)(nil)
