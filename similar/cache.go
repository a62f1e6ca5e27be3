package similar

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/similarity/cache"
	"github.com/jonwraymond/similarity/catalog"
)

// KeyPrefix namespaces result cache keys.
const KeyPrefix = "similar"

// CacheEntry is the stored form of an assembled Result.
type CacheEntry struct {
	Key        string    `json:"key"`
	Value      Result    `json:"value"`
	InsertedAt time.Time `json:"inserted_at"`
}

// ResultCache memoizes assembled results per product id.
//
// Contract:
// - Concurrency: safe for concurrent use if the backing cache is.
// - Errors: Get never errors; undecodable or mismatched entries read as a miss.
type ResultCache struct {
	store *cache.JSON[CacheEntry]
	keyer cache.Keyer
	now   func() time.Time
}

// NewResultCache stores results in backend under the given policy.
func NewResultCache(backend cache.Cache, policy cache.Policy) (*ResultCache, error) {
	store, err := cache.NewJSON[CacheEntry](backend, policy)
	if err != nil {
		return nil, err
	}
	return &ResultCache{
		store: store,
		keyer: cache.NewPrefixKeyer(KeyPrefix),
		now:   time.Now,
	}, nil
}

// Get returns the cached result for id.
func (c *ResultCache) Get(ctx context.Context, id catalog.ProductID) (Result, bool) {
	entry, ok := c.Entry(ctx, id)
	if !ok {
		return Result{}, false
	}
	return entry.Value, true
}

// Entry returns the cached entry for id, including when it was inserted.
func (c *ResultCache) Entry(ctx context.Context, id catalog.ProductID) (CacheEntry, bool) {
	key, err := c.keyer.Key(string(id))
	if err != nil {
		return CacheEntry{}, false
	}

	entry, ok := c.store.Get(ctx, key)
	if !ok || entry.Key != key || entry.Value.ProductID != id {
		return CacheEntry{}, false
	}
	if entry.Value.Items == nil {
		entry.Value.Items = []catalog.ProductDetail{}
	}
	return entry, true
}

// Put stores res for id, replacing any previous entry.
func (c *ResultCache) Put(ctx context.Context, id catalog.ProductID, res Result) error {
	key, err := c.keyer.Key(string(id))
	if err != nil {
		return fmt.Errorf("similar: cache key for %q: %w", id, err)
	}

	entry := CacheEntry{
		Key:        key,
		Value:      res,
		InsertedAt: c.now().UTC(),
	}
	return c.store.Set(ctx, key, entry, 0)
}

// Invalidate removes the cached result for id.
func (c *ResultCache) Invalidate(ctx context.Context, id catalog.ProductID) error {
	key, err := c.keyer.Key(string(id))
	if err != nil {
		return nil
	}
	return c.store.Delete(ctx, key)
}
