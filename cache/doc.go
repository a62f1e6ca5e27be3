// Package cache provides byte-level caches with TTL policies.
//
// It provides a Cache interface with in-memory (TTL plus LRU bound) and Redis
// implementations, prefix-based key derivation, and a typed JSON wrapper used
// to store aggregation results.
package cache
