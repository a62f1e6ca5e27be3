package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength bounds keys accepted by ValidateKey.
const MaxKeyLength = 512

var (
	ErrNilCache   = errors.New("cache: nil backend")
	ErrInvalidKey = errors.New("cache: invalid key")
	ErrKeyTooLong = errors.New("cache: key too long")
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Implementations are safe for concurrent use. Get never fails: an absent,
// expired or unreadable entry is a miss. Delete of a missing key is not an
// error. Set with a non-positive TTL stores nothing.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects blank keys, keys with line breaks and keys longer than
// MaxKeyLength.
func ValidateKey(key string) error {
	switch {
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case strings.TrimSpace(key) == "", strings.ContainsAny(key, "\r\n"):
		return ErrInvalidKey
	}
	return nil
}
