package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Keyer derives cache keys from entity ids.
//
// Contract:
// - Determinism: the same id always yields the same key.
// - Concurrency: implementations must be safe for concurrent use.
// - Validity: returned keys pass ValidateKey.
type Keyer interface {
	Key(id string) (string, error)
}

// PrefixKeyer builds keys of the form <prefix>:<id>.
//
// Ids that would produce a key longer than MaxKeyLength are replaced by the
// hex SHA-256 of the id, so every id maps to a usable key.
type PrefixKeyer struct {
	Prefix string
}

// NewPrefixKeyer creates a keyer for the given namespace.
func NewPrefixKeyer(prefix string) *PrefixKeyer {
	return &PrefixKeyer{Prefix: strings.TrimSuffix(prefix, ":")}
}

// Key returns the cache key for id.
func (k *PrefixKeyer) Key(id string) (string, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "\n\r") {
		return "", ErrInvalidKey
	}

	key := k.Prefix + ":" + id
	if len(key) > MaxKeyLength {
		sum := sha256.Sum256([]byte(id))
		key = k.Prefix + ":sha256:" + hex.EncodeToString(sum[:])
	}

	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// Ensure PrefixKeyer implements Keyer
var _ Keyer = (*PrefixKeyer)(nil)
