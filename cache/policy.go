package cache

import "time"

// Policy decides whether and for how long entries are kept.
type Policy struct {
	// DefaultTTL applies when a write names no TTL. Zero turns caching off.
	DefaultTTL time.Duration
	// MaxTTL caps every TTL. Zero means uncapped.
	MaxTTL time.Duration
	// MaxEntries bounds in-memory backends, evicting least recently used
	// entries first. Zero means unbounded.
	MaxEntries int
}

// DefaultPolicy keeps entries for five minutes, never longer than an hour,
// and at most ten thousand of them.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: 5 * time.Minute, MaxTTL: time.Hour, MaxEntries: 10_000}
}

// NoCachePolicy disables caching.
func NoCachePolicy() Policy { return Policy{} }

// ShouldCache reports whether the policy stores anything at all.
func (p Policy) ShouldCache() bool { return p.DefaultTTL > 0 }

// EffectiveTTL resolves a requested TTL against the policy. Non-positive
// requests use DefaultTTL; the result never exceeds MaxTTL.
func (p Policy) EffectiveTTL(requested time.Duration) time.Duration {
	ttl := p.DefaultTTL
	if requested > 0 {
		ttl = requested
	}
	if p.MaxTTL > 0 {
		ttl = min(ttl, p.MaxTTL)
	}
	return ttl
}
