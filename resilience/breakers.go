package resilience

import (
	"sort"
	"sync"
)

// BreakerScope selects how operations map onto circuit breakers.
type BreakerScope int

const (
	// ScopeOperation keeps one breaker per operation name.
	ScopeOperation BreakerScope = iota
	// ScopeShared routes every operation through a single breaker.
	ScopeShared
)

// SharedScopeName is the breaker name used by ScopeShared.
const SharedScopeName = "upstream"

// ParseBreakerScope parses "operation" or "shared". Unknown values fall back to
// ScopeOperation.
func ParseBreakerScope(s string) BreakerScope {
	if s == "shared" {
		return ScopeShared
	}
	return ScopeOperation
}

// String returns the string representation of the scope.
func (s BreakerScope) String() string {
	if s == ScopeShared {
		return "shared"
	}
	return "operation"
}

// BreakerSet lazily creates circuit breakers keyed by scope.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Config: every breaker is built from the same template; Name is replaced
// with the scope key.
type BreakerSet struct {
	template CircuitBreakerConfig
	scope    BreakerScope

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerSet creates a breaker set from a config template.
func NewBreakerSet(template CircuitBreakerConfig, scope BreakerScope) *BreakerSet {
	return &BreakerSet{
		template: template,
		scope:    scope,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// For returns the breaker guarding the given operation.
func (s *BreakerSet) For(operation string) *CircuitBreaker {
	key := operation
	if s.scope == ScopeShared {
		key = SharedScopeName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[key]
	if !ok {
		cfg := s.template
		cfg.Name = key
		cb = NewCircuitBreaker(cfg)
		s.breakers[key] = cb
	}
	return cb
}

// Snapshot returns the metrics of every breaker created so far, keyed by name.
func (s *BreakerSet) Snapshot() map[string]CircuitBreakerMetrics {
	s.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(s.breakers))
	for _, cb := range s.breakers {
		breakers = append(breakers, cb)
	}
	s.mu.Unlock()

	out := make(map[string]CircuitBreakerMetrics, len(breakers))
	for _, cb := range breakers {
		out[cb.Name()] = cb.Metrics()
	}
	return out
}

// Names returns the sorted names of the breakers created so far.
func (s *BreakerSet) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.breakers))
	for name := range s.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
