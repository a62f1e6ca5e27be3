package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/similarity/resilience"
)

// BreakerChecker reports the state of every upstream circuit breaker.
//
// It never reports Unhealthy: an open breaker degrades results but the
// service still answers.
type BreakerChecker struct {
	breakers *resilience.BreakerSet
}

// NewBreakerChecker returns a checker over set.
func NewBreakerChecker(set *resilience.BreakerSet) *BreakerChecker {
	return &BreakerChecker{breakers: set}
}

// Name returns "breakers".
func (c *BreakerChecker) Name() string { return "breakers" }

// Check reports Degraded when any breaker is open or half-open.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	if c.breakers == nil {
		return Healthy("no breakers configured")
	}

	snapshot := c.breakers.Snapshot()
	details := make(map[string]any, len(snapshot))
	var tripped []string
	for _, name := range c.breakers.Names() {
		m, ok := snapshot[name]
		if !ok {
			continue
		}
		details[name] = map[string]any{
			"state":           m.State.String(),
			"window_samples":  m.WindowSamples,
			"window_failures": m.WindowFailures,
			"rejected":        m.Rejected,
		}
		if m.State != resilience.StateClosed {
			tripped = append(tripped, fmt.Sprintf("%s=%s", name, m.State))
		}
	}

	if len(tripped) > 0 {
		return Degraded("breakers not closed: " + strings.Join(tripped, ", ")).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d breakers closed", len(details))).WithDetails(details)
}
