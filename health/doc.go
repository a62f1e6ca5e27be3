// Package health reports whether the service can answer requests well.
//
// A Checker reports one component's Status. The Aggregator runs every
// registered checker under a shared timeout and folds the results into an
// overall status; the HTTP handlers expose that status to probes.
//
// The service registers two checkers:
//
//   - BreakerChecker reports Degraded while any upstream breaker is open or
//     half-open. Requests still succeed in that state, only with fewer items.
//   - A ping checker for the shared cache when it lives in redis.
//
// # Endpoints
//
//	r := chi.NewRouter()
//	health.Mount(r, agg)
//	// GET /healthz  liveness, always 200
//	// GET /readyz   200 OK | 200 DEGRADED | 503 UNHEALTHY
//	// GET /health   JSON document with per-check details
package health
