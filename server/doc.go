// Package server exposes the similar-products service over HTTP.
//
// Routes:
//
//	GET /product/{productId}/similar  JSON array of product details
//	GET /healthz, /readyz, /health     health probes
//	GET /metrics                       prometheus exposition, when enabled
//
// Every request gets an X-Request-ID, a server span, RED metrics, a log line
// and a deadline.
package server
