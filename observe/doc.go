// Package observe provides observability primitives for upstream calls and
// aggregation.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the aggregation
// service and the HTTP server.
package observe
