// Package catalog talks to the upstream product catalog.
//
// The catalog exposes two read operations: the ids of products similar to a
// given product, and the detail of a single product. Upstream is the seam the
// aggregation layer depends on; HTTPClient is the production implementation.
//
// # Errors
//
//   - ErrNotFound: the upstream reported the product as absent (HTTP 404).
//   - *StatusError: any other non-2xx response.
//   - ErrMalformedResponse: the body could not be decoded or failed validation.
//   - ErrInvalidID: the id cannot be sent upstream.
//
// Transport errors are returned wrapped but otherwise unchanged.
package catalog
