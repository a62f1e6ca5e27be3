package catalog

import "context"

// Upstream is the read surface of the product catalog.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: calls must honor cancellation and deadlines.
// - Errors: absence is reported as ErrNotFound; decoding faults wrap
// ErrMalformedResponse.
type Upstream interface {
	// SimilarIDs returns the ids the catalog considers similar to id, in
	// upstream order.
	SimilarIDs(ctx context.Context, id ProductID) ([]ProductID, error)

	// Product returns the detail of a single product.
	Product(ctx context.Context, id ProductID) (ProductDetail, error)
}
