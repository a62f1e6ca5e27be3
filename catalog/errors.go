package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound is returned when the upstream reports the product as absent.
	ErrNotFound = errors.New("catalog: product not found")

	// ErrMalformedResponse is returned when an upstream body cannot be decoded
	// or does not describe a valid product.
	ErrMalformedResponse = errors.New("catalog: malformed upstream response")

	// ErrInvalidID is returned for ids that cannot be used in an upstream path.
	ErrInvalidID = errors.New("catalog: invalid product id")
)

// StatusError reports an unexpected upstream HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s: unexpected status %d", e.Op, e.StatusCode)
}

