package similar

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/similarity/catalog"
	"github.com/jonwraymond/similarity/resilience"
)

// Sentinel errors returned by Service.
var (
	// ErrProductNotFound is returned when the root product is absent or its
	// existence could not be confirmed.
	ErrProductNotFound = errors.New("similar: product not found")

	// ErrInternal matches every *InternalError.
	ErrInternal = errors.New("similar: internal error")
)

// InternalError reports a programming or contract fault.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("similar: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInternal.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// Classify maps catalog errors onto resilience outcome kinds.
func Classify(err error) resilience.Kind {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return resilience.KindNotFound
	case errors.Is(err, catalog.ErrMalformedResponse), errors.Is(err, catalog.ErrInvalidID):
		return resilience.KindInternal
	default:
		return resilience.KindTransient
	}
}
