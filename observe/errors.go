package observe

import "errors"

// Validation failures reported by Config.Validate.
var (
	ErrMissingServiceName     = errors.New("observe: missing service name")
	ErrInvalidSamplePct       = errors.New("observe: tracing sample ratio out of range")
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unknown log level")
)

// ErrNilObserver is returned when an Observer is required but nil.
var ErrNilObserver = errors.New("observe: nil observer")

// RedactedFields are log field keys whose values are never written.
var RedactedFields = []string{
	"authorization",
	"cookie",
	"password",
	"redis_password",
	"secret",
	"token",
	"api_key",
}
