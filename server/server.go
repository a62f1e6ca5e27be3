package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/similarity/health"
	"github.com/jonwraymond/similarity/observe"
)

// Options configures the HTTP handler.
type Options struct {
	// Logger receives access and error logs. Nil disables logging.
	Logger observe.Logger

	// RequestTimeout bounds each request. Zero disables the bound.
	RequestTimeout time.Duration

	// Health, when set, serves the probe endpoints.
	Health *health.Aggregator

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler

	// Registerer, when set, receives HTTP request metrics.
	Registerer prometheus.Registerer
}

// New returns the service's HTTP handler.
func New(svc Similar, opts Options) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("server: service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger))
	if opts.Registerer != nil {
		red, err := newREDMetrics(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("server: register metrics: %w", err)
		}
		r.Use(red.middleware)
	}
	r.Use(middleware.Recoverer)

	if opts.Health != nil {
		health.Mount(r, opts.Health)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	const similarPath = "/product/{productId}/similar"
	h := &handlers{svc: svc, logger: logger}
	product := r.With(deadline(opts.RequestTimeout))
	product.Get(similarPath, h.getSimilar)
	product.Delete(similarPath, h.invalidate)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return otelhttp.NewHandler(r, "http.server"), nil
}
