package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the upstream catalog address used when none is configured.
const DefaultBaseURL = "http://localhost:3001"

// maxBodyBytes bounds how much of an upstream body is read.
const maxBodyBytes = 1 << 20

// HTTPClientConfig configures the upstream HTTP client.
type HTTPClientConfig struct {
	// BaseURL is the upstream root, without a trailing slash.
	// Default: http://localhost:3001
	BaseURL string

	// Timeout bounds a whole request including the body read. Per-attempt
	// deadlines normally come from the context; this is a backstop.
	// Default: 0 (none)
	Timeout time.Duration

	// HTTPClient is the HTTP client to use. If nil, a client with an
	// instrumented transport is created.
	HTTPClient *http.Client
}

// HTTPClient reads products from the upstream catalog over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Upstream = (*HTTPClient)(nil)

// NewHTTPClient creates a new upstream HTTP client.
func NewHTTPClient(config HTTPClientConfig) (*HTTPClient, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog: base url %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   config.Timeout,
		}
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// SimilarIDs calls GET /product/{id}/similarids.
func (c *HTTPClient) SimilarIDs(ctx context.Context, id ProductID) ([]ProductID, error) {
	var ids []ProductID
	if err := c.get(ctx, "getSimilarIds", id, "/similarids", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Product calls GET /product/{id}.
func (c *HTTPClient) Product(ctx context.Context, id ProductID) (ProductDetail, error) {
	var p ProductDetail
	if err := c.get(ctx, "getDetail", id, "", &p); err != nil {
		return ProductDetail{}, err
	}
	if err := p.Validate(); err != nil {
		return ProductDetail{}, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, id, err)
	}
	if p.ID != id {
		return ProductDetail{}, fmt.Errorf("%w: %s: got product %s", ErrMalformedResponse, id, p.ID)
	}
	return p, nil
}

func (c *HTTPClient) get(ctx context.Context, op string, id ProductID, suffix string, out any) error {
	if err := id.Validate(); err != nil {
		return err
	}

	endpoint := c.baseURL + "/product/" + url.PathEscape(string(id)) + suffix
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("catalog: %s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("catalog: %s: read body: %w", op, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: %s: body exceeds %d bytes", ErrMalformedResponse, op, maxBodyBytes)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	return nil
}
