package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	return c
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c, err := NewHTTPClient(HTTPClientConfig{})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
}

func TestNewHTTPClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "://nope"} {
		if _, err := NewHTTPClient(HTTPClientConfig{BaseURL: raw}); err == nil {
			t.Errorf("NewHTTPClient(%q) error = nil, want error", raw)
		}
	}
}

func TestHTTPClient_SimilarIDs(t *testing.T) {
	c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/product/1/similarids" {
			t.Errorf("path = %q, want /product/1/similarids", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		_, _ = w.Write([]byte(`[2,"3",4]`))
	})

	ids, err := c.SimilarIDs(context.Background(), "1")
	if err != nil {
		t.Fatalf("SimilarIDs() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != "2" || ids[1] != "3" || ids[2] != "4" {
		t.Errorf("SimilarIDs() = %v, want [2 3 4]", ids)
	}
}

func TestHTTPClient_Product(t *testing.T) {
	c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/product/1" {
			t.Errorf("path = %q, want /product/1", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"1","name":"Shirt","price":9.99,"availability":true,"color":"red"}`))
	})

	p, err := c.Product(context.Background(), "1")
	if err != nil {
		t.Fatalf("Product() error = %v", err)
	}
	if p.ID != "1" || p.Name != "Shirt" || !p.Availability || p.Price.String() != "9.99" {
		t.Errorf("Product() = %+v", p)
	}
}

func TestHTTPClient_EscapesPath(t *testing.T) {
	c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/product/a%20b" {
			t.Errorf("escaped path = %q, want /product/a%%20b", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"id":"a b","name":"x","price":1,"availability":false}`))
	})

	if _, err := c.Product(context.Background(), "a b"); err != nil {
		t.Errorf("Product() error = %v", err)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		wantMsg string
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			check:  func(err error) bool { return errors.Is(err, ErrNotFound) },
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.StatusCode == 500 && se.Op == "getDetail"
			},
		},
		{
			name:   "bad json",
			status: http.StatusOK,
			body:   `{"id":`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:   "invalid product",
			status: http.StatusOK,
			body:   `{"id":"1","price":-5}`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:   "mismatched id",
			status: http.StatusOK,
			body:   `{"id":"2","name":"Other","price":1,"availability":true}`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:   "null body",
			status: http.StatusOK,
			body:   `null`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:   "oversized body",
			status: http.StatusOK,
			body:   `"` + strings.Repeat("x", maxBodyBytes+10) + `"`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Product(context.Background(), "1")
			if err == nil || !tt.check(err) {
				t.Errorf("Product() error = %v", err)
			}
		})
	}
}

func TestHTTPClient_InvalidIDNotSent(t *testing.T) {
	called := false
	c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.SimilarIDs(context.Background(), "a/b")
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("SimilarIDs() error = %v, want ErrInvalidID", err)
	}
	if called {
		t.Error("upstream contacted for an invalid id")
	}
}

func TestHTTPClient_HonorsContext(t *testing.T) {
	release := make(chan struct{})
	c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Product(ctx, "1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Product() error = %v, want context.DeadlineExceeded", err)
	}
}
