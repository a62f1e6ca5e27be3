package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/similarity/similar"
)

// errorBody is the JSON error payload.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// statusFor maps a service error to a response status and message. Internal
// causes are never echoed to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, similar.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request timed out"
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}
