package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/similarity/catalog"
	"github.com/jonwraymond/similarity/observe"
	"github.com/jonwraymond/similarity/similar"
)

// Similar assembles similar-product results.
type Similar interface {
	GetSimilar(ctx context.Context, id catalog.ProductID) (similar.Result, error)
	Invalidate(ctx context.Context, id catalog.ProductID) error
}

type handlers struct {
	svc    Similar
	logger observe.Logger
}

func (h *handlers) getSimilar(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "productId"))

	res, err := h.svc.GetSimilar(r.Context(), id)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error(r.Context(), "similar products failed",
				observe.F("product.id", string(id)), observe.F("error", err))
		}
		writeError(w, status, msg)
		return
	}

	items := res.Items
	if items == nil {
		items = []catalog.ProductDetail{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "productId"))

	if err := h.svc.Invalidate(r.Context(), id); err != nil {
		status, msg := statusFor(err)
		h.logger.Error(r.Context(), "cache invalidation failed",
			observe.F("product.id", string(id)), observe.F("error", err))
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
