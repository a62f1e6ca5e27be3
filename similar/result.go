package similar

import (
	"slices"
	"strings"

	"github.com/jonwraymond/similarity/catalog"
)

// Result is the assembled set of products similar to ProductID.
//
// Items holds at most one product per id, sorted by id, so two results with
// the same products compare equal.
type Result struct {
	ProductID catalog.ProductID       `json:"product_id"`
	Items     []catalog.ProductDetail `json:"items"`
}

// NewResult builds a Result from items, dropping duplicates and the root id.
// When ids repeat, the first item wins.
func NewResult(root catalog.ProductID, items []catalog.ProductDetail) Result {
	seen := make(map[catalog.ProductID]struct{}, len(items))
	out := make([]catalog.ProductDetail, 0, len(items))
	for _, item := range items {
		if item.ID == root {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}

	slices.SortFunc(out, func(a, b catalog.ProductDetail) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return Result{ProductID: root, Items: out}
}

// IDs returns the ids of the items in order.
func (r Result) IDs() []catalog.ProductID {
	ids := make([]catalog.ProductID, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.ID
	}
	return ids
}

// clone returns a copy whose Items can be modified independently.
func (r Result) clone() Result {
	items := make([]catalog.ProductDetail, len(r.Items))
	copy(items, r.Items)
	return Result{ProductID: r.ProductID, Items: items}
}
