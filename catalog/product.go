package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductID identifies a product in the upstream catalog.
type ProductID string

// Validate checks that the id is non-empty and safe to place in a URL path
// segment.
func (id ProductID) Validate() error {
	s := string(id)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(s, "/\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

// UnmarshalJSON accepts either a JSON string or a JSON number, since the
// upstream is not consistent about id encoding.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog: product id must be a string or number: %s", data)
	}
	*id = ProductID(n.String())
	return nil
}

// ProductDetail is the subset of an upstream product exposed to clients.
type ProductDetail struct {
	ID           ProductID       `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Availability bool            `json:"availability"`
}

// Validate checks invariants the upstream is expected to uphold.
func (p ProductDetail) Validate() error {
	if err := p.ID.Validate(); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("catalog: product %s has negative price %s", p.ID, p.Price)
	}
	return nil
}

// MarshalJSON encodes the price as a JSON number.
func (p ProductDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           ProductID   `json:"id"`
		Name         string      `json:"name"`
		Price        json.Number `json:"price"`
		Availability bool        `json:"availability"`
	}{
		ID:           p.ID,
		Name:         p.Name,
		Price:        json.Number(p.Price.String()),
		Availability: p.Availability,
	})
}
