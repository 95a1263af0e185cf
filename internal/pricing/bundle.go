package pricing

import (
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// Expansion is a bundle resolved to its fixed price and components.
type Expansion struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	SKU        string              `json:"sku,omitempty"`
	Price      Money               `json:"price"`
	Components []catalog.Component `json:"components"`
}

// BundleResolver expands bundle codes.
type BundleResolver struct {
	Index *catalog.Index
}

// Expand returns the bundle's price and ordered components. The component
// slice belongs to the caller.
func (r BundleResolver) Expand(code string) (Expansion, error) {
	b, ok := r.Index.Bundle(code)
	if !ok {
		return Expansion{}, fmt.Errorf("%q: %w", code, ErrUnknownBundle)
	}
	return Expansion{
		Code:       b.Code,
		Name:       b.Name,
		SKU:        b.SKU,
		Price:      b.Price,
		Components: b.Components,
	}, nil
}
