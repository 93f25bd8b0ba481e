package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/types"
)

// Line is one cart entry. Product price, cost, variant deltas and the stock
// ceiling are frozen when the line is created; later catalog edits do not
// reach into an open cart.
type Line struct {
	Key          string                  `json:"key"`
	ProductID    uuid.UUID               `json:"product_id"`
	ProductName  string                  `json:"product_name"`
	BasePrice    int                     `json:"base_price"`
	Cost         int                     `json:"cost"`
	Variants     types.VariantSelections `json:"variants"`
	Quantity     int                     `json:"quantity"`
	StockCeiling int                     `json:"stock_ceiling"`
}

// UnitPrice is the base price plus every selected variant delta.
func (l Line) UnitPrice() int {
	return l.BasePrice + l.Variants.TotalDelta()
}

// Subtotal is the unit price multiplied by quantity.
func (l Line) Subtotal() int {
	return l.UnitPrice() * l.Quantity
}

// LineKey derives the identity of a cart line: the product plus the sorted
// set of selected variant names. The same product with a different variant
// combination is a distinct line. Names are a set, so repeating one does
// not change the key.
func LineKey(productID uuid.UUID, variantNames []string) string {
	seen := make(map[string]struct{}, len(variantNames))
	names := make([]string, 0, len(variantNames))
	for _, name := range variantNames {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		names = append(names, normalized)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return productID.String()
	}
	return productID.String() + "|" + strings.Join(names, ",")
}
