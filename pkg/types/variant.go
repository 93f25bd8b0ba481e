package types

// VariantSelection captures one chosen product variant frozen at sale time.
type VariantSelection struct {
	Name       string `json:"name"`
	PriceDelta int    `json:"price_delta"`
}

// VariantSelections is the ordered set of variants chosen for a line.
type VariantSelections []VariantSelection

// TotalDelta sums the price deltas of every selected variant.
func (v VariantSelections) TotalDelta() int {
	total := 0
	for _, sel := range v {
		total += sel.PriceDelta
	}
	return total
}
