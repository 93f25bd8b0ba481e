package cart

// BeginAddResult tells the caller whether the add completed or needs a
// variant-selection step first.
type BeginAddResult struct {
	NeedsVariantChoice bool         `json:"needs_variant_choice"`
	Added              bool         `json:"added"`
	VariantOptions     []VariantOpt `json:"variant_options,omitempty"`
	Cart               *CartDTO     `json:"cart,omitempty"`
}

// VariantOpt is one selectable variant surfaced during BeginAdd.
type VariantOpt struct {
	Name       string `json:"name"`
	PriceDelta int    `json:"price_delta"`
}

// CartDTO is the wire snapshot of a terminal's cart.
type CartDTO struct {
	Lines     []LineDTO `json:"lines"`
	Subtotal  int       `json:"subtotal"`
	Total     int       `json:"total"`
	ItemCount int       `json:"item_count"`
}

// LineDTO is the wire representation of one cart line.
type LineDTO struct {
	Key          string       `json:"key"`
	ProductID    string       `json:"product_id"`
	ProductName  string       `json:"product_name"`
	UnitPrice    int          `json:"unit_price"`
	Quantity     int          `json:"quantity"`
	Subtotal     int          `json:"subtotal"`
	StockCeiling int          `json:"stock_ceiling"`
	Variants     []VariantOpt `json:"variants"`
}

func newCartDTO(lines []Line) *CartDTO {
	dto := &CartDTO{Lines: make([]LineDTO, 0, len(lines))}
	for _, line := range lines {
		variants := make([]VariantOpt, 0, len(line.Variants))
		for _, sel := range line.Variants {
			variants = append(variants, VariantOpt{Name: sel.Name, PriceDelta: sel.PriceDelta})
		}
		dto.Lines = append(dto.Lines, LineDTO{
			Key:          line.Key,
			ProductID:    line.ProductID.String(),
			ProductName:  line.ProductName,
			UnitPrice:    line.UnitPrice(),
			Quantity:     line.Quantity,
			Subtotal:     line.Subtotal(),
			StockCeiling: line.StockCeiling,
			Variants:     variants,
		})
		dto.Subtotal += line.Subtotal()
		dto.ItemCount += line.Quantity
	}
	// no tax or discount layer, the total is the subtotal
	dto.Total = dto.Subtotal
	return dto
}
