package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

// VariantDTO is the wire representation of a product variant.
type VariantDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceDelta int       `json:"price_delta"`
}

// ProductDTO is the wire representation of a catalog entry.
type ProductDTO struct {
	ID        uuid.UUID             `json:"id"`
	AccountID uuid.UUID             `json:"account_id"`
	Name      string                `json:"name"`
	Category  enums.ProductCategory `json:"category"`
	Price     int                   `json:"price"`
	Cost      int                   `json:"cost"`
	Stock     int                   `json:"stock"`
	MinStock  int                   `json:"min_stock"`
	SKU       *string               `json:"sku,omitempty"`
	IsActive  bool                  `json:"is_active"`
	LowStock  bool                  `json:"low_stock"`
	Variants  []VariantDTO          `json:"variants"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewProductDTO maps the model into its wire representation.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	variants := make([]VariantDTO, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, VariantDTO{
			ID:         v.ID,
			Name:       v.Name,
			PriceDelta: v.PriceDelta,
		})
	}
	return &ProductDTO{
		ID:        product.ID,
		AccountID: product.AccountID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
		Cost:      product.Cost,
		Stock:     product.Stock,
		MinStock:  product.MinStock,
		SKU:       product.SKU,
		IsActive:  product.IsActive,
		LowStock:  product.Stock <= product.MinStock,
		Variants:  variants,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

// NewProductDTOs maps a slice of models.
func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out
}
