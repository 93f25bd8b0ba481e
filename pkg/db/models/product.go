package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

// Product represents a sellable catalog entry scoped to one account.
// Price and cost are whole currency units.
type Product struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	Name      string                `gorm:"column:name;not null"`
	Category  enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Price     int                   `gorm:"column:price;not null"`
	Cost      int                   `gorm:"column:cost;not null;default:0"`
	Stock     int                   `gorm:"column:stock;not null;default:0"`
	MinStock  int                   `gorm:"column:min_stock;not null;default:0"`
	SKU       *string               `gorm:"column:sku"`
	IsActive  bool                  `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
