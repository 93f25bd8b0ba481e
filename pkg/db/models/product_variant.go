package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a named add-on for a product. PriceDelta adjusts the
// base price per unit and may be negative. Position preserves the order
// the variants were entered in.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceDelta int       `gorm:"column:price_delta;not null;default:0"`
	Position   int       `gorm:"column:position;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
