package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/types"
)

// TransactionItem captures the snapshot of one cart line at sale time.
// ProductName, UnitPrice and Variants are frozen copies so later catalog
// edits never rewrite history.
type TransactionItem struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID uuid.UUID               `gorm:"column:transaction_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID              `gorm:"column:product_id;type:uuid"`
	ProductName   string                  `gorm:"column:product_name;not null"`
	UnitPrice     int                     `gorm:"column:unit_price;not null"`
	UnitCost      int                     `gorm:"column:unit_cost;not null;default:0"`
	Quantity      int                     `gorm:"column:quantity;not null"`
	Subtotal      int                     `gorm:"column:subtotal;not null"`
	Variants      types.VariantSelections `gorm:"column:variants;type:jsonb;serializer:json"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
