package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

// Transaction is the immutable sale header. AccountID is the branch the
// sale was rung up under, captured when checkout begins.
type Transaction struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID     uuid.UUID           `gorm:"column:account_id;type:uuid;not null;index"`
	CashierID     uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	Total         int                 `gorm:"column:total;not null"`
	Paid          int                 `gorm:"column:paid;not null"`
	Change        int                 `gorm:"column:change;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'cash'"`
	Items         []TransactionItem   `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
