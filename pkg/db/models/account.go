package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a branch of the cooperative. Every product and sale
// belongs to exactly one account.
type Account struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null;uniqueIndex"`
	Address   *string    `gorm:"column:address"`
	Phone     *string    `gorm:"column:phone"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	Users     []User     `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}
