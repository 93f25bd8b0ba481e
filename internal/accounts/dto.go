package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
)

// AccountDTO is the wire representation of a branch.
type AccountDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAccountInput holds the validated payload to register a branch.
type CreateAccountInput struct {
	Name    string
	Address *string
	Phone   *string
}

// UpdateAccountInput holds optional mutation values for a branch.
type UpdateAccountInput struct {
	Name     *string
	Address  *string
	Phone    *string
	IsActive *bool
}

// FromModel maps the model into its wire representation.
func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:        a.ID,
		Name:      a.Name,
		Address:   a.Address,
		Phone:     a.Phone,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// FromModels maps a slice of models.
func FromModels(rows []models.Account) []AccountDTO {
	out := make([]AccountDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
