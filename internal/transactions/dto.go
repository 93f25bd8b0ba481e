package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/types"
)

// ItemDTO is the wire representation of one sold line.
type ItemDTO struct {
	ID          uuid.UUID               `json:"id"`
	ProductID   *uuid.UUID              `json:"product_id,omitempty"`
	ProductName string                  `json:"product_name"`
	UnitPrice   int                     `json:"unit_price"`
	Quantity    int                     `json:"quantity"`
	Subtotal    int                     `json:"subtotal"`
	Variants    types.VariantSelections `json:"variants,omitempty"`
}

// TransactionDTO is the wire representation of a completed sale.
type TransactionDTO struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	CashierID     uuid.UUID `json:"cashier_id"`
	Total         int       `json:"total"`
	Paid          int       `json:"paid"`
	Change        int       `json:"change"`
	PaymentMethod string    `json:"payment_method"`
	Items         []ItemDTO `json:"items"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListResult is one page of sales history with the cursor for the next page.
type ListResult struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
	HasMore      bool             `json:"has_more"`
}

// NewTransactionDTO converts a model row into its wire shape.
func NewTransactionDTO(txn *models.Transaction) *TransactionDTO {
	items := make([]ItemDTO, 0, len(txn.Items))
	for _, item := range txn.Items {
		items = append(items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
			Variants:    item.Variants,
		})
	}
	return &TransactionDTO{
		ID:            txn.ID,
		AccountID:     txn.AccountID,
		CashierID:     txn.CashierID,
		Total:         txn.Total,
		Paid:          txn.Paid,
		Change:        txn.Change,
		PaymentMethod: txn.PaymentMethod.String(),
		Items:         items,
		CreatedAt:     txn.CreatedAt,
	}
}

// NewTransactionDTOs converts a slice of rows.
func NewTransactionDTOs(rows []models.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewTransactionDTO(&rows[i]))
	}
	return out
}
