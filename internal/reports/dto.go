package reports

import (
	"time"

	"github.com/google/uuid"

	transaction "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
)

// TopProductDTO is one row of the best-sellers ranking. ProductID is nil
// when the product was deleted after the sale; the frozen name remains.
type TopProductDTO struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name"`
	Quantity    int64      `json:"quantity"`
	Revenue     int64      `json:"revenue"`
}

// CategorySalesDTO is the per-category slice of a summary.
type CategorySalesDTO struct {
	Category string `json:"category"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
	Profit   int64  `json:"profit"`
}

// SummaryDTO is the aggregated report for one branch and period. Profit is
// revenue minus the cost recorded on the sold items at sale time.
type SummaryDTO struct {
	From             time.Time          `json:"from"`
	To               time.Time          `json:"to"`
	TransactionCount int64              `json:"transaction_count"`
	Revenue          int64              `json:"revenue"`
	Profit           int64              `json:"profit"`
	ItemsSold        int64              `json:"items_sold"`
	TopProducts      []TopProductDTO    `json:"top_products"`
	Categories       []CategorySalesDTO `json:"categories"`
	LowStockCount    int                `json:"low_stock_count"`
}

func newSummaryDTO(from, to time.Time, totals *transaction.RangeSummary, top []transaction.ProductSale, categories []transaction.CategorySale, lowStockCount int) *SummaryDTO {
	ranked := make([]TopProductDTO, 0, len(top))
	for _, sale := range top {
		ranked = append(ranked, TopProductDTO{
			ProductID:   sale.ProductID,
			ProductName: sale.ProductName,
			Quantity:    sale.Quantity,
			Revenue:     sale.Revenue,
		})
	}
	byCategory := make([]CategorySalesDTO, 0, len(categories))
	for _, row := range categories {
		byCategory = append(byCategory, CategorySalesDTO{
			Category: row.Category,
			Quantity: row.Quantity,
			Revenue:  row.Revenue,
			Profit:   row.Revenue - row.Cost,
		})
	}
	return &SummaryDTO{
		From:             from,
		To:               to,
		TransactionCount: totals.TransactionCount,
		Revenue:          totals.Revenue,
		Profit:           totals.Revenue - totals.Cost,
		ItemsSold:        totals.ItemsSold,
		TopProducts:      ranked,
		Categories:       byCategory,
		LowStockCount:    lowStockCount,
	}
}
