package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	transaction "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

// defaultTopProducts is how many ranked products a summary includes.
const defaultTopProducts = 5

type salesReader interface {
	Summarize(ctx context.Context, accountID uuid.UUID, from, to time.Time) (*transaction.RangeSummary, error)
	TopProducts(ctx context.Context, accountID uuid.UUID, from, to time.Time, limit int) ([]transaction.ProductSale, error)
	SalesByCategory(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]transaction.CategorySale, error)
}

type stockReader interface {
	ListLowStock(ctx context.Context, accountID uuid.UUID) ([]models.Product, error)
}

// Service aggregates sales into branch-level reports.
type Service interface {
	Summary(ctx context.Context, accountID uuid.UUID, from, to time.Time) (*SummaryDTO, error)
	TodaySummary(ctx context.Context, accountID uuid.UUID) (*SummaryDTO, error)
}

type service struct {
	sales salesReader
	stock stockReader
	now   func() time.Time
}

// NewService builds the reporting service.
func NewService(sales salesReader, stock stockReader) (Service, error) {
	if sales == nil {
		return nil, fmt.Errorf("sales reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{sales: sales, stock: stock, now: time.Now}, nil
}

// Summary aggregates revenue, profit and top products over [from, to).
func (s *service) Summary(ctx context.Context, accountID uuid.UUID, from, to time.Time) (*SummaryDTO, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range end must be after start")
	}

	totals, err := s.sales.Summarize(ctx, accountID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: summarize sales")
	}
	top, err := s.sales.TopProducts(ctx, accountID, from, to, defaultTopProducts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: rank products")
	}
	categories, err := s.sales.SalesByCategory(ctx, accountID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: group sales by category")
	}
	lowStock, err := s.stock.ListLowStock(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}

	return newSummaryDTO(from, to, totals, top, categories, len(lowStock)), nil
}

// TodaySummary aggregates over the local calendar day so the dashboard
// resets at midnight.
func (s *service) TodaySummary(ctx context.Context, accountID uuid.UUID) (*SummaryDTO, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.Summary(ctx, accountID, from, from.AddDate(0, 0, 1))
}
