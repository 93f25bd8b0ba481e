package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/pagination"
)

// ListFilters narrows sales history queries.
type ListFilters struct {
	CashierID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Repository wires together transaction persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateHeader inserts the transaction header row only.
func (r *Repository) CreateHeader(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateItems inserts line item rows for an already committed header.
func (r *Repository) CreateItems(ctx context.Context, items []models.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByID loads the transaction with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&txn, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListByAccount pages through an account's sales history, newest first.
// The caller passes limit+1 and trims the buffer row itself.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Transaction, error) {
	qb := r.db.WithContext(ctx).
		Preload("Items").
		Where("account_id = ?", accountID)

	if filters.CashierID != nil {
		qb = qb.Where("cashier_id = ?", *filters.CashierID)
	}
	if filters.From != nil {
		qb = qb.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		qb = qb.Where("created_at < ?", *filters.To)
	}
	if cursor != nil {
		qb = qb.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Transaction
	err := qb.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// RangeSummary aggregates revenue and item economics for a period.
type RangeSummary struct {
	TransactionCount int64
	Revenue          int64
	Cost             int64
	ItemsSold        int64
}

// Summarize returns totals for the account over [from, to).
func (r *Repository) Summarize(ctx context.Context, accountID uuid.UUID, from, to time.Time) (*RangeSummary, error) {
	var summary RangeSummary
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS transaction_count, COALESCE(SUM(total), 0) AS revenue").
		Where("account_id = ? AND created_at >= ? AND created_at < ?", accountID, from, to).
		Scan(&summary).
		Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.TransactionItem{}).
		Select("COALESCE(SUM(transaction_items.quantity), 0) AS items_sold, COALESCE(SUM(transaction_items.unit_cost * transaction_items.quantity), 0) AS cost").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.account_id = ? AND transactions.created_at >= ? AND transactions.created_at < ?", accountID, from, to).
		Scan(&summary).
		Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ProductSale is one row of the top-products ranking.
type ProductSale struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    int64
	Revenue     int64
}

// TopProducts ranks products by quantity sold over [from, to).
func (r *Repository) TopProducts(ctx context.Context, accountID uuid.UUID, from, to time.Time, limit int) ([]ProductSale, error) {
	var rows []ProductSale
	err := r.db.WithContext(ctx).
		Model(&models.TransactionItem{}).
		Select("transaction_items.product_id, transaction_items.product_name, SUM(transaction_items.quantity) AS quantity, SUM(transaction_items.subtotal) AS revenue").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.account_id = ? AND transactions.created_at >= ? AND transactions.created_at < ?", accountID, from, to).
		Group("transaction_items.product_id, transaction_items.product_name").
		Order("quantity DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// CategorySale aggregates sold items under one product category. Items
// whose product was deleted fall back to the "other" bucket.
type CategorySale struct {
	Category string
	Quantity int64
	Revenue  int64
	Cost     int64
}

// SalesByCategory groups revenue and cost per product category over
// [from, to). Category is resolved from the current catalog because items
// do not record it; a deleted product counts as "other".
func (r *Repository) SalesByCategory(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]CategorySale, error) {
	var rows []CategorySale
	err := r.db.WithContext(ctx).
		Model(&models.TransactionItem{}).
		Select("COALESCE(products.category, 'other') AS category, SUM(transaction_items.quantity) AS quantity, SUM(transaction_items.subtotal) AS revenue, SUM(transaction_items.unit_cost * transaction_items.quantity) AS cost").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Joins("LEFT JOIN products ON products.id = transaction_items.product_id").
		Where("transactions.account_id = ? AND transactions.created_at >= ? AND transactions.created_at < ?", accountID, from, to).
		Group("COALESCE(products.category, 'other')").
		Order("revenue DESC").
		Find(&rows).
		Error
	return rows, err
}
