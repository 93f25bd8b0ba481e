package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/adiwirasena/koperasi-pos-backend/internal/products"
	transaction "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

// Store is the persistence adapter behind the checkout flow. It exposes the
// two commit disciplines: independent best-effort writes, and a single
// all-or-nothing transaction.
type Store struct {
	db       *db.Client
	txns     *transaction.Repository
	products *product.Repository
}

// NewStore builds the checkout persistence adapter.
func NewStore(dbClient *db.Client, txns *transaction.Repository, products *product.Repository) (*Store, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if txns == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Store{db: dbClient, txns: txns, products: products}, nil
}

// SaveHeader commits the sale header on its own.
func (s *Store) SaveHeader(ctx context.Context, txn *models.Transaction) error {
	_, err := s.txns.CreateHeader(ctx, txn)
	return err
}

// SaveItems commits the frozen line items for an existing header.
func (s *Store) SaveItems(ctx context.Context, items []models.TransactionItem) error {
	return s.txns.CreateItems(ctx, items)
}

// LowerStock applies a best-effort read-modify-write decrement, clamped at
// zero. Concurrent sales can interleave here; the strict path exists for
// branches that cannot tolerate that.
func (s *Store) LowerStock(ctx context.Context, productID uuid.UUID, qty int) error {
	row, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	next := row.Stock - qty
	if next < 0 {
		next = 0
	}
	return s.products.SetStock(ctx, productID, next)
}

// LoadProduct reads the current catalog row, used to publish post-sale
// stock levels.
func (s *Store) LoadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.products.FindByID(ctx, productID)
}

// SaveAtomic commits header, items and conditional stock decrements in one
// database transaction. Insufficient stock on any product aborts the whole
// sale.
func (s *Store) SaveAtomic(ctx context.Context, txn *models.Transaction, items []models.TransactionItem, decrements map[uuid.UUID]int) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txnRepo := s.txns.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		if _, err := txnRepo.CreateHeader(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction header")
		}
		if err := txnRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction items")
		}
		for productID, qty := range decrements {
			rows, err := productRepo.DecrementStock(ctx, productID, qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for product %s", productID))
			}
		}
		return nil
	})
}
