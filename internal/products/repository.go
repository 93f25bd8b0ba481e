package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

// ListFilters narrows catalog queries.
type ListFilters struct {
	Category   *enums.ProductCategory
	Search     string
	ActiveOnly bool
}

// Repository wires together product persistence helpers.
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

// FindByID loads the product with its variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, name ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Variants").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// ListByAccount lists an account's catalog with variants preloaded.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, filters ListFilters) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, name ASC")
		}).
		Where("account_id = ?", accountID)

	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if filters.Search != "" {
		qb = qb.Where("name ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}

	var rows []models.Product
	err := qb.Order("name ASC").Find(&rows).Error
	return rows, err
}

// ListLowStock returns active products at or below their restock threshold.
func (r *Repository) ListLowStock(ctx context.Context, accountID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ? AND stock <= min_stock", accountID, true).
		Order("stock ASC").
		Find(&rows).
		Error
	return rows, err
}

// ReplaceVariants replaces all variants for the product.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	if len(variants) == 0 {
		return nil
	}
	return tx.Create(&variants).Error
}

// DecrementStock subtracts qty from the product's stock only when enough
// stock remains. Returns the number of rows updated (0 means insufficient
// stock or missing product).
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return result.RowsAffected, result.Error
}

// SetStock overwrites the stock level for a product.
func (r *Repository) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", stock).
		Error
}
