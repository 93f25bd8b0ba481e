package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, accountID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, accountID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, accountID, productID uuid.UUID) error
	GetProduct(ctx context.Context, accountID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, accountID uuid.UUID, filters ListFilters) ([]ProductDTO, error)
	ListLowStock(ctx context.Context, accountID uuid.UUID) ([]ProductDTO, error)
	AdjustStock(ctx context.Context, accountID, productID uuid.UUID, stock int) (*ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name     string
	Category enums.ProductCategory
	Price    int
	Cost     int
	Stock    int
	MinStock int
	SKU      *string
	IsActive bool
	Variants []VariantInput
}

// VariantInput defines a named price adjustment.
type VariantInput struct {
	Name       string
	PriceDelta int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name     *string
	Category *enums.ProductCategory
	Price    *int
	Cost     *int
	Stock    *int
	MinStock *int
	SKU      *string
	IsActive *bool
	Variants *[]VariantInput
}

type feedPublisher interface {
	Publish(ctx context.Context, env feed.Envelope) error
}

// service implements the product service.
type service struct {
	repo      *Repository
	dbClient  *db.Client
	publisher feedPublisher
	logg      *logger.Logger
}

// NewService constructs a product service instance. The publisher is
// optional; when nil, row changes are not fanned out.
func NewService(repo *Repository, dbClient *db.Client, publisher feedPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		publisher: publisher,
		logg:      logg,
	}, nil
}

// CreateProduct creates the product together with its variants.
func (s *service) CreateProduct(ctx context.Context, accountID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateMoney(input.Price, input.Cost); err != nil {
		return nil, err
	}
	if input.Stock < 0 || input.MinStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock values cannot be negative")
	}
	if err := ensureUniqueVariants(input.Variants); err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		row := &models.Product{
			AccountID: accountID,
			Name:      input.Name,
			Category:  input.Category,
			Price:     input.Price,
			Cost:      input.Cost,
			Stock:     input.Stock,
			MinStock:  input.MinStock,
			SKU:       input.SKU,
			IsActive:  input.IsActive,
		}
		created, err := txRepo.Create(ctx, row)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_products_account_sku") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID

		if len(input.Variants) > 0 {
			variants := buildVariantRows(created.ID, input.Variants)
			if err := txRepo.ReplaceVariants(ctx, created.ID, variants); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert variants")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	product, err := s.repo.FindByID(ctx, createdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	s.publishChange(ctx, feed.OpInsert, product)
	return NewProductDTO(product), nil
}

// UpdateProduct applies the provided mutations and replaces variants when given.
func (s *service) UpdateProduct(ctx context.Context, accountID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.Price != nil || input.Cost != nil {
		price, cost := 0, 0
		if input.Price != nil {
			price = *input.Price
		}
		if input.Cost != nil {
			cost = *input.Cost
		}
		if err := validateMoney(price, cost); err != nil {
			return nil, err
		}
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.Variants != nil {
		if err := ensureUniqueVariants(*input.Variants); err != nil {
			return nil, err
		}
	}

	product, err := s.loadOwned(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		applyUpdate(product, input)
		if _, err := txRepo.Update(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "idx_products_account_sku") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}

		if input.Variants != nil {
			variants := buildVariantRows(product.ID, *input.Variants)
			if err := txRepo.ReplaceVariants(ctx, product.ID, variants); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace variants")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	s.publishChange(ctx, feed.OpUpdate, updated)
	return NewProductDTO(updated), nil
}

// DeleteProduct removes the product. Sale history keeps its frozen item
// snapshots, so the delete does not rewrite past transactions.
func (s *service) DeleteProduct(ctx context.Context, accountID, productID uuid.UUID) error {
	product, err := s.loadOwned(ctx, accountID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	s.publishChange(ctx, feed.OpDelete, product)
	return nil
}

// GetProduct loads a single catalog entry scoped to the account.
func (s *service) GetProduct(ctx context.Context, accountID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// ListProducts returns the account catalog.
func (s *service) ListProducts(ctx context.Context, accountID uuid.UUID, filters ListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.ListByAccount(ctx, accountID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return NewProductDTOs(rows), nil
}

// ListLowStock returns products that need restocking.
func (s *service) ListLowStock(ctx context.Context, accountID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	return NewProductDTOs(rows), nil
}

// AdjustStock overwrites the stock level, for restocks and manual corrections.
func (s *service) AdjustStock(ctx context.Context, accountID, productID uuid.UUID, stock int) (*ProductDTO, error) {
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if _, err := s.loadOwned(ctx, accountID, productID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStock(ctx, productID, stock); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set stock")
	}
	updated, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	s.publishChange(ctx, feed.OpUpdate, updated)
	return NewProductDTO(updated), nil
}

func (s *service) loadOwned(ctx context.Context, accountID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to branch")
	}
	return product, nil
}

// publishChange fans the row out on the change feed. Publish failures are
// logged and swallowed; the write already committed.
func (s *service) publishChange(ctx context.Context, op feed.Operation, product *models.Product) {
	if s.publisher == nil || product == nil {
		return
	}
	env, err := feed.NewEnvelope(feed.TableProducts, op, product.AccountID, product.ID, NewProductDTO(product))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "building product change envelope", err)
		}
		return
	}
	if err := s.publisher.Publish(ctx, env); err != nil && s.logg != nil {
		s.logg.Error(ctx, "publishing product change", err)
	}
}

func buildVariantRows(productID uuid.UUID, inputs []VariantInput) []models.ProductVariant {
	rows := make([]models.ProductVariant, 0, len(inputs))
	for i, in := range inputs {
		rows = append(rows, models.ProductVariant{
			ProductID:  productID,
			Name:       strings.TrimSpace(in.Name),
			PriceDelta: in.PriceDelta,
			Position:   i,
		})
	}
	return rows
}

func ensureUniqueVariants(inputs []VariantInput) error {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		name := strings.ToLower(strings.TrimSpace(in.Name))
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant name cannot be empty")
		}
		if _, ok := seen[name]; ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate variant name %q", in.Name))
		}
		seen[name] = struct{}{}
	}
	return nil
}

func validateMoney(price, cost int) error {
	if price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if cost < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
	}
	return nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Cost != nil {
		product.Cost = *input.Cost
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.MinStock != nil {
		product.MinStock = *input.MinStock
	}
	if input.SKU != nil {
		product.SKU = input.SKU
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}
