package product

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

func mustCreateTestAccount(t *testing.T, tx *gorm.DB) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:       uuid.New(),
		Name:     fmt.Sprintf("Cabang %s", uuid.NewString()),
		IsActive: true,
	}
	if err := tx.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, accountID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		AccountID: accountID,
		Name:      fmt.Sprintf("Produk %s", uuid.NewString()),
		Category:  enums.ProductCategoryFood,
		Price:     5000,
		Cost:      3500,
		Stock:     stock,
		MinStock:  2,
		IsActive:  true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
