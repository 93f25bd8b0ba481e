package product

import (
	"testing"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

func TestEnsureUniqueVariants(t *testing.T) {
	t.Run("uniqueNames", func(t *testing.T) {
		err := ensureUniqueVariants([]VariantInput{
			{Name: "dingin", PriceDelta: 1000},
			{Name: "besar", PriceDelta: 2000},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("duplicateNameCaseInsensitive", func(t *testing.T) {
		err := ensureUniqueVariants([]VariantInput{
			{Name: "Dingin"},
			{Name: "dingin "},
		})
		if err == nil {
			t.Fatal("expected validation error for duplicate name")
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error code, got %v", err)
		}
	})

	t.Run("emptyName", func(t *testing.T) {
		if err := ensureUniqueVariants([]VariantInput{{Name: "  "}}); err == nil {
			t.Fatal("expected validation error for empty name")
		}
	})
}

func TestValidateMoney(t *testing.T) {
	if err := validateMoney(5000, 3500); err != nil {
		t.Fatalf("expected valid money, got %v", err)
	}
	if err := validateMoney(-1, 0); err == nil {
		t.Fatal("expected error for negative price")
	}
	if err := validateMoney(0, -1); err == nil {
		t.Fatal("expected error for negative cost")
	}
}

func TestApplyUpdateMutatesOnlyProvidedFields(t *testing.T) {
	category := enums.ProductCategoryBeverage
	name := "Teh Botol"
	price := 4000
	product := &models.Product{
		Name:     "Teh",
		Category: enums.ProductCategoryFood,
		Price:    3000,
		Cost:     2000,
		Stock:    10,
		IsActive: true,
	}

	applyUpdate(product, UpdateProductInput{
		Name:     &name,
		Category: &category,
		Price:    &price,
	})

	if product.Name != name || product.Category != category || product.Price != price {
		t.Fatalf("expected provided fields applied, got %+v", product)
	}
	if product.Cost != 2000 || product.Stock != 10 || !product.IsActive {
		t.Fatalf("expected untouched fields preserved, got %+v", product)
	}
}

func TestNewProductDTOFlagsLowStock(t *testing.T) {
	product := &models.Product{
		Name:     "Beras",
		Category: enums.ProductCategoryStaple,
		Stock:    2,
		MinStock: 5,
		Variants: []models.ProductVariant{{Name: "5kg", PriceDelta: 10000}},
	}

	dto := NewProductDTO(product)
	if !dto.LowStock {
		t.Fatal("expected low stock flag")
	}
	if len(dto.Variants) != 1 || dto.Variants[0].Name != "5kg" {
		t.Fatalf("expected variants mapped, got %+v", dto.Variants)
	}

	product.Stock = 6
	if NewProductDTO(product).LowStock {
		t.Fatal("expected low stock flag cleared above threshold")
	}
}
