package product

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
)

func TestRepositoryProductFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	account := mustCreateTestAccount(t, tx)
	created := mustCreateTestProduct(t, tx, account.ID, 10)
	if created.ID == uuid.Nil {
		t.Fatal("expected product id to be generated")
	}

	if err := repo.ReplaceVariants(ctx, created.ID, []models.ProductVariant{
		{ProductID: created.ID, Name: "dingin", PriceDelta: 1000, Position: 0},
		{ProductID: created.ID, Name: "besar", PriceDelta: 2000, Position: 1},
	}); err != nil {
		t.Fatalf("replace variants: %v", err)
	}

	detail, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if len(detail.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(detail.Variants))
	}
	if detail.Variants[0].Name != "dingin" || detail.Variants[1].Name != "besar" {
		t.Fatalf("expected variants in entry order, got %s first", detail.Variants[0].Name)
	}

	detail.Name = "Nama Baru"
	if _, err := repo.Update(ctx, detail); err != nil {
		t.Fatalf("update product: %v", err)
	}

	list, err := repo.ListByAccount(ctx, account.ID, ListFilters{})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected at least one product")
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
}

func TestRepositoryDecrementStock(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	account := mustCreateTestAccount(t, tx)
	created := mustCreateTestProduct(t, tx, account.ID, 5)

	affected, err := repo.DecrementStock(ctx, created.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	// only 2 left, a decrement of 3 must not apply
	affected, err = repo.DecrementStock(ctx, created.ID, 3)
	if err != nil {
		t.Fatalf("decrement past stock: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected conditional decrement to reject, got %d rows", affected)
	}

	reloaded, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", reloaded.Stock)
	}
}

func TestRepositoryListLowStock(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	account := mustCreateTestAccount(t, tx)
	low := mustCreateTestProduct(t, tx, account.ID, 1)
	mustCreateTestProduct(t, tx, account.ID, 50)

	rows, err := repo.ListLowStock(ctx, account.ID)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 low stock product, got %d", len(rows))
	}
	if rows[0].ID != low.ID {
		t.Fatalf("expected product %s, got %s", low.ID, rows[0].ID)
	}
}
