package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

type stubLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	return &clone, nil
}

func newTestEngine(t *testing.T, products ...*models.Product) (*Engine, *stubLoader) {
	t.Helper()
	loader := &stubLoader{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		loader.products[p.ID] = p
	}
	engine, err := NewEngine(loader, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine, loader
}

func simpleProduct(stock int) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     "Teh Botol",
		Category: enums.ProductCategoryBeverage,
		Price:    1000,
		Cost:     700,
		Stock:    stock,
		IsActive: true,
	}
}

func variantProduct(stock int) *models.Product {
	p := simpleProduct(stock)
	p.Name = "Kopi"
	p.Variants = []models.ProductVariant{
		{ProductID: p.ID, Name: "extra", PriceDelta: 500},
		{ProductID: p.ID, Name: "besar", PriceDelta: 1000},
	}
	return p
}

func TestBeginAddOutOfStockIsNoOp(t *testing.T) {
	product := simpleProduct(0)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	result, err := engine.BeginAdd(ctx, "till-1", product.ID)
	if err != nil {
		t.Fatalf("begin add: %v", err)
	}
	if result.Added || result.NeedsVariantChoice {
		t.Fatalf("expected silent no-op, got %+v", result)
	}
	if len(result.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(result.Cart.Lines))
	}
}

func TestBeginAddWithoutVariantsAddsImmediately(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	result, err := engine.BeginAdd(ctx, "till-1", product.ID)
	if err != nil {
		t.Fatalf("begin add: %v", err)
	}
	if !result.Added {
		t.Fatal("expected immediate add for variant-less product")
	}
	if len(result.Cart.Lines) != 1 || result.Cart.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart: %+v", result.Cart)
	}
}

func TestBeginAddWithVariantsSuspends(t *testing.T) {
	product := variantProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	result, err := engine.BeginAdd(ctx, "till-1", product.ID)
	if err != nil {
		t.Fatalf("begin add: %v", err)
	}
	if !result.NeedsVariantChoice || result.Added {
		t.Fatalf("expected variant choice step, got %+v", result)
	}
	if len(result.VariantOptions) != 2 {
		t.Fatalf("expected 2 variant options, got %d", len(result.VariantOptions))
	}
	if len(result.Cart.Lines) != 0 {
		t.Fatal("cart must not change until the selection is confirmed")
	}
}

func TestConfirmAddMergesIdenticalSelection(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil); err != nil {
			t.Fatalf("confirm add %d: %v", i, err)
		}
	}

	lines := engine.Lines(ctx, "till-1")
	if len(lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestConfirmAddRepeatedNameMergesIntoOneLine(t *testing.T) {
	product := variantProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, []string{"extra"}); err != nil {
		t.Fatalf("confirm add: %v", err)
	}
	if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, []string{"extra", "extra"}); err != nil {
		t.Fatalf("confirm add with repeated name: %v", err)
	}

	lines := engine.Lines(ctx, "till-1")
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
	if lines[0].Key != LineKey(product.ID, []string{"extra"}) {
		t.Fatalf("unexpected key %q", lines[0].Key)
	}
}

func TestConfirmAddDistinctSelectionsSplitLines(t *testing.T) {
	product := variantProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil); err != nil {
		t.Fatalf("confirm add plain: %v", err)
	}
	if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, []string{"extra"}); err != nil {
		t.Fatalf("confirm add variant: %v", err)
	}

	lines := engine.Lines(ctx, "till-1")
	if len(lines) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", len(lines))
	}
	if lines[0].Key == lines[1].Key {
		t.Fatal("expected distinct line keys")
	}
}

func TestConfirmAddCapsAtStockSnapshot(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil); err != nil {
			t.Fatalf("confirm add %d: %v", i, err)
		}
	}

	lines := engine.Lines(ctx, "till-1")
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected quantity capped at 5, got %+v", lines)
	}
}

func TestConfirmAddUnknownVariantRejected(t *testing.T) {
	product := variantProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	_, err := engine.ConfirmAdd(ctx, "till-1", product.ID, []string{"tidak-ada"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestQuantityNeverExceedsSnapshot(t *testing.T) {
	product := simpleProduct(3)
	engine, loader := newTestEngine(t, product)
	ctx := context.Background()

	dto, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil)
	if err != nil {
		t.Fatalf("confirm add: %v", err)
	}
	key := dto.Lines[0].Key

	// stock rises after the line was created; the snapshot still rules
	loader.products[product.ID].Stock = 100

	if _, err := engine.ChangeQuantity(ctx, "till-1", key, 50); err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	lines := engine.Lines(ctx, "till-1")
	if lines[0].Quantity != 3 {
		t.Fatalf("expected clamp to snapshot 3, got %d", lines[0].Quantity)
	}

	if _, err := engine.SetQuantity(ctx, "till-1", key, 99); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	lines = engine.Lines(ctx, "till-1")
	if lines[0].Quantity != 3 {
		t.Fatalf("expected set clamp to snapshot 3, got %d", lines[0].Quantity)
	}
}

func TestChangeQuantityToZeroRemovesLine(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	dto, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil)
	if err != nil {
		t.Fatalf("confirm add: %v", err)
	}
	key := dto.Lines[0].Key

	dto, err = engine.ChangeQuantity(ctx, "till-1", key, -1)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if len(dto.Lines) != 0 {
		t.Fatalf("expected line removed at zero, got %+v", dto.Lines)
	}
}

func TestRemoveUnconditionally(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	dto, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil)
	if err != nil {
		t.Fatalf("confirm add: %v", err)
	}

	dto, err = engine.Remove(ctx, "till-1", dto.Lines[0].Key)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Lines) != 0 {
		t.Fatal("expected empty cart after remove")
	}

	if _, err := engine.Remove(ctx, "till-1", "missing"); err == nil {
		t.Fatal("expected not found for unknown key")
	}
}

func TestPricingSumsVariantDeltas(t *testing.T) {
	plain := simpleProduct(10)
	withVariant := variantProduct(10)
	engine, _ := newTestEngine(t, plain, withVariant)
	ctx := context.Background()

	if _, err := engine.ConfirmAdd(ctx, "till-1", plain.ID, nil); err != nil {
		t.Fatalf("add plain: %v", err)
	}
	if _, err := engine.ConfirmAdd(ctx, "till-1", plain.ID, nil); err != nil {
		t.Fatalf("add plain again: %v", err)
	}
	if _, err := engine.ConfirmAdd(ctx, "till-1", withVariant.ID, []string{"extra"}); err != nil {
		t.Fatalf("add variant: %v", err)
	}

	snapshot := engine.Snapshot(ctx, "till-1")
	// 2 x 1000 + 1 x (1000 + 500)
	if snapshot.Total != 3500 {
		t.Fatalf("expected total 3500, got %d", snapshot.Total)
	}
	if snapshot.ItemCount != 3 {
		t.Fatalf("expected 3 items, got %d", snapshot.ItemCount)
	}
}

func TestCartsAreIsolatedPerTerminal(t *testing.T) {
	product := simpleProduct(5)
	engine, _ := newTestEngine(t, product)
	ctx := context.Background()

	if _, err := engine.ConfirmAdd(ctx, "till-1", product.ID, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(engine.Lines(ctx, "till-2")) != 0 {
		t.Fatal("expected till-2 cart to be empty")
	}

	engine.Clear(ctx, "till-1")
	if len(engine.Lines(ctx, "till-1")) != 0 {
		t.Fatal("expected till-1 cart cleared")
	}
}

func TestLineKeyIgnoresVariantOrderAndCase(t *testing.T) {
	id := uuid.New()
	a := LineKey(id, []string{"Extra", "besar"})
	b := LineKey(id, []string{"besar ", "extra"})
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
	if LineKey(id, nil) != id.String() {
		t.Fatal("expected bare product key for empty selection")
	}
}
