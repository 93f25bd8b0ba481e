package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/types"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Engine owns the in-memory cart of every open terminal session. Lines keep
// insertion order; a line is keyed by product id plus the sorted variant-name
// set. All pricing is computed from values frozen at add time.
type Engine struct {
	mu     sync.Mutex
	carts  map[string][]Line
	loader productLoader
	snaps  *SnapshotStore
	logg   *logger.Logger
}

// NewEngine constructs the cart engine. The snapshot store is optional; when
// present every mutation is written through so a restarted terminal session
// can recover its cart.
func NewEngine(loader productLoader, snaps *SnapshotStore, logg *logger.Logger) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &Engine{
		carts:  make(map[string][]Line),
		loader: loader,
		snaps:  snaps,
		logg:   logg,
	}, nil
}

// BeginAdd starts adding one unit of a product. Products with variants need
// a follow-up ConfirmAdd carrying the chosen variant names; products without
// variants are added immediately. Out-of-stock products are a silent no-op.
func (e *Engine) BeginAdd(ctx context.Context, terminalID string, productID uuid.UUID) (*BeginAddResult, error) {
	product, err := e.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock <= 0 {
		return &BeginAddResult{Cart: e.Snapshot(ctx, terminalID)}, nil
	}

	if len(product.Variants) > 0 {
		opts := make([]VariantOpt, 0, len(product.Variants))
		for _, v := range product.Variants {
			opts = append(opts, VariantOpt{Name: v.Name, PriceDelta: v.PriceDelta})
		}
		return &BeginAddResult{
			NeedsVariantChoice: true,
			VariantOptions:     opts,
			Cart:               e.Snapshot(ctx, terminalID),
		}, nil
	}

	dto, err := e.ConfirmAdd(ctx, terminalID, productID, nil)
	if err != nil {
		return nil, err
	}
	return &BeginAddResult{Added: true, Cart: dto}, nil
}

// ConfirmAdd completes an add with the chosen variant names (possibly none).
// An existing line with the same key gains one unit, capped at the stock
// ceiling captured when the line was created.
func (e *Engine) ConfirmAdd(ctx context.Context, terminalID string, productID uuid.UUID, variantNames []string) (*CartDTO, error) {
	product, err := e.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	selection, err := resolveVariants(product, variantNames)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.restoreLocked(ctx, terminalID)

	if product.Stock <= 0 {
		return e.snapshotLocked(ctx, terminalID), nil
	}

	key := LineKey(productID, variantNames)
	lines := e.carts[terminalID]
	for i := range lines {
		if lines[i].Key == key {
			if lines[i].Quantity < lines[i].StockCeiling {
				lines[i].Quantity++
			}
			e.persistLocked(ctx, terminalID)
			return e.snapshotLocked(ctx, terminalID), nil
		}
	}

	e.carts[terminalID] = append(lines, Line{
		Key:          key,
		ProductID:    product.ID,
		ProductName:  product.Name,
		BasePrice:    product.Price,
		Cost:         product.Cost,
		Variants:     selection,
		Quantity:     1,
		StockCeiling: product.Stock,
	})
	e.persistLocked(ctx, terminalID)
	return e.snapshotLocked(ctx, terminalID), nil
}

// ChangeQuantity applies a delta to a line, clamped to [0, stock ceiling].
// Reaching zero removes the line.
func (e *Engine) ChangeQuantity(ctx context.Context, terminalID, key string, delta int) (*CartDTO, error) {
	return e.updateQuantity(ctx, terminalID, key, func(current, ceiling int) int {
		return current + delta
	})
}

// SetQuantity overwrites a line quantity with the same clamp rule.
func (e *Engine) SetQuantity(ctx context.Context, terminalID, key string, value int) (*CartDTO, error) {
	return e.updateQuantity(ctx, terminalID, key, func(current, ceiling int) int {
		return value
	})
}

// Remove deletes the line unconditionally.
func (e *Engine) Remove(ctx context.Context, terminalID, key string) (*CartDTO, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restoreLocked(ctx, terminalID)

	lines := e.carts[terminalID]
	for i := range lines {
		if lines[i].Key == key {
			e.carts[terminalID] = append(lines[:i], lines[i+1:]...)
			e.persistLocked(ctx, terminalID)
			return e.snapshotLocked(ctx, terminalID), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Clear drops the whole cart for the terminal.
func (e *Engine) Clear(ctx context.Context, terminalID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.carts, terminalID)
	if e.snaps != nil {
		if err := e.snaps.Delete(ctx, terminalID); err != nil && e.logg != nil {
			e.logg.Warn(ctx, "deleting cart snapshot: "+err.Error())
		}
	}
}

// Lines returns a copy of the terminal's cart lines in insertion order.
func (e *Engine) Lines(ctx context.Context, terminalID string) []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restoreLocked(ctx, terminalID)
	lines := e.carts[terminalID]
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// Snapshot returns the cart's wire representation with totals.
func (e *Engine) Snapshot(ctx context.Context, terminalID string) *CartDTO {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(ctx, terminalID)
}

func (e *Engine) updateQuantity(ctx context.Context, terminalID, key string, next func(current, ceiling int) int) (*CartDTO, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restoreLocked(ctx, terminalID)

	lines := e.carts[terminalID]
	for i := range lines {
		if lines[i].Key != key {
			continue
		}
		quantity := next(lines[i].Quantity, lines[i].StockCeiling)
		if quantity < 0 {
			quantity = 0
		}
		if quantity > lines[i].StockCeiling {
			quantity = lines[i].StockCeiling
		}
		if quantity == 0 {
			e.carts[terminalID] = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		e.persistLocked(ctx, terminalID)
		return e.snapshotLocked(ctx, terminalID), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

func (e *Engine) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := e.loader.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is inactive")
	}
	return product, nil
}

func (e *Engine) snapshotLocked(ctx context.Context, terminalID string) *CartDTO {
	e.restoreLocked(ctx, terminalID)
	return newCartDTO(e.carts[terminalID])
}

// restoreLocked pulls the redis snapshot when the in-memory cart is missing,
// so a restarted process does not lose open carts.
func (e *Engine) restoreLocked(ctx context.Context, terminalID string) {
	if e.snaps == nil {
		return
	}
	if _, ok := e.carts[terminalID]; ok {
		return
	}
	lines, err := e.snaps.Load(ctx, terminalID)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(ctx, "loading cart snapshot: "+err.Error())
		}
		return
	}
	if len(lines) > 0 {
		e.carts[terminalID] = lines
	}
}

func (e *Engine) persistLocked(ctx context.Context, terminalID string) {
	if e.snaps == nil {
		return
	}
	if err := e.snaps.Save(ctx, terminalID, e.carts[terminalID]); err != nil && e.logg != nil {
		e.logg.Warn(ctx, "saving cart snapshot: "+err.Error())
	}
}

func resolveVariants(product *models.Product, variantNames []string) (types.VariantSelections, error) {
	if len(variantNames) == 0 {
		return nil, nil
	}
	byName := make(map[string]models.ProductVariant, len(product.Variants))
	for _, v := range product.Variants {
		byName[strings.ToLower(v.Name)] = v
	}
	selection := make(types.VariantSelections, 0, len(variantNames))
	seen := make(map[string]struct{}, len(variantNames))
	for _, raw := range variantNames {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		variant, ok := byName[name]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown variant %q", raw))
		}
		selection = append(selection, types.VariantSelection{Name: variant.Name, PriceDelta: variant.PriceDelta})
	}
	return selection, nil
}
