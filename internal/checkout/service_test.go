package checkout

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/internal/cart"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/types"
)

type fakeCarts struct {
	mu    sync.Mutex
	lines map[string][]cart.Line
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{lines: make(map[string][]cart.Line)}
}

func (f *fakeCarts) Lines(ctx context.Context, terminalID string) []cart.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.Line(nil), f.lines[terminalID]...)
}

func (f *fakeCarts) Clear(ctx context.Context, terminalID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, terminalID)
}

type fakeStore struct {
	mu         sync.Mutex
	headers    []models.Transaction
	items      [][]models.TransactionItem
	decrements map[uuid.UUID]int
	products   map[uuid.UUID]models.Product
	atomic     int

	headerErr     error
	itemsErr      error
	stockErr      error
	atomicErr     error
	headerGate    chan struct{}
	headerEntered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{decrements: make(map[uuid.UUID]int)}
}

func (f *fakeStore) SaveHeader(ctx context.Context, txn *models.Transaction) error {
	if f.headerEntered != nil {
		f.headerEntered <- struct{}{}
	}
	if f.headerGate != nil {
		<-f.headerGate
	}
	if f.headerErr != nil {
		return f.headerErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = append(f.headers, *txn)
	return nil
}

func (f *fakeStore) SaveItems(ctx context.Context, items []models.TransactionItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, items)
	return nil
}

func (f *fakeStore) LowerStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if f.stockErr != nil {
		return f.stockErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrements[productID] += qty
	return nil
}

func (f *fakeStore) SaveAtomic(ctx context.Context, txn *models.Transaction, items []models.TransactionItem, decrements map[uuid.UUID]int) error {
	if f.atomicErr != nil {
		return f.atomicErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.atomic++
	f.headers = append(f.headers, *txn)
	f.items = append(f.items, items)
	for id, qty := range decrements {
		f.decrements[id] += qty
	}
	return nil
}

func (f *fakeStore) LoadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.products == nil {
		return nil, errors.New("product not found")
	}
	row, ok := f.products[productID]
	if !ok {
		return nil, errors.New("product not found")
	}
	copied := row
	return &copied, nil
}

type fakeFeed struct {
	mu        sync.Mutex
	envelopes []feed.Envelope
}

func (f *fakeFeed) Publish(ctx context.Context, env feed.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes = append(f.envelopes, env)
	return nil
}

func testLine(productID uuid.UUID, name string, price, qty, ceiling int, variants types.VariantSelections) cart.Line {
	return cart.Line{
		Key:          cart.LineKey(productID, variantNames(variants)),
		ProductID:    productID,
		ProductName:  name,
		BasePrice:    price,
		Variants:     variants,
		Quantity:     qty,
		StockCeiling: ceiling,
	}
}

func variantNames(selections types.VariantSelections) []string {
	names := make([]string, 0, len(selections))
	for _, sel := range selections {
		names = append(names, sel.Name)
	}
	return names
}

func newTestService(t *testing.T, carts cartAccess, store persister, publisher feedPublisher, strict bool) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(carts, store, publisher, nil, logg, strict)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCheckoutComputesTotalsAcrossVariantLines(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	productB := uuid.New()
	carts.lines["till-1"] = []cart.Line{
		testLine(productA, "Teh Botol", 1000, 2, 10, nil),
		testLine(productB, "Kopi", 1000, 1, 10, types.VariantSelections{{Name: "extra", PriceDelta: 500}}),
	}
	store := newFakeStore()
	store.products = map[uuid.UUID]models.Product{
		productA: {ID: productA, Name: "Teh Botol", Stock: 8},
		productB: {ID: productB, Name: "Kopi", Stock: 9},
	}
	publisher := &fakeFeed{}
	svc := newTestService(t, carts, store, publisher, false)

	accountID, cashierID := uuid.New(), uuid.New()
	result, err := svc.Checkout(context.Background(), "till-1", accountID, cashierID, Input{Paid: 5000})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.State != StateDone {
		t.Fatalf("expected done, got %s", result.State)
	}
	// 2 x 1000 + 1 x 1500
	if result.Transaction.Total != 3500 {
		t.Fatalf("expected total 3500, got %d", result.Transaction.Total)
	}
	if result.Transaction.Change != 1500 {
		t.Fatalf("expected change 1500, got %d", result.Transaction.Change)
	}
	if result.Transaction.AccountID != accountID || result.Transaction.CashierID != cashierID {
		t.Fatal("header missing actor attribution")
	}
	if len(carts.Lines(context.Background(), "till-1")) != 0 {
		t.Fatal("expected cart cleared after commit")
	}
	if len(publisher.envelopes) != 3 || publisher.envelopes[0].Table != feed.TableTransactions {
		t.Fatalf("expected sale plus stock feed events, got %+v", publisher.envelopes)
	}
	productEvents := 0
	for _, env := range publisher.envelopes[1:] {
		if env.Table == feed.TableProducts && env.Op == feed.OpUpdate {
			productEvents++
		}
	}
	if productEvents != 2 {
		t.Fatalf("expected a stock update per product, got %+v", publisher.envelopes)
	}
}

func TestCheckoutCoalescesStockDecrements(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{
		testLine(productA, "Kopi", 1000, 2, 10, nil),
		testLine(productA, "Kopi", 1000, 1, 10, types.VariantSelections{{Name: "extra", PriceDelta: 500}}),
	}
	store := newFakeStore()
	svc := newTestService(t, carts, store, nil, false)

	if _, err := svc.Checkout(context.Background(), "till-1", uuid.New(), uuid.New(), Input{Paid: 10000}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got := store.decrements[productA]; got != 3 {
		t.Fatalf("expected one coalesced decrement of 3, got %d", got)
	}
}

func TestCheckoutRejectsEmptyCartAndShortPayment(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	svc := newTestService(t, carts, newFakeStore(), nil, false)
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, "till-1", uuid.New(), uuid.New(), Input{Paid: 1000}); err == nil {
		t.Fatal("expected error for empty cart")
	}

	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 2, 10, nil)}
	_, err := svc.Checkout(ctx, "till-1", uuid.New(), uuid.New(), Input{Paid: 1999})
	if err == nil {
		t.Fatal("expected error for short payment")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if len(carts.Lines(ctx, "till-1")) != 1 {
		t.Fatal("expected cart preserved after rejected payment")
	}
}

func TestCheckoutHeaderFailurePreservesCart(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 1, 10, nil)}
	store := newFakeStore()
	store.headerErr = errors.New("connection refused")
	svc := newTestService(t, carts, store, nil, false)

	_, err := svc.Checkout(context.Background(), "till-1", uuid.New(), uuid.New(), Input{Paid: 1000})
	if err == nil {
		t.Fatal("expected header failure to surface")
	}
	if len(carts.Lines(context.Background(), "till-1")) != 1 {
		t.Fatal("expected cart preserved when the header never committed")
	}
	if len(store.headers) != 0 {
		t.Fatal("expected no header row")
	}
}

func TestCheckoutPartialFailureAfterHeader(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 1, 10, nil)}
	store := newFakeStore()
	store.itemsErr = errors.New("connection reset")
	store.stockErr = errors.New("connection reset")
	svc := newTestService(t, carts, store, nil, false)

	result, err := svc.Checkout(context.Background(), "till-1", uuid.New(), uuid.New(), Input{Paid: 1000})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if result.State != StatePartialFailure {
		t.Fatalf("expected partial failure, got %s", result.State)
	}
	if len(result.FailedSteps) != 2 {
		t.Fatalf("expected items and stock steps reported, got %v", result.FailedSteps)
	}
	if len(store.headers) != 1 {
		t.Fatal("expected the header to stand")
	}
	if len(carts.Lines(context.Background(), "till-1")) != 0 {
		t.Fatal("expected cart cleared once the header committed")
	}
}

func TestCheckoutSingleFlightPerTerminal(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 1, 10, nil)}
	store := newFakeStore()
	store.headerGate = make(chan struct{})
	store.headerEntered = make(chan struct{}, 1)
	svc := newTestService(t, carts, store, nil, false)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Checkout(ctx, "till-1", uuid.New(), uuid.New(), Input{Paid: 1000})
		firstDone <- err
	}()

	// wait for the first attempt to hold the terminal slot
	<-store.headerEntered
	_, second := svc.Checkout(ctx, "till-1", uuid.New(), uuid.New(), Input{Paid: 1000})
	if typed := pkgerrors.As(second); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for concurrent checkout, got %v", second)
	}

	close(store.headerGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if len(store.headers) != 1 {
		t.Fatalf("expected exactly one header, got %d", len(store.headers))
	}
}

func TestCheckoutPinsBranchAcrossSwitch(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 2, 10, nil)}
	store := newFakeStore()
	store.headerGate = make(chan struct{})
	store.headerEntered = make(chan struct{}, 1)
	publisher := &fakeFeed{}
	svc := newTestService(t, carts, store, publisher, false)
	ctx := context.Background()

	branchA := uuid.New()
	store.products = map[uuid.UUID]models.Product{
		productA: {ID: productA, AccountID: branchA, Name: "Kopi", Stock: 8},
	}
	sessionBranch := branchA

	done := make(chan *Result, 1)
	go func() {
		result, err := svc.Checkout(ctx, "till-1", sessionBranch, uuid.New(), Input{Paid: 2000})
		if err != nil {
			t.Errorf("checkout: %v", err)
		}
		done <- result
	}()

	// the cashier switches branch while the header write is in flight
	<-store.headerEntered
	sessionBranch = uuid.New()
	close(store.headerGate)

	result := <-done
	if result == nil {
		t.Fatal("expected a committed sale")
	}
	if result.Transaction.AccountID != branchA {
		t.Fatalf("expected sale pinned to the starting branch, got %s", result.Transaction.AccountID)
	}
	if len(store.headers) != 1 || store.headers[0].AccountID != branchA {
		t.Fatalf("expected header under the starting branch, got %+v", store.headers)
	}
	if store.decrements[productA] != 2 {
		t.Fatalf("expected the starting branch's product lowered by 2, got %d", store.decrements[productA])
	}
	for _, env := range publisher.envelopes {
		if env.AccountID != branchA {
			t.Fatalf("expected feed events scoped to the starting branch, got %s on %s", env.AccountID, env.Table)
		}
	}
}

func TestCheckoutStrictAbortKeepsCart(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 1, 10, nil)}
	store := newFakeStore()
	store.atomicErr = pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product "+productA.String())
	svc := newTestService(t, carts, store, nil, true)

	_, err := svc.Checkout(context.Background(), "till-1", uuid.New(), uuid.New(), Input{Paid: 1000})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(carts.Lines(context.Background(), "till-1")) != 1 {
		t.Fatal("expected cart preserved after strict abort")
	}
}

func TestCheckoutStrictCommitsAtomically(t *testing.T) {
	carts := newFakeCarts()
	productA := uuid.New()
	carts.lines["till-1"] = []cart.Line{testLine(productA, "Kopi", 1000, 2, 10, nil)}
	store := newFakeStore()
	svc := newTestService(t, carts, store, nil, true)

	result, err := svc.Checkout(context.Background(), "till-1", uuid.New(), uuid.New(), Input{Paid: 2000})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.State != StateDone {
		t.Fatalf("expected done, got %s", result.State)
	}
	if store.atomic != 1 {
		t.Fatalf("expected one atomic commit, got %d", store.atomic)
	}
	if store.decrements[productA] != 2 {
		t.Fatalf("expected decrement 2, got %d", store.decrements[productA])
	}
	if len(carts.Lines(context.Background(), "till-1")) != 0 {
		t.Fatal("expected cart cleared after strict commit")
	}
}
