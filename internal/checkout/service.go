package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/adiwirasena/koperasi-pos-backend/internal/cart"
	product "github.com/adiwirasena/koperasi-pos-backend/internal/products"
	transaction "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/metrics"
)

const (
	modeStrict     = "strict"
	modeBestEffort = "best_effort"
)

// Input carries the tendered payment for a checkout attempt. Method falls
// back to cash when unset.
type Input struct {
	Paid   int
	Method enums.PaymentMethod
}

// Result reports how the checkout ended. FailedSteps is only populated on
// partial failures of the best-effort path.
type Result struct {
	State       State                       `json:"state"`
	Transaction *transaction.TransactionDTO `json:"transaction"`
	FailedSteps []string                    `json:"failed_steps,omitempty"`
}

type cartAccess interface {
	Lines(ctx context.Context, terminalID string) []cart.Line
	Clear(ctx context.Context, terminalID string)
}

type persister interface {
	SaveHeader(ctx context.Context, txn *models.Transaction) error
	SaveItems(ctx context.Context, items []models.TransactionItem) error
	LowerStock(ctx context.Context, productID uuid.UUID, qty int) error
	SaveAtomic(ctx context.Context, txn *models.Transaction, items []models.TransactionItem, decrements map[uuid.UUID]int) error
	LoadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

type feedPublisher interface {
	Publish(ctx context.Context, env feed.Envelope) error
}

// Service runs the checkout flow for a terminal's cart.
type Service interface {
	Checkout(ctx context.Context, terminalID string, accountID, cashierID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	carts     cartAccess
	store     persister
	publisher feedPublisher
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	strict    bool
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService builds the checkout service. The publisher and metrics are
// optional.
func NewService(carts cartAccess, store persister, publisher feedPublisher, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger, strict bool) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart access required")
	}
	if store == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     carts,
		store:     store,
		publisher: publisher,
		metrics:   checkoutMetrics,
		logg:      logg,
		strict:    strict,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}, nil
}

// Checkout commits the terminal's cart as a sale. The branch is pinned to
// accountID at entry, so a branch switch mid-flight cannot split the sale
// across branches. Only one checkout may run per terminal at a time.
func (s *service) Checkout(ctx context.Context, terminalID string, accountID, cashierID uuid.UUID, input Input) (*Result, error) {
	if err := s.acquire(terminalID); err != nil {
		return nil, err
	}
	defer s.release(terminalID)

	started := s.now()
	mode := modeBestEffort
	if s.strict {
		mode = modeStrict
	}

	lines := s.carts.Lines(ctx, terminalID)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total := 0
	for _, line := range lines {
		total += line.Subtotal()
	}
	if input.Paid < total {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount is below the total")
	}

	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	txn := &models.Transaction{
		ID:            uuid.New(),
		AccountID:     accountID,
		CashierID:     cashierID,
		Total:         total,
		Paid:          input.Paid,
		Change:        input.Paid - total,
		PaymentMethod: method,
		CreatedAt:     started.UTC(),
	}
	items := buildItems(txn.ID, lines)
	decrements := coalesceDecrements(lines)

	var result *Result
	var err error
	if s.strict {
		result, err = s.commitStrict(ctx, terminalID, txn, items, decrements)
	} else {
		result, err = s.commitBestEffort(ctx, terminalID, txn, items, decrements)
	}
	if err != nil {
		s.metrics.IncOutcome(mode, "failed")
		return nil, err
	}

	s.metrics.ObserveDuration(mode, s.now().Sub(started))
	s.metrics.IncOutcome(mode, result.State.String())
	s.publishSale(ctx, txn, items)
	s.publishStockChanges(ctx, decrements)
	return result, nil
}

// commitStrict writes the whole sale in one database transaction. Any
// failure leaves the cart untouched so the cashier can retry.
func (s *service) commitStrict(ctx context.Context, terminalID string, txn *models.Transaction, items []models.TransactionItem, decrements map[uuid.UUID]int) (*Result, error) {
	if err := s.store.SaveAtomic(ctx, txn, items, decrements); err != nil {
		s.metrics.IncStepFailure("atomic")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit sale")
	}
	s.carts.Clear(ctx, terminalID)
	txn.Items = items
	return &Result{State: StateDone, Transaction: transaction.NewTransactionDTO(txn)}, nil
}

// commitBestEffort writes header, items and stock as independent steps. A
// header failure aborts with the cart intact; once the header lands the
// cart is cleared and later failures degrade the result instead of undoing
// the sale.
func (s *service) commitBestEffort(ctx context.Context, terminalID string, txn *models.Transaction, items []models.TransactionItem, decrements map[uuid.UUID]int) (*Result, error) {
	if err := s.store.SaveHeader(ctx, txn); err != nil {
		s.metrics.IncStepFailure("header")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction header")
	}
	// The header is committed; only touch the terminal's cart if the
	// session is still live.
	if ctx.Err() == nil {
		s.carts.Clear(ctx, terminalID)
	}

	var failed []string
	var soft error
	if err := s.store.SaveItems(ctx, items); err != nil {
		s.metrics.IncStepFailure("items")
		soft = multierr.Append(soft, fmt.Errorf("persist transaction items: %w", err))
		failed = append(failed, "items")
	}

	var stockErrs []error
	for productID, qty := range decrements {
		if err := s.store.LowerStock(ctx, productID, qty); err != nil {
			s.metrics.IncStepFailure("stock")
			stockErrs = append(stockErrs, fmt.Errorf("lower stock for product %s: %w", productID, err))
		}
	}
	if len(stockErrs) > 0 {
		soft = multierr.Append(soft, multierr.Combine(stockErrs...))
		failed = append(failed, "stock")
	}

	state := StateDone
	if soft != nil {
		state = StatePartialFailure
		s.logg.Error(ctx, "sale committed with incomplete follow-up writes", soft)
	}
	txn.Items = items
	return &Result{State: state, Transaction: transaction.NewTransactionDTO(txn), FailedSteps: failed}, nil
}

func (s *service) acquire(terminalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[terminalID]; busy {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress for this terminal")
	}
	s.inflight[terminalID] = struct{}{}
	return nil
}

func (s *service) release(terminalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, terminalID)
}

// publishSale fans the committed sale out on the change feed. Failures are
// logged and swallowed; the write already committed.
func (s *service) publishSale(ctx context.Context, txn *models.Transaction, items []models.TransactionItem) {
	if s.publisher == nil {
		return
	}
	txn.Items = items
	env, err := feed.NewEnvelope(feed.TableTransactions, feed.OpInsert, txn.AccountID, txn.ID, transaction.NewTransactionDTO(txn))
	if err != nil {
		s.logg.Error(ctx, "building transaction change envelope", err)
		return
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logg.Error(ctx, "publishing transaction change", err)
	}
}

// publishStockChanges emits one product update per decremented product so
// replicas converge on the committed stock levels.
func (s *service) publishStockChanges(ctx context.Context, decrements map[uuid.UUID]int) {
	if s.publisher == nil {
		return
	}
	for productID := range decrements {
		row, err := s.store.LoadProduct(ctx, productID)
		if err != nil {
			s.logg.Error(ctx, "reloading product after sale", err)
			continue
		}
		env, err := feed.NewEnvelope(feed.TableProducts, feed.OpUpdate, row.AccountID, row.ID, product.NewProductDTO(row))
		if err != nil {
			s.logg.Error(ctx, "building product change envelope", err)
			continue
		}
		if err := s.publisher.Publish(ctx, env); err != nil {
			s.logg.Error(ctx, "publishing product change", err)
		}
	}
}

// buildItems freezes the cart lines into immutable sale items.
func buildItems(txnID uuid.UUID, lines []cart.Line) []models.TransactionItem {
	items := make([]models.TransactionItem, 0, len(lines))
	for _, line := range lines {
		productID := line.ProductID
		items = append(items, models.TransactionItem{
			TransactionID: txnID,
			ProductID:     &productID,
			ProductName:   line.ProductName,
			UnitPrice:     line.UnitPrice(),
			UnitCost:      line.Cost,
			Quantity:      line.Quantity,
			Subtotal:      line.Subtotal(),
			Variants:      line.Variants,
		})
	}
	return items
}

// coalesceDecrements folds all lines of the same product into one stock
// decrement, so a product sold under several variant selections is lowered
// once with the combined quantity.
func coalesceDecrements(lines []cart.Line) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		out[line.ProductID] += line.Quantity
	}
	return out
}
