package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/pagination"
)

// Service exposes read access to the sales history.
type Service interface {
	GetTransaction(ctx context.Context, accountID, id uuid.UUID) (*TransactionDTO, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, filters ListFilters, page pagination.Params) (*ListResult, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the sales history service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("transaction repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetTransaction(ctx context.Context, accountID, id uuid.UUID) (*TransactionDTO, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "transaction does not belong to branch")
	}
	return NewTransactionDTO(txn), nil
}

func (s *service) ListTransactions(ctx context.Context, accountID uuid.UUID, filters ListFilters, page pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(page.Limit)
	rows, err := s.repo.ListByAccount(ctx, accountID, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	result := &ListResult{}
	if len(rows) > limit {
		rows = rows[:limit]
		result.HasMore = true
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	result.Transactions = NewTransactionDTOs(rows)
	return result, nil
}
