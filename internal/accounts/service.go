package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/db"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

// Service exposes branch management operations.
type Service interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountDTO, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	GetAccount(ctx context.Context, id uuid.UUID) (*AccountDTO, error)
	ListAccounts(ctx context.Context) ([]AccountDTO, error)
}

type feedPublisher interface {
	Publish(ctx context.Context, env feed.Envelope) error
}

type service struct {
	repo      *Repository
	publisher feedPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs an account service instance.
func NewService(repo *Repository, publisher feedPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}

	account := &models.Account{
		Name:     name,
		Address:  input.Address,
		Phone:    input.Phone,
		IsActive: true,
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_accounts_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "branch name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert account")
	}
	s.publishChange(ctx, feed.OpInsert, created)
	return FromModel(created), nil
}

func (s *service) UpdateAccount(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name cannot be empty")
		}
		account.Name = name
	}
	if input.Address != nil {
		account.Address = input.Address
	}
	if input.Phone != nil {
		account.Phone = input.Phone
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "idx_accounts_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "branch name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update account")
	}
	s.publishChange(ctx, feed.OpUpdate, account)
	return FromModel(account), nil
}

func (s *service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete account")
	}
	s.publishChange(ctx, feed.OpDelete, account)
	return nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(account), nil
}

func (s *service) ListAccounts(ctx context.Context) ([]AccountDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list accounts")
	}
	return FromModels(rows), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func (s *service) publishChange(ctx context.Context, op feed.Operation, account *models.Account) {
	if s.publisher == nil || account == nil {
		return
	}
	env, err := feed.NewEnvelope(feed.TableAccounts, op, account.ID, account.ID, FromModel(account))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "building account change envelope", err)
		}
		return
	}
	if err := s.publisher.Publish(ctx, env); err != nil && s.logg != nil {
		s.logg.Error(ctx, "publishing account change", err)
	}
}
