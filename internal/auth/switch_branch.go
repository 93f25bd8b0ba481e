package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/adiwirasena/koperasi-pos-backend/pkg/auth"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/auth/session"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/config"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

// SwitchBranchInput captures the data required to re-scope a session to
// another branch.
type SwitchBranchInput struct {
	UserID        uuid.UUID
	Role          enums.UserRole
	AccessTokenID string
	BranchID      uuid.UUID
	RefreshToken  string
}

// SwitchBranchService is the interface exposed to the controller.
type SwitchBranchService interface {
	Switch(ctx context.Context, input SwitchBranchInput) (*SwitchBranchResponse, error)
}

type switchBranchService struct {
	accounts accountLookup
	session  sessionRotator
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

type sessionRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

// SwitchBranchServiceParams bundles dependencies for the switch flow.
type SwitchBranchServiceParams struct {
	AccountRepo    accountLookup
	SessionManager sessionRotator
	JWTConfig      config.JWTConfig
}

// NewSwitchBranchService constructs the service.
func NewSwitchBranchService(params SwitchBranchServiceParams) (SwitchBranchService, error) {
	if params.AccountRepo == nil {
		return nil, errors.New("account repository required")
	}
	if params.SessionManager == nil {
		return nil, errors.New("session manager required")
	}
	return &switchBranchService{
		accounts: params.AccountRepo,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		now:      time.Now,
	}, nil
}

// Switch re-scopes the session to the target branch and rotates the token
// pair so the old access token cannot keep ringing up sales on the previous
// branch. Only super admins may operate outside their home branch.
func (s *switchBranchService) Switch(ctx context.Context, input SwitchBranchInput) (*SwitchBranchResponse, error) {
	if input.Role != enums.UserRoleSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "branch switching requires super admin")
	}

	account, err := s.accounts.FindByID(ctx, input.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup branch")
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch is inactive")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, input.AccessTokenID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:    input.UserID,
		AccountID: account.ID,
		Role:      input.Role,
		JTI:       newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SwitchBranchResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Branch:       BranchSummary{ID: account.ID, Name: account.Name},
	}, nil
}
