package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	pkgAuth "github.com/adiwirasena/koperasi-pos-backend/pkg/auth"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/auth/session"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
)

func buildSwitchService(t *testing.T, account *models.Account, sessions sessionRotator) SwitchBranchService {
	t.Helper()
	svc, err := NewSwitchBranchService(SwitchBranchServiceParams{
		AccountRepo:    &stubAccountRepo{account: account},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new switch service: %v", err)
	}
	return svc
}

func TestSwitchBranchRequiresSuperAdmin(t *testing.T) {
	account := &models.Account{ID: uuid.New(), Name: "Cabang Dua", IsActive: true}
	svc := buildSwitchService(t, account, &stubSessionManager{})

	_, err := svc.Switch(context.Background(), SwitchBranchInput{
		UserID:   uuid.New(),
		Role:     enums.UserRoleKasir,
		BranchID: account.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for kasir, got %v", err)
	}
}

func TestSwitchBranchReissuesScopedToken(t *testing.T) {
	account := &models.Account{ID: uuid.New(), Name: "Cabang Dua", IsActive: true}
	sessions := &stubSessionManager{}
	svc := buildSwitchService(t, account, sessions)
	userID := uuid.New()

	resp, err := svc.Switch(context.Background(), SwitchBranchInput{
		UserID:        userID,
		Role:          enums.UserRoleSuperAdmin,
		AccessTokenID: uuid.NewString(),
		BranchID:      account.ID,
		RefreshToken:  "refresh",
	})
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if !sessions.rotated {
		t.Fatal("expected old session rotated out")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != account.ID || claims.UserID != userID {
		t.Fatalf("expected token scoped to target branch, got %+v", claims)
	}
	if resp.Branch.Name != "Cabang Dua" {
		t.Fatalf("unexpected branch summary: %+v", resp.Branch)
	}
}

func TestSwitchBranchUnknownOrInactiveBranch(t *testing.T) {
	account := &models.Account{ID: uuid.New(), Name: "Cabang Dua", IsActive: true}
	svc := buildSwitchService(t, account, &stubSessionManager{})
	ctx := context.Background()

	_, err := svc.Switch(ctx, SwitchBranchInput{
		Role:     enums.UserRoleSuperAdmin,
		BranchID: uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	account.IsActive = false
	_, err = svc.Switch(ctx, SwitchBranchInput{
		Role:     enums.UserRoleSuperAdmin,
		BranchID: account.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for inactive branch, got %v", err)
	}
}

func TestSwitchBranchInvalidRefreshToken(t *testing.T) {
	account := &models.Account{ID: uuid.New(), Name: "Cabang Dua", IsActive: true}
	sessions := &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := buildSwitchService(t, account, sessions)

	_, err := svc.Switch(context.Background(), SwitchBranchInput{
		Role:         enums.UserRoleSuperAdmin,
		BranchID:     account.ID,
		RefreshToken: "stale",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
