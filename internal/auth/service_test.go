package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/adiwirasena/koperasi-pos-backend/pkg/auth"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/config"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db/models"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "koperasi-pos",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 120,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

type stubUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

type stubAccountRepo struct {
	account *models.Account
}

func (s *stubAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.account == nil || s.account.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

type stubSessionManager struct {
	refresh   string
	rotated   bool
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.refresh = "refresh-" + accessID
	return s.refresh, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotated = true
	newID := uuid.NewString()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubLimiter struct {
	allow bool
	calls int
}

func (s *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.calls++
	return s.allow, 1, nil
}

func testUser(t *testing.T, password string, role enums.UserRole) (*models.User, *models.Account) {
	t.Helper()
	account := &models.Account{ID: uuid.New(), Name: "Cabang Utama", IsActive: true}
	return &models.User{
		ID:           uuid.New(),
		Email:        "kasir@koperasi.id",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Siti Rahma",
		Role:         role,
		AccountID:    account.ID,
		IsActive:     true,
	}, account
}

func buildService(t *testing.T, user *models.User, account *models.Account, sessions *stubSessionManager, limiter *stubLimiter) Service {
	t.Helper()
	params := ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		AccountRepo:    &stubAccountRepo{account: account},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		RateLimits: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 5,
			LoginIPLimit:    20,
		},
	}
	if limiter != nil {
		params.RateLimiter = limiter
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginIssuesBranchScopedToken(t *testing.T) {
	password := "kasir-secret"
	user, account := testUser(t, password, enums.UserRoleKasir)
	sessions := &stubSessionManager{}
	svc := buildService(t, user, account, sessions, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.AccountID != account.ID {
		t.Fatalf("expected branch claim %s, got %s", account.ID, claims.AccountID)
	}
	if claims.Role != enums.UserRoleKasir {
		t.Fatalf("expected kasir role, got %s", claims.Role)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
	if resp.Branch == nil || resp.Branch.Name != "Cabang Utama" {
		t.Fatalf("expected branch summary, got %+v", resp.Branch)
	}
}

func TestLoginRejectsWrongPasswordAndInactiveUser(t *testing.T) {
	user, account := testUser(t, "correct", enums.UserRoleKasir)
	svc := buildService(t, user, account, &stubSessionManager{}, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Email: user.Email, Password: "wrong"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	user.IsActive = false
	_, err = svc.Login(ctx, LoginRequest{Email: user.Email, Password: "correct"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	user, account := testUser(t, "secret", enums.UserRoleKasir)
	limiter := &stubLimiter{allow: false}
	svc := buildService(t, user, account, &stubSessionManager{}, limiter)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "secret", ClientIP: "10.0.0.1"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if limiter.calls == 0 {
		t.Fatal("expected rate limiter consulted")
	}
}

func TestRefreshRotatesSessionAndKeepsBranch(t *testing.T) {
	password := "kasir-secret"
	user, account := testUser(t, password, enums.UserRoleSuperAdmin)
	sessions := &stubSessionManager{}
	svc := buildService(t, user, account, sessions, nil)

	// mint a token pinned to a switched branch, not the user's home branch
	switchedBranch := uuid.New()
	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    user.ID,
		AccountID: switchedBranch,
		Role:      user.Role,
		JTI:       uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "refresh"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !sessions.rotated {
		t.Fatal("expected session rotation")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != switchedBranch {
		t.Fatalf("expected switched branch to survive refresh, got %s", claims.AccountID)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	user, account := testUser(t, "secret", enums.UserRoleKasir)
	sessions := &stubSessionManager{}
	svc := buildService(t, user, account, sessions, nil)

	if err := svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), " "); err == nil {
		t.Fatal("expected error for missing session")
	}
}
