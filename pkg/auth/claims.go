package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Role      enums.UserRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to terminals. AccountID
// is the branch the session is currently operating under.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	AccountID uuid.UUID      `json:"account_id"`
	Role      enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
