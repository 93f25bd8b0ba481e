package auth

import (
	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ClientIP string `json:"-"`
}

// BranchSummary describes the branch a session operates under.
type BranchSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LoginResponse contains the tokens, user and branch produced by a
// successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Branch       *BranchSummary `json:"branch,omitempty"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest carries the rotation inputs: the expired (or expiring)
// access token plus the refresh token issued alongside it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse carries the replacement token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SwitchBranchRequest selects the branch to operate under.
type SwitchBranchRequest struct {
	BranchID     uuid.UUID `json:"branch_id" validate:"required"`
	RefreshToken string    `json:"refresh_token" validate:"required"`
}

// SwitchBranchResponse carries the re-scoped token pair and the branch it
// now points at.
type SwitchBranchResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Branch       BranchSummary `json:"branch"`
}
