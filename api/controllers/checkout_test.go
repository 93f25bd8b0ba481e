package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/api/middleware"
	checkoutsvc "github.com/adiwirasena/koperasi-pos-backend/internal/checkout"
)

type stubCheckoutService struct {
	result *checkoutsvc.Result
	err    error

	terminalID string
	accountID  uuid.UUID
	cashierID  uuid.UUID
	input      checkoutsvc.Input
}

func (s *stubCheckoutService) Checkout(ctx context.Context, terminalID string, accountID, cashierID uuid.UUID, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.terminalID = terminalID
	s.accountID = accountID
	s.cashierID = cashierID
	s.input = input
	return s.result, s.err
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithAccountID(ctx, uuid.NewString())
	ctx = middleware.WithAccessID(ctx, "till-1")
	return req.WithContext(ctx)
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.Result{State: checkoutsvc.StateDone}}
	handler := Checkout(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{"paid":5000}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data checkoutsvc.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.State != checkoutsvc.StateDone {
		t.Fatalf("unexpected state: %s", envelope.Data.State)
	}
	if svc.terminalID != "till-1" {
		t.Fatalf("unexpected terminal id: %s", svc.terminalID)
	}
	if svc.input.Paid != 5000 {
		t.Fatalf("unexpected paid amount: %d", svc.input.Paid)
	}
	if svc.accountID.String() != middleware.AccountIDFromContext(req.Context()) {
		t.Fatalf("checkout did not use the branch from the session")
	}
}

func TestCheckoutRejectsMissingTerminal(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"paid":5000}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutValidationError(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout", `{}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
