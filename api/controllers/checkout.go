package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/api/middleware"
	"github.com/adiwirasena/koperasi-pos-backend/api/responses"
	"github.com/adiwirasena/koperasi-pos-backend/api/validators"
	checkoutsvc "github.com/adiwirasena/koperasi-pos-backend/internal/checkout"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

// Checkout commits the terminal's cart as a sale.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID, err := branchIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashierID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user context missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), terminalID, accountID, cashierID, checkoutsvc.Input{
			Paid:   payload.Paid,
			Method: enums.PaymentMethod(payload.PaymentMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type checkoutRequest struct {
	Paid          int    `json:"paid" validate:"required,min=0"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash"`
}
