package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/api/middleware"
	"github.com/adiwirasena/koperasi-pos-backend/api/responses"
	"github.com/adiwirasena/koperasi-pos-backend/api/validators"
	cartsvc "github.com/adiwirasena/koperasi-pos-backend/internal/cart"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

// CartView returns the current cart for the calling terminal.
func CartView(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, engine.Snapshot(r.Context(), terminalID))
	}
}

// CartBeginAdd starts adding a product to the cart. Products without
// variants land immediately; variant products come back with the
// selectable options instead.
func CartBeginAdd(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload beginAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.BeginAdd(r.Context(), terminalID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CartConfirmAdd completes a variant-product add with the chosen options.
func CartConfirmAdd(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := engine.ConfirmAdd(r.Context(), terminalID, payload.ProductID, payload.Variants)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartChangeQuantity shifts a line's quantity by a signed delta.
func CartChangeQuantity(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := engine.ChangeQuantity(r.Context(), terminalID, payload.Key, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartSetQuantity sets a line's quantity to an absolute value.
func CartSetQuantity(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := engine.SetQuantity(r.Context(), terminalID, payload.Key, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveLine drops a line from the cart.
func CartRemoveLine(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload removeLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := engine.Remove(r.Context(), terminalID, payload.Key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the calling terminal's cart.
func CartClear(engine *cartsvc.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := terminalIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine.Clear(r.Context(), terminalID)
		responses.WriteSuccess(w, engine.Snapshot(r.Context(), terminalID))
	}
}

type beginAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// An empty variant list is a valid confirmation: the product is sold plain.
type confirmAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Variants  []string  `json:"variants" validate:"omitempty,dive,required"`
}

type changeQuantityRequest struct {
	Key   string `json:"key" validate:"required"`
	Delta int    `json:"delta" validate:"required"`
}

type setQuantityRequest struct {
	Key      string `json:"key" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type removeLineRequest struct {
	Key string `json:"key" validate:"required"`
}

// terminalIDFromContext maps the session's token id onto the cart the
// terminal owns.
func terminalIDFromContext(r *http.Request) (string, error) {
	terminalID := middleware.AccessIDFromContext(r.Context())
	if terminalID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "terminal context missing")
	}
	return terminalID, nil
}
