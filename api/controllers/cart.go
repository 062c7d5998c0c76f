package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/api/validators"
	"github.com/angelmondragon/farmstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// CartEngine is the cart surface used by the HTTP layer.
type CartEngine interface {
	View(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*cart.Quote, error)
	Add(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (cart.Result, error)
	SetQuantity(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (cart.Result, error)
	Remove(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID) (cart.Result, error)
}

// CartView prices the session cart and hands back any pending coupon notice.
func CartView(engine CartEngine, customers CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sess, err := requestSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := requestCustomer(r, customers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := engine.View(r.Context(), sess, customer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartAdd adds qty (default 1) of a product, clamped to stock.
func CartAdd(engine CartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sess, productID, err := cartTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := validators.ParseFormDecimal(r, "qty", decimal.NewFromInt(1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Add(r.Context(), sess, productID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CartSetQuantity replaces a line's quantity. Zero removes the line.
func CartSetQuantity(engine CartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sess, productID, err := cartTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(r.FormValue("qty")) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "qty is required").WithDetails(map[string]any{"field": "qty"}))
			return
		}
		qty, err := validators.ParseFormDecimal(r, "qty", decimal.Zero)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.SetQuantity(r.Context(), sess, productID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CartRemove(engine CartEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		sess, productID, err := cartTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Remove(r.Context(), sess, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func cartTarget(r *http.Request) (*sessionstore.Session, uuid.UUID, error) {
	sess, err := requestSession(r)
	if err != nil {
		return nil, uuid.Nil, err
	}
	productID, err := validators.URLParamUUID(r, "productId")
	if err != nil {
		return nil, uuid.Nil, err
	}
	return sess, productID, nil
}
