package controllers

import (
	"mime"
	"net/http"

	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/farmstore-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

// CheckoutPreview prices the cart and prefills contact details for a
// signed-in customer.
func CheckoutPreview(svc checkoutsvc.Service, customers CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
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

		preview, err := svc.Preview(r.Context(), sess, customer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

// Checkout places the order for the session cart.
func Checkout(svc checkoutsvc.Service, customers CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
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

		input, err := decodeCheckoutInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), sess, customer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// decodeCheckoutInput accepts the storefront form post as well as JSON.
// Field validation happens in the checkout service.
func decodeCheckoutInput(r *http.Request) (checkoutsvc.Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		return checkoutsvc.Input{
			Email:         r.FormValue("email"),
			Phone:         r.FormValue("phone"),
			PaymentMethod: r.FormValue("payment_method"),
		}, nil
	}

	var input checkoutsvc.Input
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		return checkoutsvc.Input{}, err
	}
	return input, nil
}
