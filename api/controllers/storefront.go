package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/api/middleware"
	"github.com/angelmondragon/farmstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// CustomerResolver turns a signed-in user into a pricing customer.
type CustomerResolver interface {
	Customer(ctx context.Context, userID uuid.UUID) (cart.Customer, error)
}

func requestSession(r *http.Request) (*sessionstore.Session, error) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable")
	}
	return sess, nil
}

func optionalUserID(r *http.Request) *uuid.UUID {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &userID
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return userID, nil
}

// requestCustomer returns a guest for anonymous requests.
func requestCustomer(r *http.Request, customers CustomerResolver) (cart.Customer, error) {
	userID := optionalUserID(r)
	if userID == nil {
		return cart.Customer{}, nil
	}
	if customers == nil {
		return cart.Customer{UserID: userID}, nil
	}
	return customers.Customer(r.Context(), *userID)
}
