package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/api/middleware"
	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/api/validators"
	"github.com/angelmondragon/farmstore-backend/internal/accounts"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

const tokenHeader = "X-Farmstore-Token"

// FavoritesRestorer copies persisted favorites into a session after login.
type FavoritesRestorer interface {
	Restore(ctx context.Context, sess *sessionstore.Session, userID uuid.UUID) error
}

// AccountsSignup creates an account and signs it in.
func AccountsSignup(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var body accounts.SignupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Signup(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AccountsLogin signs the customer in and restores their favorites into the
// storefront session.
func AccountsLogin(svc accounts.Service, favs FavoritesRestorer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var body accounts.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if sess := middleware.SessionFromContext(r.Context()); sess != nil && favs != nil {
			if err := favs.Restore(r.Context(), sess, result.User.ID); err != nil && logg != nil {
				logg.Error(r.Context(), "accounts.restore_favorites_failed", err)
			}
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AccountsLogout revokes the bearer token and forgets session favorites. The
// cart stays with the session.
func AccountsLogout(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sess := middleware.SessionFromContext(r.Context()); sess != nil {
			sess.Delete(sessionstore.KeyFavorites)
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

func AccountsProfile(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func AccountsUpdateProfile(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body accounts.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
