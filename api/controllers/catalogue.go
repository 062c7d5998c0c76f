package controllers

import (
	"net/http"

	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/api/validators"
	"github.com/angelmondragon/farmstore-backend/internal/products"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

const maxSearchLength = 100

// Catalogue lists products grouped by category for the current session.
func Catalogue(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalogue service unavailable"))
			return
		}
		sess, err := requestSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := products.Filter{
			Query:         validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength),
			ShowOOS:       validators.ParseQueryFlag(r, "oos"),
			ShowFavorites: validators.ParseQueryFlag(r, "fav"),
		}

		catalogue, err := svc.Catalogue(r.Context(), sess, optionalUserID(r), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalogue)
	}
}
