package controllers

import (
	"net/http"

	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/internal/coupons"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

// ApplyCoupon applies the submitted code to the session. A blank code clears
// the active coupon; unknown or expired codes answer 200 with ok=false.
func ApplyCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}
		sess, err := requestSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Apply(r.Context(), sess, r.FormValue("code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
