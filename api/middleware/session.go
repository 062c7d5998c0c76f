package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/farmstore-backend/api/responses"
	"github.com/angelmondragon/farmstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

const sessionHeader = "X-Session-Id"

// Session loads the storefront session from the cookie or the X-Session-Id
// header, issuing a new id when neither carries a valid one. The session is
// written back after the handler only when it changed.
func Session(store sessionstore.Store, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(sessionHeader))
			if cookie, err := r.Cookie(cfg.CookieName); err == nil && sessionstore.ValidID(cookie.Value) {
				id = cookie.Value
			}

			sess, err := store.Load(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    sess.ID(),
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(sessionHeader, sess.ID())

			ctx := WithSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sess.ID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))

			if !sess.Modified() {
				return
			}
			if err := store.Save(ctx, sess); err != nil && logg != nil {
				logg.Error(ctx, "session.save_failed", err)
			}
		})
	}
}
