package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// RequestID tags each storefront request with an id, echoes it in
// X-Request-Id and attaches it to the request's log context. The Heroku
// router already sends one; it is reused only when it looks like an id.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inbound := strings.TrimSpace(r.Header.Get(requestIDHeader))
			reqID := inbound
			if !requestIDPattern.MatchString(inbound) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logg.WithRequestID(r.Context(), reqID)
			if inbound != "" && reqID != inbound {
				logg.Debug(ctx, "inbound request id replaced")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
