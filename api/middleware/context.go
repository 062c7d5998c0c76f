package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxAccessID contextKey = "access_id"
	ctxSession  contextKey = "session"
)

// UserIDFromContext returns the signed-in customer, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// AccessIDFromContext returns the jti of the bearer token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// SessionFromContext returns the storefront session loaded by Session.
func SessionFromContext(ctx context.Context) *sessionstore.Session {
	if ctx == nil {
		return nil
	}
	sess, _ := ctx.Value(ctxSession).(*sessionstore.Session)
	return sess
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// WithSession injects the storefront session into the context.
func WithSession(ctx context.Context, sess *sessionstore.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
