package auth

import (
	"context"
	"time"

	"github.com/bizdir/admin-server/internal/model"
)

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	ID        int64
	Email     string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(contextKey{}).(*Identity)
	return identity
}
