// ABOUTME: Authenticated user propagation through request contexts
// ABOUTME: Provides WithUser/UserFromContext used by handlers behind the gate

package auth

import (
	"context"

	"github.com/NoamBoni/abra/internal/store"
)

// userContextKey is the key type for storing the authenticated user in context.
type userContextKey struct{}

// WithUser returns a new context with the authenticated user attached.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the authenticated user, returning nil if absent.
func UserFromContext(ctx context.Context) *store.User {
	val := ctx.Value(userContextKey{})
	if val == nil {
		return nil
	}
	user, ok := val.(*store.User)
	if !ok {
		return nil
	}
	return user
}

// MustUserFromContext retrieves the authenticated user, panicking if absent.
// Only valid behind the authentication middleware.
func MustUserFromContext(ctx context.Context) *store.User {
	user := UserFromContext(ctx)
	if user == nil {
		panic("auth: user not found in context")
	}
	return user
}
