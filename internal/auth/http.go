// ABOUTME: HTTP middleware implementing the access-control gate
// ABOUTME: Extracts the session token, verifies it, and resolves a live user

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NoamBoni/abra/internal/store"
)

// SessionCookieName is the cookie carrying the session token for browser
// clients. API clients use the Authorization header instead.
const SessionCookieName = "session"

// UserResolver resolves a claimed name to a live user record.
type UserResolver interface {
	GetUserByName(ctx context.Context, name string) (*store.User, error)
}

// extractToken pulls the session token from the Authorization header or,
// failing that, the session cookie. Returns the token and whether one was
// present at all.
func extractToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != "" {
			return token, true
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// Middleware creates an HTTP middleware that authenticates every request.
// A missing token, a token that fails verification, and a claim naming a
// user that no longer exists all produce the same 401 status; only the
// message distinguishes "no token" from "bad token". A store failure while
// resolving the claim is not an authentication failure and surfaces as 503,
// so clients keep their still-valid tokens. The resolved user is attached
// to the request context via WithUser.
func Middleware(users UserResolver, codec *TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r)
			if !ok {
				http.Error(w, `{"error":"must be authenticated to proceed"}`, http.StatusUnauthorized)
				return
			}

			claims, err := codec.Parse(token)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired session, try to login again"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByName(r.Context(), claims.Name)
			if errors.Is(err, store.ErrUserNotFound) {
				http.Error(w, `{"error":"invalid or expired session, try to login again"}`, http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
