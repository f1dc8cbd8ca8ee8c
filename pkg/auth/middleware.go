package auth

import (
	"context"
	"net/http"
)

type contextKey string

// TokenHeader is the header clients present their session token in.
const TokenHeader = "X-Authorization"

const sessionContextKey contextKey = "auth_session"

// Middleware verifies the session token on every request and injects the
// session into the request context. Requests without a valid, unrevoked token
// are rejected with 401.
func Middleware(signer *Signer, store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				http.Error(w, "missing "+TokenHeader+" header", http.StatusUnauthorized)
				return
			}

			sess, err := signer.Validate(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			active, err := store.Active(r.Context(), sess.TokenID)
			if err != nil {
				http.Error(w, "session lookup failed", http.StatusInternalServerError)
				return
			}
			if !active {
				http.Error(w, "session revoked", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware injects the session when a valid, unrevoked token is
// presented and lets the request through either way. Handlers behind it see an
// absent session as an anonymous caller.
func OptionalMiddleware(signer *Signer, store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := signer.Validate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			active, err := store.Active(r.Context(), sess.TokenID)
			if err != nil || !active {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext retrieves the session injected by Middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok
}

// MustUserID returns the authenticated user id; it panics if called from a
// handler that is not behind Middleware.
func MustUserID(ctx context.Context) int64 {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		panic("auth: no session in context; handler not behind auth.Middleware")
	}
	return sess.UserID
}
