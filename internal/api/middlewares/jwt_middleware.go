package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const ctxKeyUsername ctxKey = "username"

// TokenVerifier resolves a bearer token to the username it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// JWTMiddleware validates the Authorization header and attaches the username
// to the request context.
func JWTMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			scheme, tokenStr, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
				unauthorized(w, "Not authenticated")
				return
			}

			username, err := verifier.VerifyToken(strings.TrimSpace(tokenStr))
			if err != nil {
				unauthorized(w, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// WithUsername stores an authenticated username in ctx.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKeyUsername, username)
}

// UsernameFromContext returns the username set by JWTMiddleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKeyUsername).(string)
	return u, ok && u != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
