package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vfg2006/ozon-analytics-api/internal/domain"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/authenticating"
)

type contextKey string

const (
	ContextKeySeller contextKey = "seller"
)

// AuthMiddleware validates the bearer token and puts the seller claims in
// the request context. Everything under /v1 is seller-scoped.
func AuthMiddleware(authService authenticating.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthcheck" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Bearer token is required", http.StatusUnauthorized)
				return
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySeller, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SellerFromContext returns the claims stored by AuthMiddleware.
func SellerFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(ContextKeySeller).(*domain.Claims)
	return claims, ok
}
