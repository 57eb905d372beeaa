package http

import (
	"context"
	"net/http"
	"strings"

	"compreg-backend/internal/security"
)

type contextKey string

const actorContextKey contextKey = "actor"

// AuthMiddleware validates the bearer token and stores the actor claims in
// the request context.
type AuthMiddleware struct {
	tokens security.TokenManager
}

func NewAuthMiddleware(tokens security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		claims, err := m.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), actorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the authenticated actor's user id, or 0 when the request
// was not authenticated.
func actorFrom(r *http.Request) int32 {
	claims, ok := r.Context().Value(actorContextKey).(*security.ActorClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}
