package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware guards HTTP routes. Validation itself lives in AuthService;
// this layer only translates failures into responses and threads the
// authenticated identity into the request context.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{authService: authService, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token carrying a
// subject. On success the claims and raw token are available downstream via
// GetClaims and GetToken.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.logger.Debug("Rejected unauthenticated request",
				zap.String("path", r.URL.Path), zap.Error(err))
			m.deny(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		if err := m.authService.RequireSubject(claims); err != nil {
			m.deny(w, http.StatusBadRequest, "bad_request", "Missing subject in token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) deny(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
