package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/platform/logger"
	"github.com/phrazzld/synth-study/internal/redact"
)

// AuthMiddleware admits requests carrying a well-formed, unexpired bearer
// token. Signatures are checked by the backend on every forwarded call.
type AuthMiddleware struct {
	inspector auth.TokenInspector
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(inspector auth.TokenInspector) *AuthMiddleware {
	if inspector == nil {
		panic("inspector cannot be nil")
	}
	return &AuthMiddleware{
		inspector: inspector,
	}
}

// Authenticate validates the Authorization header and stores the caller's
// claims and token on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)

		claims, err := m.inspector.Inspect(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to inspect token",
					slog.String("error", redact.Error(err)))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := shared.SetAuth(r.Context(), claims, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
