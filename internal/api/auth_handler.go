package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/backend"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// AuthHandler handles account requests. Credentials are forwarded to the
// backend, which issues the token; the gateway never stores passwords.
type AuthHandler struct {
	accounts  AccountBackend
	inspector auth.TokenInspector
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	accounts AccountBackend,
	inspector auth.TokenInspector,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		accounts:  accounts,
		inspector: inspector,
		logger:    logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusCreated, h.accounts.Register, "Failed to create account")
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusOK, h.accounts.Login, "Failed to authenticate user")
}

func (h *AuthHandler) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	call func(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error),
	fallback string,
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CredentialsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	creds := domain.Credentials{Email: req.Email, Password: req.Password}
	result, err := call(r.Context(), creds)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid email or password", err,
				shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, fallback)
		return
	}

	resp := AuthResponse{Token: result.Token, User: result.User}
	if h.inspector != nil {
		if claims, err := h.inspector.Inspect(r.Context(), result.Token); err == nil && !claims.ExpiresAt.IsZero() {
			resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}

	log.Info("account authenticated", slog.Int64("user_id", result.User.ID))
	shared.RespondWithJSON(w, r, status, resp)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to request password reset")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.accounts.ResetPassword(r.Context(), domain.PasswordReset{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset password")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// ConfirmEmail handles GET /auth/confirm-email?token=.
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		HandleAPIError(w, r, domain.NewValidationError("token", "is required", domain.ErrValidation), "")
		return
	}

	msg, err := h.accounts.ConfirmEmail(r.Context(), token)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to confirm email")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}

// ResendConfirmation handles POST /auth/resend-confirmation.
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.accounts.ResendConfirmation(r.Context(), req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resend confirmation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: msg})
}
