package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// caller is the authenticated user behind a request.
type caller struct {
	// owner scopes hosted study sessions to one account
	owner   string
	backend UserBackend
}

// getCaller extracts the authenticated caller from the request context.
// The token is placed there by the authentication middleware.
func getCaller(r *http.Request, factory BackendFactory) (caller, bool) {
	token, ok := shared.GetToken(r.Context())
	if !ok {
		return caller{}, false
	}
	owner := token
	if claims, ok := shared.GetClaims(r.Context()); ok && claims.Subject != "" {
		owner = claims.Subject
	}
	return caller{owner: owner, backend: factory(token)}, true
}

// getPathInt64 extracts a positive numeric id from the URL path parameters.
func getPathInt64(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// handleCaller is a composite helper that extracts the caller and writes a
// 401 when the request carries no credentials.
func handleCaller(
	w http.ResponseWriter,
	r *http.Request,
	factory BackendFactory,
	log *slog.Logger,
) (caller, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	c, ok := getCaller(r, factory)
	if !ok {
		log.Warn("token not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return caller{}, false
	}
	return c, true
}

// handleCallerAndPathInt64 extracts both the caller and a numeric path id.
// It writes an error response if either extraction fails.
func handleCallerAndPathInt64(
	w http.ResponseWriter,
	r *http.Request,
	factory BackendFactory,
	paramName string,
	log *slog.Logger,
) (caller, int64, bool) {
	c, ok := handleCaller(w, r, factory, log)
	if !ok {
		return caller{}, 0, false
	}

	id, err := getPathInt64(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return caller{}, 0, false
	}
	return c, id, true
}

// normalizer is implemented by requests that clean up user input before
// validation.
type normalizer interface {
	Normalize()
}

// decodeAndValidate decodes the JSON body into v, normalizes it and
// validates it, writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if n, ok := v.(normalizer); ok {
		n.Normalize()
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
