package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/backend"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/redact"
	"github.com/phrazzld/synth-study/internal/study"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var (
		validationErr *domain.ValidationError
		fieldErrs     validator.ValidationErrors
		gradingErr    *study.GradingError
		loadErr       *study.LoadError
		apiErr        *backend.APIError
	)

	switch {
	// Authentication errors, including backend rejections wrapped by the
	// study controller
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		backend.IsUnauthorized(err):
		return http.StatusUnauthorized

	case errors.Is(err, backend.ErrSubscriptionLimit):
		return http.StatusPaymentRequired

	// A grading failure is the backend's fault even when it wraps a
	// malformed score
	case errors.As(err, &gradingErr):
		if gradingErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway

	// Bad request errors
	case errors.As(err, &validationErr),
		errors.As(err, &fieldErrs),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrDiscarded),
		errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, study.ErrSubmissionInFlight),
		errors.Is(err, study.ErrOperationInFlight),
		errors.Is(err, study.ErrWrongState):
		return http.StatusConflict

	// Upstream errors
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable

	case errors.As(err, &loadErr):
		return http.StatusBadGateway

	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusConflict {
			return apiErr.Status
		}
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr *domain.ValidationError
		fieldErrs     validator.ValidationErrors
		gradingErr    *study.GradingError
		loadErr       *study.LoadError
		apiErr        *backend.APIError
	)

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		backend.IsUnauthorized(err):
		return "Invalid or expired session, please log in again"

	case errors.Is(err, backend.ErrSubscriptionLimit):
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return redact.String(apiErr.Message)
		}
		return "Your subscription does not allow this, please upgrade"

	case errors.As(err, &gradingErr):
		if gradingErr.Timeout() {
			return "Grading took too long, please try again"
		}
		return "Failed to grade answer, please try again"

	case errors.Is(err, study.ErrEmptyAnswer):
		return "Please enter an answer"

	case errors.As(err, &validationErr):
		return sentenceCase(validationErr.Field + " " + validationErr.Message)

	case errors.As(err, &fieldErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrDiscarded):
		return "Study session not found"

	case errors.Is(err, study.ErrSubmissionInFlight):
		return "An answer is already being graded"

	case errors.Is(err, study.ErrOperationInFlight):
		return "Another request for this session is in progress"

	case errors.Is(err, study.ErrWrongState):
		var stateErr *study.StateError
		if errors.As(err, &stateErr) {
			return fmt.Sprintf("Cannot %s while session is %s", stateErr.Operation, stateErr.State)
		}
		return "Operation not allowed right now"

	case errors.Is(err, backend.ErrNotFound):
		return "Not found"

	case errors.Is(err, backend.ErrUnavailable):
		return "Service temporarily unavailable, please try again later"

	case errors.As(err, &loadErr):
		return "Failed to load deck"

	case errors.As(err, &apiErr):
		if (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusConflict) &&
			apiErr.Message != "" {
			return redact.String(apiErr.Message)
		}
		return "The study service returned an error"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message for unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	if errors.Is(err, backend.ErrSubscriptionLimit) {
		opts = append(opts, shared.WithUpgradeRequired())
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && len(apiErr.FieldErrors) > 0 {
		fields := make(map[string]string, len(apiErr.FieldErrors))
		for k, v := range apiErr.FieldErrors {
			fields[k] = redact.String(v)
		}
		opts = append(opts, shared.WithFieldErrors(fields))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gt":
		return "too short or too small"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func sentenceCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Validation error"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
