package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/synth-study/internal/domain"
)

// Sentinel errors matched by *APIError through errors.Is.
var (
	// ErrUnauthorized is the domain sentinel so callers above this package
	// need only one value to check.
	ErrUnauthorized = domain.ErrUnauthorized

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrSubscriptionLimit is returned when the account's tier does not
	// allow the operation (HTTP 402).
	ErrSubscriptionLimit = errors.New("subscription limit exceeded")

	// ErrUnavailable is returned when the backend reports it is overloaded.
	ErrUnavailable = errors.New("backend temporarily unavailable")

	// ErrNoToken is returned by a TokenSource with nothing to offer.
	ErrNoToken = errors.New("no auth token available")
)

// CodeSubscriptionLimitExceeded is the error code sent with 402 responses.
const CodeSubscriptionLimitExceeded = "SUBSCRIPTION_LIMIT_EXCEEDED"

// APIError is a non-2xx response from the backend.
type APIError struct {
	// Method and Path identify the failed call.
	Method string
	Path   string

	// Status is the HTTP status code.
	Status int

	// Code is the backend's machine-readable error code, when it sent one.
	Code string

	// Message is the human-readable message, or the raw body when the
	// backend answered with plain text.
	Message string

	// UpgradeRequired is set on subscription limit responses.
	UpgradeRequired bool

	// FieldErrors carries per-field validation messages.
	FieldErrors map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap maps the status onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusPaymentRequired || e.Code == CodeSubscriptionLimitExceeded:
		return ErrSubscriptionLimit
	case e.Status == http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return nil
	}
}

// Temporary reports whether retrying the same call later may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500
}

// errorBody covers both error shapes the backend produces: the ad-hoc
// {error, message, upgradeRequired} maps and the global handler's
// {status, message, errors, correlationId} document.
type errorBody struct {
	Error           string            `json:"error"`
	Message         string            `json:"message"`
	UpgradeRequired bool              `json:"upgradeRequired"`
	Errors          map[string]string `json:"errors"`
}

// newAPIError builds an APIError from a response body that may be JSON,
// plain text or empty.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return apiErr
	}

	var parsed errorBody
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal(body, &parsed) == nil {
		apiErr.Code = parsed.Error
		apiErr.Message = parsed.Message
		apiErr.UpgradeRequired = parsed.UpgradeRequired
		apiErr.FieldErrors = parsed.Errors
		if apiErr.Message == "" && parsed.Error != "" && !isErrorCode(parsed.Error) {
			// {"error": "Invalid subscription tier: GOLD"}
			apiErr.Code = ""
			apiErr.Message = parsed.Error
		}
		return apiErr
	}

	apiErr.Message = trimmed
	return apiErr
}

// isErrorCode reports whether s looks like SCREAMING_SNAKE_CASE.
func isErrorCode(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '_' && (r < '0' || r > '9') {
			return false
		}
	}
	return s != ""
}

// IsUnauthorized reports whether err means the token is missing or rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoToken)
}
