package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/synth-study/internal/auth"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// ClaimsContextKey holds the caller's *auth.Claims
	ClaimsContextKey ContextKey = "claims"

	// TokenContextKey holds the caller's raw bearer token, which is
	// forwarded to the backend on their behalf
	TokenContextKey ContextKey = "token"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetAuth stores the authenticated caller on the context.
func SetAuth(ctx context.Context, claims *auth.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsContextKey, claims)
	return context.WithValue(ctx, TokenContextKey, token)
}

// GetClaims returns the caller's claims, if the request was authenticated.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetToken returns the caller's bearer token, if the request was
// authenticated.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok && token != ""
}

// generateTraceID creates a random trace ID for request tracking.
// If crypto/rand fails it falls back to a random UUID, never a static value.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := rand.Read(b); err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "uuid")
		id := uuid.New()
		return hex.EncodeToString(id[:])
	}
	return hex.EncodeToString(b)
}
