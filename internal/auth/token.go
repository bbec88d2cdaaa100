package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// DefaultClockSkew is the leeway applied to time-based claims.
const DefaultClockSkew = 2 * time.Minute

// Claims are the fields of a backend token this repository relies on.
type Claims struct {
	// Subject identifies the account the token was issued for.
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Expired reports whether the token has passed its expiry at now. Tokens
// without an exp claim never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// TokenInspector extracts claims from bearer tokens.
type TokenInspector interface {
	// Inspect parses tokenString and checks its time-based claims.
	// It returns ErrInvalidToken for malformed tokens, ErrExpiredToken for
	// expired ones and ErrTokenNotYetValid for tokens used before nbf.
	Inspect(ctx context.Context, tokenString string) (*Claims, error)
}

// unverifiedInspector reads claims without checking the signature.
type unverifiedInspector struct {
	timeFunc  func() time.Time // Injectable for testing
	clockSkew time.Duration    // Allowed time difference for validation to handle clock drift
}

// Ensure unverifiedInspector implements TokenInspector interface
var _ TokenInspector = (*unverifiedInspector)(nil)

// NewTokenInspector creates a TokenInspector. A nil timeFunc uses time.Now.
func NewTokenInspector(clockSkew time.Duration, timeFunc func() time.Time) TokenInspector {
	if timeFunc == nil {
		timeFunc = time.Now
	}
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &unverifiedInspector{
		timeFunc:  timeFunc,
		clockSkew: clockSkew,
	}
}

// Inspect implements TokenInspector.
func (s *unverifiedInspector) Inspect(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	registered := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, registered); err != nil {
		log.Debug("token inspection failed: malformed token",
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	now := s.timeFunc()
	validator := jwt.NewValidator(
		jwt.WithLeeway(s.clockSkew), // Allow for clock skew when validating time claims
		jwt.WithTimeFunc(func() time.Time {
			return now // Use our injected time function for validation
		}),
	)
	if err := validator.Validate(registered); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token inspection failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token inspection failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token inspection failed: other validation error",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims := &Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
