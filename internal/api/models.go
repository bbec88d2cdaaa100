package api

import (
	"strings"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/study"
)

// CredentialsRequest defines the payload for the login and registration
// endpoints.
type CredentialsRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// Normalize trims the email so pasted addresses validate.
func (r *CredentialsRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Normalize trims the email.
func (r *EmailRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// ResetPasswordRequest completes a forgotten-password flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// Token is the backend-issued bearer token
	Token string       `json:"token"`
	User  *domain.User `json:"user"`

	// ExpiresAt is the RFC 3339 expiry read from the token, when present
	ExpiresAt string `json:"expires_at,omitempty"`
}

// MessageResponse wraps a plain confirmation message from the backend.
type MessageResponse struct {
	Message string `json:"message"`
}

// TextDeckRequest creates a deck from pasted notes.
type TextDeckRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Content     string `json:"content"     validate:"required"`
}

// Normalize trims the name and description, so a blank name fails the
// required check.
func (r *TextDeckRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// StartSessionRequest opens a study session on a deck.
type StartSessionRequest struct {
	DeckID int64 `json:"deckId" validate:"required,gt=0"`
	// Resume continues a saved checkpoint without asking first.
	Resume bool `json:"resume"`
}

// AnswerRequest submits an answer for the current card. Blank answers are
// rejected by the session, not here.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"max=10000"`
}

// UpgradeRequest changes the caller's subscription tier.
type UpgradeRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// Validate checks the tier names a known plan.
func (r UpgradeRequest) Validate() error {
	if _, err := domain.ParseTier(r.Tier); err != nil {
		return domain.NewValidationError("tier", "must be one of FREE, BASIC, PRO", err)
	}
	return nil
}

// SessionResponse describes a hosted study session.
type SessionResponse struct {
	SessionID string         `json:"sessionId"`
	Session   study.Snapshot `json:"session"`
}

// AnswerResponse is returned after an answer has been graded.
type AnswerResponse struct {
	Result  *domain.StudySession `json:"result"`
	Passed  bool                 `json:"passed"`
	Band    domain.ScoreBand     `json:"band"`
	Session study.Snapshot       `json:"session"`
}

// SummaryResponse is the end-of-session report.
type SummaryResponse struct {
	State          study.State   `json:"state"`
	Summary        study.Summary `json:"summary"`
	AveragePercent int           `json:"averagePercent"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}
