package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// Common validation errors
var (
	ErrEmptyUserID   = errors.New("user ID cannot be empty")
	ErrEmptyEmail    = errors.New("email cannot be empty")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrEmptyToken    = errors.New("token cannot be empty")
)

// User is the authenticated account as reported by the backend.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == 0 {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Credentials is the payload for login and registration.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// Validate checks that both fields are present and the email parses.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return NewValidationError("email", "is required", ErrEmptyEmail)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return NewValidationError("email", "must be a valid email address", ErrInvalidEmail)
	}
	if c.Password == "" {
		return NewValidationError("password", "is required", ErrEmptyPassword)
	}
	return nil
}

// AuthResult is the backend's response to login and registration.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Validate rejects responses missing either the token or the user.
func (a *AuthResult) Validate() error {
	if a == nil || strings.TrimSpace(a.Token) == "" || a.Token == "undefined" {
		return ErrEmptyToken
	}
	if a.User == nil {
		return ErrEmptyUserID
	}
	return a.User.Validate()
}

// PasswordReset completes a forgotten-password flow.
type PasswordReset struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}
