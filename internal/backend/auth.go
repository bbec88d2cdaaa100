package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/phrazzld/synth-study/internal/domain"
)

// Login exchanges credentials for a token and the user record.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates an account and returns its token and user record.
func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds domain.Credentials) (*domain.AuthResult, error) {
	cl, err := jsonCall(http.MethodPost, path, creds)
	if err != nil {
		return nil, err
	}
	cl.anonymous = true

	var result domain.AuthResult
	if err := c.do(ctx, cl, &result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth response: %w", err)
	}
	return &result, nil
}

// ForgotPassword asks the backend to email a reset link. The backend answers
// the same way whether or not the address exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	cl, err := jsonCall(http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	cl.anonymous = true
	return c.doText(ctx, cl)
}

// ResetPassword completes a reset with the token from the emailed link.
func (c *Client) ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error) {
	cl, err := jsonCall(http.MethodPost, "/auth/reset-password", reset)
	if err != nil {
		return "", err
	}
	cl.anonymous = true
	return c.doText(ctx, cl)
}

// ConfirmEmail redeems an email confirmation token.
func (c *Client) ConfirmEmail(ctx context.Context, token string) (string, error) {
	cl := call{
		method:    http.MethodPost,
		path:      "/auth/confirm-email?token=" + url.QueryEscape(token),
		anonymous: true,
	}
	return c.doText(ctx, cl)
}

// ResendConfirmation sends a fresh confirmation email.
func (c *Client) ResendConfirmation(ctx context.Context, email string) (string, error) {
	cl, err := jsonCall(http.MethodPost, "/auth/resend-confirmation", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	cl.anonymous = true
	return c.doText(ctx, cl)
}
