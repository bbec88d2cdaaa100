package appctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/redact"
)

// Errors returned by Context.
var (
	// ErrNotLoggedIn is returned when no user is authenticated.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired is returned when the cached token has expired.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// Authenticator exchanges credentials for a token. *backend.Client
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
}

// Context is the explicit application context: the authenticated user and
// token, shared by reference with every component that calls the backend.
type Context struct {
	authenticator Authenticator
	store         Store
	inspector     auth.TokenInspector
	logger        *slog.Logger

	mu     sync.RWMutex
	token  string
	user   *domain.User
	claims *auth.Claims
}

// New creates a Context. It panics if any dependency is nil.
func New(authenticator Authenticator, store Store, inspector auth.TokenInspector, logger *slog.Logger) *Context {
	if authenticator == nil {
		panic("authenticator cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if inspector == nil {
		panic("inspector cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Context{
		authenticator: authenticator,
		store:         store,
		inspector:     inspector,
		logger:        logger.With("component", "app_context"),
	}
}

// Login authenticates with the backend and persists the result.
func (c *Context) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	result, err := c.authenticator.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, result)
}

// Register creates an account, then behaves like Login.
func (c *Context) Register(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	result, err := c.authenticator.Register(ctx, creds)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, result)
}

func (c *Context) establish(ctx context.Context, result *domain.AuthResult) (*domain.User, error) {
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth response: %w", err)
	}

	claims, err := c.inspector.Inspect(ctx, result.Token)
	if err != nil {
		return nil, fmt.Errorf("backend issued an unusable token: %w", err)
	}

	user := *result.User
	if err := c.store.Save(&Credentials{Token: result.Token, User: &user}); err != nil {
		// The session still works for this run.
		c.logger.Warn("failed to persist credentials", "error", redact.Error(err))
	}

	c.mu.Lock()
	c.token = result.Token
	c.user = &user
	c.claims = claims
	c.mu.Unlock()

	c.logger.Debug("authenticated", "user_id", user.ID)
	return &user, nil
}

// Restore loads persisted credentials. Malformed or expired credentials are
// cleared from the store and reported as ErrNotLoggedIn or
// ErrSessionExpired respectively.
func (c *Context) Restore(ctx context.Context) (*domain.User, error) {
	creds, err := c.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, ErrNotLoggedIn
		}
		c.logger.Warn("discarding unreadable credentials", "error", redact.Error(err))
		c.clearStore()
		return nil, ErrNotLoggedIn
	}

	result := &domain.AuthResult{Token: creds.Token, User: creds.User}
	if err := result.Validate(); err != nil {
		c.logger.Warn("discarding invalid stored credentials", "error", err)
		c.clearStore()
		return nil, ErrNotLoggedIn
	}

	claims, err := c.inspector.Inspect(ctx, creds.Token)
	if err != nil {
		c.clearStore()
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, ErrSessionExpired
		}
		return nil, ErrNotLoggedIn
	}

	user := *creds.User
	c.mu.Lock()
	c.token = creds.Token
	c.user = &user
	c.claims = claims
	c.mu.Unlock()

	return &user, nil
}

// Logout clears the in-memory user and the persisted credentials.
func (c *Context) Logout() error {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.claims = nil
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// Token implements backend.TokenSource.
func (c *Context) Token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return "", ErrNotLoggedIn
	}
	if _, err := c.inspector.Inspect(context.Background(), c.token); err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return "", ErrSessionExpired
		}
		return "", ErrNotLoggedIn
	}
	return c.token, nil
}

// User returns a copy of the authenticated user, or nil.
func (c *Context) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Claims returns the claims of the current token, or nil.
func (c *Context) Claims() *auth.Claims {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.claims == nil {
		return nil
	}
	cl := *c.claims
	return &cl
}

// IsAuthenticated reports whether a usable token is held.
func (c *Context) IsAuthenticated() bool {
	_, err := c.Token()
	return err == nil
}

func (c *Context) clearStore() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear credentials", "error", redact.Error(err))
	}
}
