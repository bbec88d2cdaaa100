package api

import (
	"context"
	"io"

	"github.com/phrazzld/synth-study/internal/dashboard"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/study"
)

// AccountBackend performs the calls made before a caller has a token.
type AccountBackend interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	ResendConfirmation(ctx context.Context, email string) (string, error)
	Pricing(ctx context.Context) (*domain.Pricing, error)
}

// UserBackend is the backend as seen by one authenticated caller.
type UserBackend interface {
	study.Backend
	dashboard.Source

	GetDeck(ctx context.Context, deckID int64) (*domain.Deck, error)
	DeleteDeck(ctx context.Context, deckID int64) error
	CreateDeckFromText(ctx context.Context, req domain.TextDeckRequest) (*domain.CreatedDeck, error)
	CreateDeckFromFile(ctx context.Context, name, description, filename string, content io.Reader) (*domain.CreatedDeck, error)
	Analytics(ctx context.Context) (*domain.StudyAnalytics, error)
	SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error)
	CanCreateDeck(ctx context.Context) (*domain.DeckAllowance, error)
	Upgrade(ctx context.Context, tier domain.SubscriptionTier) (*domain.UpgradeResult, error)
}

// BackendFactory binds the backend to a caller's bearer token.
type BackendFactory func(token string) UserBackend
