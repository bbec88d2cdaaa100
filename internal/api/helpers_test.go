package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/auth"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/study"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "user-token"
	testOwner = "sam@example.com"
)

// mockUserBackend implements UserBackend with overridable functions.
// Unset functions return zero values.
type mockUserBackend struct {
	FetchCardsFn         func(ctx context.Context, deckID int64) ([]domain.Card, error)
	FetchProgressFn      func(ctx context.Context, deckID int64) (*domain.StudyProgress, error)
	SubmitAnswerFn       func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error)
	SaveProgressFn       func(ctx context.Context, deckID int64, req domain.CheckpointRequest) (*domain.StudyProgress, error)
	ClearProgressFn      func(ctx context.Context, deckID int64) error
	ListDeckStatsFn      func(ctx context.Context) ([]domain.DeckStats, error)
	ListActiveProgressFn func(ctx context.Context) ([]domain.StudyProgress, error)
	GetDeckFn            func(ctx context.Context, deckID int64) (*domain.Deck, error)
	DeleteDeckFn         func(ctx context.Context, deckID int64) error
	CreateDeckFromTextFn func(ctx context.Context, req domain.TextDeckRequest) (*domain.CreatedDeck, error)
	CreateDeckFromFileFn func(ctx context.Context, name, description, filename string, content io.Reader) (*domain.CreatedDeck, error)
	AnalyticsFn          func(ctx context.Context) (*domain.StudyAnalytics, error)
	SubscriptionStatusFn func(ctx context.Context) (*domain.SubscriptionStatus, error)
	CanCreateDeckFn      func(ctx context.Context) (*domain.DeckAllowance, error)
	UpgradeFn            func(ctx context.Context, tier domain.SubscriptionTier) (*domain.UpgradeResult, error)
}

func (m *mockUserBackend) FetchCards(ctx context.Context, deckID int64) ([]domain.Card, error) {
	if m.FetchCardsFn != nil {
		return m.FetchCardsFn(ctx, deckID)
	}
	return nil, nil
}

func (m *mockUserBackend) FetchProgress(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
	if m.FetchProgressFn != nil {
		return m.FetchProgressFn(ctx, deckID)
	}
	return nil, nil
}

func (m *mockUserBackend) SubmitAnswer(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
	if m.SubmitAnswerFn != nil {
		return m.SubmitAnswerFn(ctx, cardID, answer)
	}
	return &domain.StudySession{ID: cardID, Response: answer, Score: 1, Confidence: 1}, nil
}

func (m *mockUserBackend) SaveProgress(
	ctx context.Context,
	deckID int64,
	req domain.CheckpointRequest,
) (*domain.StudyProgress, error) {
	if m.SaveProgressFn != nil {
		return m.SaveProgressFn(ctx, deckID, req)
	}
	return &domain.StudyProgress{}, nil
}

func (m *mockUserBackend) ClearProgress(ctx context.Context, deckID int64) error {
	if m.ClearProgressFn != nil {
		return m.ClearProgressFn(ctx, deckID)
	}
	return nil
}

func (m *mockUserBackend) ListDeckStats(ctx context.Context) ([]domain.DeckStats, error) {
	if m.ListDeckStatsFn != nil {
		return m.ListDeckStatsFn(ctx)
	}
	return nil, nil
}

func (m *mockUserBackend) ListActiveProgress(ctx context.Context) ([]domain.StudyProgress, error) {
	if m.ListActiveProgressFn != nil {
		return m.ListActiveProgressFn(ctx)
	}
	return nil, nil
}

func (m *mockUserBackend) GetDeck(ctx context.Context, deckID int64) (*domain.Deck, error) {
	if m.GetDeckFn != nil {
		return m.GetDeckFn(ctx, deckID)
	}
	return &domain.Deck{ID: deckID}, nil
}

func (m *mockUserBackend) DeleteDeck(ctx context.Context, deckID int64) error {
	if m.DeleteDeckFn != nil {
		return m.DeleteDeckFn(ctx, deckID)
	}
	return nil
}

func (m *mockUserBackend) CreateDeckFromText(ctx context.Context, req domain.TextDeckRequest) (*domain.CreatedDeck, error) {
	if m.CreateDeckFromTextFn != nil {
		return m.CreateDeckFromTextFn(ctx, req)
	}
	return &domain.CreatedDeck{ID: 1, Name: req.Name}, nil
}

func (m *mockUserBackend) CreateDeckFromFile(
	ctx context.Context,
	name, description, filename string,
	content io.Reader,
) (*domain.CreatedDeck, error) {
	if m.CreateDeckFromFileFn != nil {
		return m.CreateDeckFromFileFn(ctx, name, description, filename, content)
	}
	return &domain.CreatedDeck{ID: 1, Name: name}, nil
}

func (m *mockUserBackend) Analytics(ctx context.Context) (*domain.StudyAnalytics, error) {
	if m.AnalyticsFn != nil {
		return m.AnalyticsFn(ctx)
	}
	return &domain.StudyAnalytics{}, nil
}

func (m *mockUserBackend) SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error) {
	if m.SubscriptionStatusFn != nil {
		return m.SubscriptionStatusFn(ctx)
	}
	return &domain.SubscriptionStatus{Tier: domain.TierFree}, nil
}

func (m *mockUserBackend) CanCreateDeck(ctx context.Context) (*domain.DeckAllowance, error) {
	if m.CanCreateDeckFn != nil {
		return m.CanCreateDeckFn(ctx)
	}
	return &domain.DeckAllowance{CanCreate: true}, nil
}

func (m *mockUserBackend) Upgrade(ctx context.Context, tier domain.SubscriptionTier) (*domain.UpgradeResult, error) {
	if m.UpgradeFn != nil {
		return m.UpgradeFn(ctx, tier)
	}
	return &domain.UpgradeResult{}, nil
}

// mockAccounts implements AccountBackend with overridable functions.
type mockAccounts struct {
	LoginFn              func(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	RegisterFn           func(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	ForgotPasswordFn     func(ctx context.Context, email string) (string, error)
	ResetPasswordFn      func(ctx context.Context, reset domain.PasswordReset) (string, error)
	ConfirmEmailFn       func(ctx context.Context, token string) (string, error)
	ResendConfirmationFn func(ctx context.Context, email string) (string, error)
	PricingFn            func(ctx context.Context) (*domain.Pricing, error)
}

func (m *mockAccounts) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return m.LoginFn(ctx, creds)
}

func (m *mockAccounts) Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return m.RegisterFn(ctx, creds)
}

func (m *mockAccounts) ForgotPassword(ctx context.Context, email string) (string, error) {
	return m.ForgotPasswordFn(ctx, email)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error) {
	return m.ResetPasswordFn(ctx, reset)
}

func (m *mockAccounts) ConfirmEmail(ctx context.Context, token string) (string, error) {
	return m.ConfirmEmailFn(ctx, token)
}

func (m *mockAccounts) ResendConfirmation(ctx context.Context, email string) (string, error) {
	return m.ResendConfirmationFn(ctx, email)
}

func (m *mockAccounts) Pricing(ctx context.Context) (*domain.Pricing, error) {
	return m.PricingFn(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asOwner authenticates every request as owner without a real token.
func asOwner(owner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.Claims{Subject: owner, ExpiresAt: time.Now().Add(time.Hour)}
			next.ServeHTTP(w, r.WithContext(shared.SetAuth(r.Context(), claims, testToken)))
		})
	}
}

// testGateway wires the handlers to a chi router the way the server does,
// with authentication replaced by asOwner.
type testGateway struct {
	router   chi.Router
	sessions *study.Registry
}

func newTestGateway(t *testing.T, user UserBackend, accounts AccountBackend, owner string) *testGateway {
	t.Helper()
	return newTestGatewayWithSessions(t, user, accounts, owner,
		study.NewRegistry(time.Hour, nil, discardLogger()))
}

// newTestGatewayWithSessions lets several callers share one registry.
func newTestGatewayWithSessions(
	t *testing.T,
	user UserBackend,
	accounts AccountBackend,
	owner string,
	sessions *study.Registry,
) *testGateway {
	t.Helper()

	factory := func(token string) UserBackend {
		require.Equal(t, testToken, token)
		return user
	}

	authHandler := NewAuthHandler(accounts, auth.NewTokenInspector(0, nil), discardLogger())
	deckHandler := NewDeckHandler(factory, discardLogger())
	studyHandler := NewStudyHandler(factory, sessions, nil, time.Second, discardLogger())
	subscriptionHandler := NewSubscriptionHandler(factory, accounts, discardLogger())

	r := chi.NewRouter()
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/forgot-password", authHandler.ForgotPassword)
	r.Post("/auth/reset-password", authHandler.ResetPassword)
	r.Get("/auth/confirm-email", authHandler.ConfirmEmail)
	r.Post("/auth/resend-confirmation", authHandler.ResendConfirmation)
	r.Get("/subscription/pricing", subscriptionHandler.Pricing)

	r.Group(func(r chi.Router) {
		r.Use(asOwner(owner))
		r.Get("/dashboard", deckHandler.Dashboard)
		r.Get("/decks/{deckID}", deckHandler.GetDeck)
		r.Post("/decks/text", deckHandler.CreateFromText)
		r.Post("/decks/upload", deckHandler.Upload)
		r.Delete("/decks/{deckID}", deckHandler.DeleteDeck)

		r.Post("/study/sessions", studyHandler.StartSession)
		r.Get("/study/sessions/{sessionID}", studyHandler.GetSession)
		r.Post("/study/sessions/{sessionID}/resume", studyHandler.Resume)
		r.Post("/study/sessions/{sessionID}/restart", studyHandler.Restart)
		r.Post("/study/sessions/{sessionID}/answer", studyHandler.Answer)
		r.Post("/study/sessions/{sessionID}/advance", studyHandler.Advance)
		r.Post("/study/sessions/{sessionID}/reset", studyHandler.Reset)
		r.Get("/study/sessions/{sessionID}/summary", studyHandler.Summary)
		r.Delete("/study/sessions/{sessionID}", studyHandler.DiscardSession)
		r.Get("/study/progress", studyHandler.ListProgress)
		r.Delete("/study/progress/{deckID}", studyHandler.ClearProgress)
		r.Get("/study/analytics", studyHandler.Analytics)

		r.Get("/subscription/status", subscriptionHandler.Status)
		r.Get("/subscription/can-create-deck", subscriptionHandler.CanCreateDeck)
		r.Post("/subscription/upgrade", subscriptionHandler.Upgrade)
	})

	return &testGateway{router: r, sessions: sessions}
}

// do sends a request with an optional JSON body and returns the recorder.
func (g *testGateway) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
