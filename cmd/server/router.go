package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/synth-study/internal/api"
	apiMiddleware "github.com/phrazzld/synth-study/internal/api/middleware"
	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serviceName is reported by the health endpoint.
const serviceName = "synth-study-gateway"

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.backend, app.inspector, app.logger)
	deckHandler := api.NewDeckHandler(app.userBackend, app.logger)
	studyHandler := api.NewStudyHandler(
		app.userBackend,
		app.sessions,
		app.emitter,
		app.config.Backend.GradingTimeout,
		app.logger,
	)
	subscriptionHandler := api.NewSubscriptionHandler(app.userBackend, app.backend, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.inspector)
	authLimiter := apiMiddleware.NewRateLimiter(
		app.config.Gateway.AuthRatePerSecond,
		app.config.Gateway.AuthBurst,
	)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public, rate limited per client IP)
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Limit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/forgot-password", authHandler.ForgotPassword)
			r.Post("/auth/reset-password", authHandler.ResetPassword)
			r.Get("/auth/confirm-email", authHandler.ConfirmEmail)
			r.Post("/auth/resend-confirmation", authHandler.ResendConfirmation)
		})

		r.Get("/subscription/pricing", subscriptionHandler.Pricing)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/dashboard", deckHandler.Dashboard)

			r.Post("/decks/text", deckHandler.CreateFromText)
			r.Post("/decks/upload", deckHandler.Upload)
			r.Get("/decks/{deckID}", deckHandler.GetDeck)
			r.Delete("/decks/{deckID}", deckHandler.DeleteDeck)

			r.Post("/study/sessions", studyHandler.StartSession)
			r.Get("/study/sessions/{sessionID}", studyHandler.GetSession)
			r.Delete("/study/sessions/{sessionID}", studyHandler.DiscardSession)
			r.Post("/study/sessions/{sessionID}/resume", studyHandler.Resume)
			r.Post("/study/sessions/{sessionID}/restart", studyHandler.Restart)
			r.Post("/study/sessions/{sessionID}/answer", studyHandler.Answer)
			r.Post("/study/sessions/{sessionID}/advance", studyHandler.Advance)
			r.Post("/study/sessions/{sessionID}/reset", studyHandler.Reset)
			r.Get("/study/sessions/{sessionID}/summary", studyHandler.Summary)

			r.Get("/study/progress", studyHandler.ListProgress)
			r.Delete("/study/progress/{deckID}", studyHandler.ClearProgress)
			r.Get("/study/analytics", studyHandler.Analytics)

			r.Get("/subscription/status", subscriptionHandler.Status)
			r.Get("/subscription/can-create-deck", subscriptionHandler.CanCreateDeck)
			r.Post("/subscription/upgrade", subscriptionHandler.Upgrade)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, api.HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Service:   serviceName,
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(app.gatherer, promhttp.HandlerOpts{}))

	return r
}
