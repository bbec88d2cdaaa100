package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// SubscriptionHandler handles plan and pricing requests.
type SubscriptionHandler struct {
	backends BackendFactory
	accounts AccountBackend
	logger   *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(
	backends BackendFactory,
	accounts AccountBackend,
	logger *slog.Logger,
) *SubscriptionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SubscriptionHandler")
	}

	return &SubscriptionHandler{
		backends: backends,
		accounts: accounts,
		logger:   logger.With(slog.String("component", "subscription_handler")),
	}
}

// Status handles GET /subscription/status.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r, h.backends, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	status, err := c.backend.SubscriptionStatus(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load subscription")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// CanCreateDeck handles GET /subscription/can-create-deck.
func (h *SubscriptionHandler) CanCreateDeck(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r, h.backends, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	allowance, err := c.backend.CanCreateDeck(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check deck allowance")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, allowance)
}

// Pricing handles GET /subscription/pricing. It needs no login.
func (h *SubscriptionHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.accounts.Pricing(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load pricing")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, pricing)
}

// Upgrade handles POST /subscription/upgrade.
func (h *SubscriptionHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return
	}

	var req UpgradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tier, _ := domain.ParseTier(req.Tier)

	result, err := c.backend.Upgrade(r.Context(), tier)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to change subscription")
		return
	}

	log.Info("subscription changed", slog.String("tier", string(tier)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
