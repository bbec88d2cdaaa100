package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/events"
	"github.com/phrazzld/synth-study/internal/platform/logger"
	"github.com/phrazzld/synth-study/internal/study"
)

// StudyHandler hosts study sessions for browser clients. Each session is a
// study.Controller held in the registry and addressed by its session id.
type StudyHandler struct {
	backends       BackendFactory
	sessions       *study.Registry
	emitter        events.EventEmitter
	gradingTimeout time.Duration
	logger         *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(
	backends BackendFactory,
	sessions *study.Registry,
	emitter events.EventEmitter,
	gradingTimeout time.Duration,
	logger *slog.Logger,
) *StudyHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessions cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		backends:       backends,
		sessions:       sessions,
		emitter:        emitter,
		gradingTimeout: gradingTimeout,
		logger:         logger.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /study/sessions. It loads the deck and any saved
// checkpoint before responding, so the returned snapshot is already in its
// first interactive state.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctrl := study.New(c.backend, req.DeckID,
		study.WithLogger(h.logger),
		study.WithEmitter(h.emitter),
		study.WithGradingTimeout(h.gradingTimeout),
		study.WithResume(req.Resume),
	)
	if err := ctrl.Start(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	id := h.sessions.Add(c.owner, ctrl)
	snapshot := ctrl.Snapshot()
	log.Info("study session started",
		slog.String("session_id", id.String()),
		slog.Int64("deck_id", req.DeckID),
		slog.String("state", string(snapshot.State)))

	shared.RespondWithJSON(w, r, http.StatusCreated, SessionResponse{
		SessionID: id.String(),
		Session:   snapshot,
	})
}

// session resolves the {sessionID} path parameter to the caller's
// controller, writing an error response when it cannot.
func (h *StudyHandler) session(w http.ResponseWriter, r *http.Request) (*study.Controller, string, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return nil, "", false
	}

	id, err := getPathUUID(r, "sessionID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, "", false
	}

	ctrl, err := h.sessions.Get(id, c.owner)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return nil, "", false
	}
	return ctrl, id.String(), true
}

func (h *StudyHandler) respondSnapshot(w http.ResponseWriter, r *http.Request, id string, ctrl *study.Controller) {
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

// GetSession handles GET /study/sessions/{sessionID}.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w, r, id, ctrl)
}

// Resume handles POST /study/sessions/{sessionID}/resume.
func (h *StudyHandler) Resume(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Resume(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to resume session")
		return
	}
	h.respondSnapshot(w, r, id, ctrl)
}

// Restart handles POST /study/sessions/{sessionID}/restart.
func (h *StudyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Restart(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to restart session")
		return
	}
	h.respondSnapshot(w, r, id, ctrl)
}

// Answer handles POST /study/sessions/{sessionID}/answer.
func (h *StudyHandler) Answer(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := ctrl.Submit(r.Context(), req.Answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AnswerResponse{
		Result:  result,
		Passed:  result.Passed(),
		Band:    result.Band(),
		Session: ctrl.Snapshot(),
	})
}

// Advance handles POST /study/sessions/{sessionID}/advance.
func (h *StudyHandler) Advance(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Advance(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to advance session")
		return
	}
	h.respondSnapshot(w, r, id, ctrl)
}

// Reset handles POST /study/sessions/{sessionID}/reset. A completed session
// starts over on the same deck.
func (h *StudyHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := ctrl.Reset(); err != nil {
		HandleAPIError(w, r, err, "Failed to reset session")
		return
	}
	if err := ctrl.Start(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}
	h.respondSnapshot(w, r, id, ctrl)
}

// Summary handles GET /study/sessions/{sessionID}/summary.
func (h *StudyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := h.session(w, r)
	if !ok {
		return
	}

	summary := ctrl.Summary()
	shared.RespondWithJSON(w, r, http.StatusOK, SummaryResponse{
		State:          ctrl.State(),
		Summary:        summary,
		AveragePercent: summary.AveragePercent(),
	})
}

// DiscardSession handles DELETE /study/sessions/{sessionID}.
func (h *StudyHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r, h.backends, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	id, err := getPathUUID(r, "sessionID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.sessions.Remove(id, c.owner); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProgress handles GET /study/progress.
func (h *StudyHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r, h.backends, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	progress, err := c.backend.ListActiveProgress(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// ClearProgress handles DELETE /study/progress/{deckID}.
func (h *StudyHandler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, deckID, ok := handleCallerAndPathInt64(w, r, h.backends, "deckID", log)
	if !ok {
		return
	}

	if err := c.backend.ClearProgress(r.Context(), deckID); err != nil {
		HandleAPIError(w, r, err, "Failed to clear progress")
		return
	}
	log.Info("study progress cleared", slog.Int64("deck_id", deckID))
	w.WriteHeader(http.StatusNoContent)
}

// Analytics handles GET /study/analytics.
func (h *StudyHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r, h.backends, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}

	analytics, err := c.backend.Analytics(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load analytics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, analytics)
}
