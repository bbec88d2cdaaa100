package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/dashboard"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/platform/logger"
)

// MaxUploadBytes caps deck source uploads.
const MaxUploadBytes = 10 << 20

// DeckHandler handles deck and dashboard requests.
type DeckHandler struct {
	backends BackendFactory
	logger   *slog.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(backends BackendFactory, logger *slog.Logger) *DeckHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		backends: backends,
		logger:   logger.With(slog.String("component", "deck_handler")),
	}
}

// Dashboard handles GET /dashboard.
func (h *DeckHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return
	}

	board, err := dashboard.NewService(c.backend, log).Load(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load dashboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, board)
}

// GetDeck handles GET /decks/{deckID}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, deckID, ok := handleCallerAndPathInt64(w, r, h.backends, "deckID", log)
	if !ok {
		return
	}

	deck, err := c.backend.GetDeck(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load deck")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// CreateFromText handles POST /decks/text.
func (h *DeckHandler) CreateFromText(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return
	}

	var req TextDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := c.backend.CreateDeckFromText(r.Context(), domain.TextDeckRequest{
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	log.Info("deck created from text",
		slog.Int64("deck_id", created.ID),
		slog.Int("card_count", created.CardCount))
	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// Upload handles POST /decks/upload with multipart fields file, name and
// description.
func (h *DeckHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, ok := handleCaller(w, r, h.backends, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("file", "is required", domain.ErrEmptyContent), "")
		return
	}
	defer func() { _ = file.Close() }()

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))

	created, err := c.backend.CreateDeckFromFile(r.Context(), name, description, header.Filename, file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	log.Info("deck created from upload",
		slog.Int64("deck_id", created.ID),
		slog.Int64("size_bytes", header.Size),
		slog.Int("card_count", created.CardCount))
	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// DeleteDeck handles DELETE /decks/{deckID}.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	c, deckID, ok := handleCallerAndPathInt64(w, r, h.backends, "deckID", log)
	if !ok {
		return
	}

	if err := c.backend.DeleteDeck(r.Context(), deckID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete deck")
		return
	}

	log.Info("deck deleted", slog.Int64("deck_id", deckID))
	w.WriteHeader(http.StatusNoContent)
}
