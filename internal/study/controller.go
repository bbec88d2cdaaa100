package study

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/events"
	"github.com/phrazzld/synth-study/internal/redact"
	"golang.org/x/sync/errgroup"
)

// Backend is the subset of the remote API a study session needs.
// FetchProgress returns (nil, nil) when the deck has no checkpoint.
type Backend interface {
	FetchCards(ctx context.Context, deckID int64) ([]domain.Card, error)
	FetchProgress(ctx context.Context, deckID int64) (*domain.StudyProgress, error)
	SubmitAnswer(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error)
	SaveProgress(ctx context.Context, deckID int64, req domain.CheckpointRequest) (*domain.StudyProgress, error)
	ClearProgress(ctx context.Context, deckID int64) error
}

// Controller runs one study pass over one deck. All methods are safe for
// concurrent use; backend calls are made without holding the lock.
type Controller struct {
	backend Backend
	deckID  int64

	logger          *slog.Logger
	emitter         events.EventEmitter
	gradingTimeout  time.Duration
	resumeRequested bool
	now             func() time.Time

	mu         sync.Mutex
	state      State
	cards      []domain.Card
	index      int
	completed  int
	results    []Entry
	prior      *domain.StudyProgress
	lastResult *domain.StudySession
	loadErr    error
	submitting bool
	busy       string
	discarded  bool
	// generation changes whenever in-memory state is replaced, so a call
	// that returns after Reset or Discard can tell its result is stale.
	generation uint64
}

// New creates a Controller for deckID in StateInitializing.
func New(backend Backend, deckID int64, opts ...Option) *Controller {
	if backend == nil {
		panic("backend cannot be nil")
	}

	c := &Controller{
		backend:        backend,
		deckID:         deckID,
		logger:         slog.Default(),
		gradingTimeout: DefaultGradingTimeout,
		now:            time.Now,
		state:          StateInitializing,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(
		slog.String("component", "study_controller"),
		slog.Int64("deck_id", deckID),
	)
	return c
}

// DeckID returns the deck being studied.
func (c *Controller) DeckID() int64 {
	return c.deckID
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// begin claims the single backend slot for op. The caller holds c.mu.
func (c *Controller) begin(op string, allowed State) (uint64, error) {
	if c.discarded {
		return 0, ErrDiscarded
	}
	if c.submitting {
		if op == "submit" {
			return 0, ErrSubmissionInFlight
		}
		return 0, ErrOperationInFlight
	}
	if c.busy != "" {
		return 0, ErrOperationInFlight
	}
	if c.state != allowed {
		return 0, &StateError{Operation: op, State: c.state}
	}
	c.busy = op
	return c.generation, nil
}

// end releases the backend slot and reports whether gen is still current.
// The caller holds c.mu.
func (c *Controller) end(gen uint64) bool {
	c.busy = ""
	return !c.discarded && gen == c.generation
}

// Start loads the deck's cards and checkpoint concurrently and moves to the
// first interactive state. A card load failure returns *LoadError; a
// checkpoint read failure is logged and treated as no checkpoint.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	gen, err := c.begin("start", StateInitializing)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	var (
		cards       []domain.Card
		progress    *domain.StudyProgress
		progressErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = c.backend.FetchCards(gctx, c.deckID)
		return err
	})
	g.Go(func() error {
		// Never fails the group: a missing checkpoint must not block studying.
		progress, progressErr = c.backend.FetchProgress(gctx, c.deckID)
		return nil
	})
	loadErr := g.Wait()

	if loadErr == nil && progressErr != nil {
		pe := &ProgressFetchError{DeckID: c.deckID, Err: progressErr}
		c.logger.WarnContext(ctx, "checkpoint unavailable, starting fresh",
			slog.String("error", redact.Error(pe)))
		progress = nil
	}

	c.mu.Lock()
	if !c.end(gen) {
		c.mu.Unlock()
		return ErrDiscarded
	}

	if loadErr != nil {
		le := &LoadError{DeckID: c.deckID, Err: loadErr}
		c.state = StateLoadError
		c.loadErr = le
		c.mu.Unlock()
		c.logger.ErrorContext(ctx, "failed to load cards", slog.String("error", redact.Error(le)))
		return le
	}

	c.cards = cards
	c.index, c.completed, c.results, c.lastResult = 0, 0, nil, nil

	switch {
	case len(cards) == 0:
		c.state = StateEmptyDeck
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "deck has no cards")
		return nil
	case progress.Resumable():
		c.prior = progress
		c.state = StateAwaitingResumeDecision
		if !c.resumeRequested {
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "checkpoint found, awaiting resume decision",
				slog.Int("current_card_index", progress.CurrentCardIndex),
				slog.Int("cards_completed", progress.CardsCompleted))
			return nil
		}
		c.mu.Unlock()
		return c.Resume(ctx)
	default:
		c.prior = nil
		c.state = StateAnswering
		payload := c.sessionPayloadLocked()
		c.mu.Unlock()
		c.emit(ctx, events.SessionStarted, payload)
		return nil
	}
}

// Resume continues from the saved checkpoint. Cards completed before the
// checkpoint are represented by placeholder results. A checkpoint already
// at or past the last card completes the session and writes a terminal
// checkpoint.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.discarded {
		c.mu.Unlock()
		return ErrDiscarded
	}
	if c.busy != "" {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	if c.state != StateAwaitingResumeDecision {
		state := c.state
		c.mu.Unlock()
		return &StateError{Operation: "resume", State: state}
	}

	total := len(c.cards)
	index := clamp(c.prior.CurrentCardIndex, 0, total)
	completed := clamp(c.prior.CardsCompleted, 0, total)

	c.index = index
	c.completed = completed
	c.results = make([]Entry, 0, total)
	for i := 0; i < completed; i++ {
		c.results = append(c.results, PlaceholderEntry())
	}
	c.lastResult = nil
	c.prior = nil

	if index < total {
		c.state = StateAnswering
		payload := c.sessionPayloadLocked()
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "resumed study session",
			slog.Int("current_card_index", index),
			slog.Int("cards_completed", completed))
		c.emit(ctx, events.SessionResumed, payload)
		return nil
	}

	// Nothing left to answer. Close the pass out on the server as well.
	c.index = total
	gen := c.generation
	c.busy = "resume"
	req := domain.CheckpointRequest{
		CurrentCardIndex: total,
		TotalCards:       total,
		CardsCompleted:   completed,
		IsCompleted:      true,
	}
	c.mu.Unlock()

	c.emit(ctx, events.SessionResumed, events.SessionPayload{TotalCards: total, CardsCompleted: completed})
	c.writeCheckpoint(ctx, req)

	c.mu.Lock()
	if !c.end(gen) {
		c.mu.Unlock()
		return ErrDiscarded
	}
	c.state = StateCompleted
	payload := c.sessionPayloadLocked()
	c.mu.Unlock()

	c.emit(ctx, events.SessionCompleted, payload)
	return nil
}

// Restart discards the saved checkpoint and begins at the first card. The
// server-side clear is best effort: a failure is logged and the restart
// proceeds.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	gen, err := c.begin("restart", StateAwaitingResumeDecision)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.backend.ClearProgress(ctx, c.deckID); err != nil {
		c.logger.WarnContext(ctx, "failed to clear checkpoint on restart",
			slog.String("error", redact.Error(err)))
	}

	c.mu.Lock()
	if !c.end(gen) {
		c.mu.Unlock()
		return ErrDiscarded
	}
	c.index, c.completed, c.results, c.lastResult, c.prior = 0, 0, nil, nil, nil
	c.state = StateAnswering
	payload := c.sessionPayloadLocked()
	c.mu.Unlock()

	c.emit(ctx, events.SessionRestarted, payload)
	return nil
}

// Submit sends the answer for the current card for grading. Blank answers
// are rejected locally; anything else is sent exactly as typed. On failure
// the controller stays on the same card and the caller may retry.
func (c *Controller) Submit(ctx context.Context, answer string) (*domain.StudySession, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, domain.NewValidationError("answer", "cannot be empty", ErrEmptyAnswer)
	}

	c.mu.Lock()
	gen, err := c.begin("submit", StateAnswering)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy = ""
	c.submitting = true
	card := c.cards[c.index]
	c.mu.Unlock()

	gctx := ctx
	cancel := context.CancelFunc(func() {})
	if c.gradingTimeout > 0 {
		gctx, cancel = context.WithTimeout(ctx, c.gradingTimeout)
	}
	started := c.now()
	session, err := c.backend.SubmitAnswer(gctx, card.ID, answer)
	latency := c.now().Sub(started)
	if err == nil && session == nil {
		err = errors.New("empty grading response")
	}
	if err == nil {
		err = session.Validate()
	}
	var gerr *GradingError
	if err != nil {
		gerr = newGradingError(card.ID, err, ctx, gctx)
	}
	cancel()

	c.mu.Lock()
	c.submitting = false
	if c.discarded || gen != c.generation {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "dropping grading result for abandoned session",
			slog.Int64("card_id", card.ID))
		return nil, ErrDiscarded
	}

	if gerr != nil {
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "grading failed",
			slog.Int64("card_id", card.ID),
			slog.String("failure_kind", string(gerr.Kind)),
			slog.Duration("latency", latency),
			slog.String("error", redact.Error(gerr)))
		c.emit(ctx, events.AnswerFailed, events.AnswerPayload{
			CardID:      card.ID,
			Latency:     latency,
			FailureKind: string(gerr.Kind),
		})
		return nil, gerr
	}

	c.results = append(c.results, GradedEntry(session))
	c.completed++
	c.lastResult = session
	c.state = StateShowingResult
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "answer graded",
		slog.Int64("card_id", card.ID),
		slog.Float64("score", session.Score),
		slog.Duration("latency", latency))
	c.emit(ctx, events.AnswerGraded, events.AnswerPayload{
		CardID:     card.ID,
		Score:      session.Score,
		Confidence: session.Confidence,
		Latency:    latency,
	})
	return session, nil
}

// Advance records a checkpoint and moves to the next card, or completes
// the session after the last card. Checkpoint failures do not block the
// transition.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	gen, err := c.begin("advance", StateShowingResult)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	total := len(c.cards)
	next := c.index + 1
	last := next >= total
	req := domain.CheckpointRequest{
		CurrentCardIndex: next,
		TotalCards:       total,
		CardsCompleted:   c.completed,
		IsCompleted:      last,
	}
	if last {
		req.CurrentCardIndex = total
	}
	c.mu.Unlock()

	c.writeCheckpoint(ctx, req)

	c.mu.Lock()
	if !c.end(gen) {
		c.mu.Unlock()
		return ErrDiscarded
	}
	c.lastResult = nil
	if last {
		c.index = total
		c.state = StateCompleted
		payload := c.sessionPayloadLocked()
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "study session completed",
			slog.Int("total_cards", payload.TotalCards),
			slog.Int("graded", payload.Graded),
			slog.Float64("average_score", payload.AverageScore))
		c.emit(ctx, events.SessionCompleted, payload)
		return nil
	}
	c.index = next
	c.state = StateAnswering
	c.mu.Unlock()
	return nil
}

// writeCheckpoint saves req and swallows any failure.
func (c *Controller) writeCheckpoint(ctx context.Context, req domain.CheckpointRequest) {
	payload := events.CheckpointPayload{
		CurrentCardIndex: req.CurrentCardIndex,
		TotalCards:       req.TotalCards,
		CardsCompleted:   req.CardsCompleted,
		IsCompleted:      req.IsCompleted,
	}

	if _, err := c.backend.SaveProgress(ctx, c.deckID, req); err != nil {
		cwe := &CheckpointWriteError{DeckID: c.deckID, Checkpoint: req, Err: err}
		c.logger.WarnContext(ctx, "checkpoint write failed",
			slog.String("error", redact.Error(cwe)))
		c.emit(ctx, events.CheckpointFailed, payload)
		return
	}
	c.emit(ctx, events.CheckpointSaved, payload)
}

// Summary returns the end-of-session report. Before completion it reflects
// the answers so far.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summarize(c.results)
}

// Results returns a copy of the session's result entries.
func (c *Controller) Results() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.results))
	copy(out, c.results)
	return out
}

// Reset returns a completed controller to StateInitializing with fresh
// in-memory state so the deck can be studied again. Server-side progress is
// untouched; call Start next.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discarded {
		return ErrDiscarded
	}
	if c.state != StateCompleted {
		return &StateError{Operation: "reset", State: c.state}
	}
	c.generation++
	c.cards, c.results, c.lastResult, c.prior, c.loadErr = nil, nil, nil, nil, nil
	c.index, c.completed = 0, 0
	c.busy, c.submitting = "", false
	c.resumeRequested = false
	c.state = StateInitializing
	return nil
}

// Discard abandons the controller. Calls still in flight finish without
// mutating state and return ErrDiscarded.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discarded = true
	c.generation++
}

// Discarded reports whether Discard has been called.
func (c *Controller) Discarded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discarded
}

// sessionPayloadLocked builds a session event payload. The caller holds c.mu.
func (c *Controller) sessionPayloadLocked() events.SessionPayload {
	s := Summarize(c.results)
	return events.SessionPayload{
		TotalCards:     len(c.cards),
		CardsCompleted: c.completed,
		Graded:         s.Graded,
		AverageScore:   s.AverageScore,
		CorrectCount:   s.CorrectCount,
	}
}

// emit publishes an event. It is never called with c.mu held.
func (c *Controller) emit(ctx context.Context, t events.EventType, payload interface{}) {
	if c.emitter == nil {
		return
	}
	event, err := events.NewStudyEvent(t, c.deckID, payload)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to build study event",
			slog.String("event_type", string(t)),
			slog.String("error", err.Error()))
		return
	}
	if err := c.emitter.EmitEvent(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "study event handler failed",
			slog.String("event_type", string(t)),
			slog.String("error", redact.Error(err)))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
