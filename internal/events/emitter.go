package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryEventEmitter dispatches study events to in-process handlers.
//
// Events for one deck are delivered to handlers one at a time, so a
// handler may keep per-deck state without locking. Events for different
// decks are dispatched independently. A panicking handler is reported as an
// error and never reaches the study session that emitted the event.
// Handlers must not emit events for the deck they are handling.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex

	decksMu sync.Mutex
	decks   map[int64]*deckLane

	logger *slog.Logger
}

// deckLane serializes dispatch for one deck. refs counts emitters using it
// so idle lanes can be dropped.
type deckLane struct {
	mu   sync.Mutex
	refs int
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		decks:    make(map[int64]*deckLane),
		logger:   logger.With("component", "study_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
// Handlers run synchronously in registration order.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers. Events
// built without NewStudyEvent get an ID and timestamp here.
// If any handler returns an error, the event will still be sent to all other handlers,
// and the first error encountered will be returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *StudyEvent) error {
	if event == nil {
		return fmt.Errorf("emit study event: nil event")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := e.logger.With(
		"deck_id", event.DeckID,
		"event_id", event.ID,
		"event_type", event.Type)

	if len(handlers) == 0 {
		log.Debug("no handlers registered for event")
		return nil
	}

	lane := e.acquire(event.DeckID)
	defer e.release(event.DeckID, lane)

	log.Debug("emitting event", "handler_count", len(handlers))

	var firstErr error
	for i, handler := range handlers {
		if err := dispatch(ctx, handler, event); err != nil {
			log.Error("handler failed to process event",
				"error", err,
				"handler_index", i)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// acquire locks the dispatch lane for deckID.
func (e *InMemoryEventEmitter) acquire(deckID int64) *deckLane {
	e.decksMu.Lock()
	lane, ok := e.decks[deckID]
	if !ok {
		lane = &deckLane{}
		e.decks[deckID] = lane
	}
	lane.refs++
	e.decksMu.Unlock()

	lane.mu.Lock()
	return lane
}

// release unlocks lane and forgets it once no emit is waiting on it.
func (e *InMemoryEventEmitter) release(deckID int64, lane *deckLane) {
	lane.mu.Unlock()

	e.decksMu.Lock()
	lane.refs--
	if lane.refs == 0 {
		delete(e.decks, deckID)
	}
	e.decksMu.Unlock()
}

// dispatch runs one handler, converting a panic into an error.
func dispatch(ctx context.Context, handler EventHandler, event *StudyEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked on %s: %v", event.Type, r)
		}
	}()
	return handler.HandleEvent(ctx, event)
}
