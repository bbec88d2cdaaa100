package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a study transition.
type EventType string

const (
	SessionStarted   EventType = "session.started"
	SessionResumed   EventType = "session.resumed"
	SessionRestarted EventType = "session.restarted"
	AnswerGraded     EventType = "answer.graded"
	AnswerFailed     EventType = "answer.failed"
	CheckpointSaved  EventType = "checkpoint.saved"
	CheckpointFailed EventType = "checkpoint.failed"
	SessionCompleted EventType = "session.completed"
)

// StudyEvent records one transition of a study session.
type StudyEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type EventType `json:"type"`

	// DeckID identifies the deck being studied
	DeckID int64 `json:"deck_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// SessionPayload accompanies session.started, session.resumed,
// session.restarted and session.completed.
type SessionPayload struct {
	TotalCards     int     `json:"total_cards"`
	CardsCompleted int     `json:"cards_completed"`
	Graded         int     `json:"graded,omitempty"`
	AverageScore   float64 `json:"average_score,omitempty"`
	CorrectCount   int     `json:"correct_count,omitempty"`
}

// AnswerPayload accompanies answer.graded and answer.failed.
type AnswerPayload struct {
	CardID     int64         `json:"card_id"`
	Score      float64       `json:"score,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Latency    time.Duration `json:"latency"`
	// FailureKind is "timeout", "canceled" or "remote" for answer.failed.
	FailureKind string `json:"failure_kind,omitempty"`
}

// CheckpointPayload accompanies checkpoint.saved and checkpoint.failed.
type CheckpointPayload struct {
	CurrentCardIndex int  `json:"current_card_index"`
	TotalCards       int  `json:"total_cards"`
	CardsCompleted   int  `json:"cards_completed"`
	IsCompleted      bool `json:"is_completed"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *StudyEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewStudyEvent creates a new StudyEvent with the specified type and payload.
func NewStudyEvent(eventType EventType, deckID int64, payload interface{}) (*StudyEvent, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &StudyEvent{
		ID:        uuid.New(),
		Type:      eventType,
		DeckID:    deckID,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *StudyEvent) error
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc func(ctx context.Context, event *StudyEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *StudyEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the controller to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *StudyEvent) error
}
