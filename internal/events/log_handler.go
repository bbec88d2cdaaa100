package events

import (
	"context"
	"log/slog"
)

// LogHandler writes every study event as one structured log line.
// Failures are logged at warn, everything else at info.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler. It panics if logger is nil.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LogHandler{logger: logger.With("component", "study_events")}
}

// HandleEvent implements EventHandler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *StudyEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"deck_id", event.DeckID,
	}

	level := slog.LevelInfo
	switch event.Type {
	case AnswerGraded, AnswerFailed:
		var p AnswerPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs, "card_id", p.CardID, "latency", p.Latency)
		if event.Type == AnswerFailed {
			level = slog.LevelWarn
			attrs = append(attrs, "failure_kind", p.FailureKind)
		} else {
			attrs = append(attrs, "score", p.Score, "confidence", p.Confidence)
		}
	case CheckpointSaved, CheckpointFailed:
		var p CheckpointPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		if event.Type == CheckpointFailed {
			level = slog.LevelWarn
		}
		attrs = append(attrs,
			"current_card_index", p.CurrentCardIndex,
			"cards_completed", p.CardsCompleted,
			"is_completed", p.IsCompleted)
	default:
		var p SessionPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs, "total_cards", p.TotalCards, "cards_completed", p.CardsCompleted)
		if event.Type == SessionCompleted {
			attrs = append(attrs,
				"graded", p.Graded,
				"average_score", p.AverageScore,
				"correct_count", p.CorrectCount)
		}
	}

	h.logger.Log(ctx, level, "study event", attrs...)
	return nil
}
