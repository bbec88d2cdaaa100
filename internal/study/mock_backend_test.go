package study_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/events"
)

// mockBackend implements study.Backend with overridable functions and
// records every call it receives.
type mockBackend struct {
	FetchCardsFn    func(ctx context.Context, deckID int64) ([]domain.Card, error)
	FetchProgressFn func(ctx context.Context, deckID int64) (*domain.StudyProgress, error)
	SubmitAnswerFn  func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error)
	SaveProgressFn  func(ctx context.Context, deckID int64, req domain.CheckpointRequest) (*domain.StudyProgress, error)
	ClearProgressFn func(ctx context.Context, deckID int64) error

	mu          sync.Mutex
	submissions []string
	checkpoints []domain.CheckpointRequest
	clears      int
	reads       int
}

func (m *mockBackend) FetchCards(ctx context.Context, deckID int64) ([]domain.Card, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()
	if m.FetchCardsFn != nil {
		return m.FetchCardsFn(ctx, deckID)
	}
	return nil, nil
}

func (m *mockBackend) FetchProgress(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()
	if m.FetchProgressFn != nil {
		return m.FetchProgressFn(ctx, deckID)
	}
	return nil, nil
}

func (m *mockBackend) SubmitAnswer(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
	m.mu.Lock()
	m.submissions = append(m.submissions, answer)
	m.mu.Unlock()
	if m.SubmitAnswerFn != nil {
		return m.SubmitAnswerFn(ctx, cardID, answer)
	}
	return &domain.StudySession{ID: cardID, Response: answer, Score: 1, Confidence: 1}, nil
}

func (m *mockBackend) SaveProgress(
	ctx context.Context,
	deckID int64,
	req domain.CheckpointRequest,
) (*domain.StudyProgress, error) {
	m.mu.Lock()
	m.checkpoints = append(m.checkpoints, req)
	m.mu.Unlock()
	if m.SaveProgressFn != nil {
		return m.SaveProgressFn(ctx, deckID, req)
	}
	return &domain.StudyProgress{
		CurrentCardIndex: req.CurrentCardIndex,
		TotalCards:       req.TotalCards,
		CardsCompleted:   req.CardsCompleted,
		IsCompleted:      req.IsCompleted,
	}, nil
}

func (m *mockBackend) ClearProgress(ctx context.Context, deckID int64) error {
	m.mu.Lock()
	m.clears++
	m.mu.Unlock()
	if m.ClearProgressFn != nil {
		return m.ClearProgressFn(ctx, deckID)
	}
	return nil
}

func (m *mockBackend) Submissions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.submissions...)
}

func (m *mockBackend) Checkpoints() []domain.CheckpointRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CheckpointRequest(nil), m.checkpoints...)
}

func (m *mockBackend) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func (m *mockBackend) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// withCards returns a mockBackend serving cards and no checkpoint.
func withCards(cards ...domain.Card) *mockBackend {
	return &mockBackend{
		FetchCardsFn: func(ctx context.Context, deckID int64) ([]domain.Card, error) {
			return cards, nil
		},
	}
}

// scoring returns a SubmitAnswerFn handing out the given scores in order.
func scoring(scores ...float64) func(context.Context, int64, string) (*domain.StudySession, error) {
	var mu sync.Mutex
	next := 0
	return func(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
		mu.Lock()
		defer mu.Unlock()
		score := scores[next]
		next++
		return &domain.StudySession{
			ID:         int64(next),
			Response:   answer,
			Score:      score,
			Confidence: 0.9,
			Card:       &domain.Card{ID: cardID},
		}, nil
	}
}

func testCards(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{
			ID:         int64(i + 1),
			Question:   "Question " + string(rune('A'+i)),
			Answer:     "Answer " + string(rune('A'+i)),
			Difficulty: domain.DifficultyMedium,
		}
	}
	return cards
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventRecorder captures emitted event types in order.
type eventRecorder struct {
	mu    sync.Mutex
	types []events.EventType
}

func newEventRecorder() (*eventRecorder, events.EventEmitter) {
	rec := &eventRecorder{}
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, e *events.StudyEvent) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.types = append(rec.types, e.Type)
		return nil
	}))
	return rec, emitter
}

func (r *eventRecorder) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EventType(nil), r.types...)
}
