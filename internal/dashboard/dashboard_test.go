package dashboard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/synth-study/internal/dashboard"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource implements dashboard.Source with overridable functions.
type mockSource struct {
	ListDeckStatsFn      func(ctx context.Context) ([]domain.DeckStats, error)
	ListActiveProgressFn func(ctx context.Context) ([]domain.StudyProgress, error)
}

func (m *mockSource) ListDeckStats(ctx context.Context) ([]domain.DeckStats, error) {
	if m.ListDeckStatsFn != nil {
		return m.ListDeckStatsFn(ctx)
	}
	return nil, nil
}

func (m *mockSource) ListActiveProgress(ctx context.Context) ([]domain.StudyProgress, error) {
	if m.ListActiveProgressFn != nil {
		return m.ListActiveProgressFn(ctx)
	}
	return nil, nil
}

func sampleStats() []domain.DeckStats {
	return []domain.DeckStats{
		{ID: 1, Name: "Biology", CardCount: 20, MasteryScore: 85},
		{ID: 2, Name: "History", CardCount: 10, MasteryScore: 42},
		{ID: 3, Name: "French", CardCount: 5, MasteryScore: 66},
	}
}

func sampleProgress() []domain.StudyProgress {
	return []domain.StudyProgress{
		{ID: 10, CurrentCardIndex: 5, TotalCards: 20, CardsCompleted: 5, Deck: domain.DeckRef{ID: 1, Name: "Biology"}},
		{ID: 11, CurrentCardIndex: 10, TotalCards: 10, CardsCompleted: 10, IsCompleted: true, Deck: domain.DeckRef{ID: 2}},
		{ID: 12, CurrentCardIndex: 1, TotalCards: 5, CardsCompleted: 1, Deck: domain.DeckRef{ID: 3, Name: "French"}},
	}
}

func newService(src dashboard.Source) *dashboard.Service {
	return dashboard.NewService(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad(t *testing.T) {
	t.Parallel() // Enable parallel execution

	src := &mockSource{
		ListDeckStatsFn:      func(ctx context.Context) ([]domain.DeckStats, error) { return sampleStats(), nil },
		ListActiveProgressFn: func(ctx context.Context) ([]domain.StudyProgress, error) { return sampleProgress(), nil },
	}

	board, err := newService(src).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 35, board.TotalCards)
	assert.Equal(t, 64, board.AverageMastery, "mean of 85, 42, 66 rounds to 64")
	require.Len(t, board.Decks, 3)
	assert.Equal(t, domain.MasteryMastered, board.Decks[0].Mastery)
	assert.Equal(t, domain.MasteryLearning, board.Decks[1].Mastery)
	assert.Equal(t, domain.MasteryGood, board.Decks[2].Mastery)

	require.Len(t, board.Active, 2, "completed checkpoints are not active")
	assert.InDelta(t, 25.0, board.Active[0].Percent, 0.001)
	assert.InDelta(t, 20.0, board.Active[1].Percent, 0.001)
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel() // Enable parallel execution

	board, err := newService(&mockSource{}).Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, board.TotalCards)
	assert.Zero(t, board.AverageMastery)
	assert.Empty(t, board.Decks)
	assert.Empty(t, board.Active)
}

func TestLoadDeckStatsError(t *testing.T) {
	t.Parallel() // Enable parallel execution

	boom := errors.New("stats unavailable")
	src := &mockSource{
		ListDeckStatsFn: func(ctx context.Context) ([]domain.DeckStats, error) { return nil, boom },
	}

	board, err := newService(src).Load(context.Background())
	assert.Nil(t, board)
	assert.ErrorIs(t, err, boom)
}

func TestLoadProgressErrorIsNotFatal(t *testing.T) {
	t.Parallel() // Enable parallel execution

	src := &mockSource{
		ListDeckStatsFn: func(ctx context.Context) ([]domain.DeckStats, error) { return sampleStats(), nil },
		ListActiveProgressFn: func(ctx context.Context) ([]domain.StudyProgress, error) {
			return nil, errors.New("progress unavailable")
		},
	}

	board, err := newService(src).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, board.Decks, 3)
	assert.Empty(t, board.Active)
}

func TestRemoveDeck(t *testing.T) {
	t.Parallel() // Enable parallel execution

	board := dashboard.Build(sampleStats(), sampleProgress())

	assert.True(t, board.RemoveDeck(1))
	assert.Equal(t, 15, board.TotalCards)
	assert.Equal(t, 54, board.AverageMastery)
	_, ok := board.Deck(1)
	assert.False(t, ok)
	_, ok = board.Progress(1)
	assert.False(t, ok, "progress for a removed deck goes too")

	assert.False(t, board.RemoveDeck(99))
	assert.Len(t, board.Decks, 2)
}

func TestClearProgress(t *testing.T) {
	t.Parallel() // Enable parallel execution

	board := dashboard.Build(sampleStats(), sampleProgress())

	assert.True(t, board.ClearProgress(3))
	assert.False(t, board.ClearProgress(3))
	require.Len(t, board.Active, 1)
	assert.Equal(t, int64(1), board.Active[0].Deck.ID)
	assert.Len(t, board.Decks, 3, "clearing progress keeps the deck")
}
