// Package dashboard assembles the learner's home view: deck statistics,
// unfinished study passes, and the aggregate numbers shown above them.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/redact"
	"golang.org/x/sync/errgroup"
)

// Source provides the data a Board is built from.
type Source interface {
	ListDeckStats(ctx context.Context) ([]domain.DeckStats, error)
	ListActiveProgress(ctx context.Context) ([]domain.StudyProgress, error)
}

// DeckView is a deck row with its mastery label.
type DeckView struct {
	domain.DeckStats
	Mastery domain.MasteryLevel `json:"mastery"`
	Band    domain.ScoreBand    `json:"band"`
}

// ProgressView is an unfinished study pass.
type ProgressView struct {
	domain.StudyProgress
	Percent float64 `json:"percent"`
}

// Board is the assembled dashboard. A Board is not safe for concurrent
// mutation.
type Board struct {
	Decks          []DeckView     `json:"decks"`
	Active         []ProgressView `json:"activeProgress"`
	TotalCards     int            `json:"totalCards"`
	AverageMastery int            `json:"averageMastery"`
}

// Service loads Boards.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a dashboard Service.
func NewService(source Source, logger *slog.Logger) *Service {
	if source == nil {
		panic("source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger.With(slog.String("component", "dashboard")),
	}
}

// Load fetches deck stats and active progress concurrently. Deck stats are
// required; an active-progress failure is logged and yields an empty list.
func (s *Service) Load(ctx context.Context) (*Board, error) {
	var (
		stats       []domain.DeckStats
		progress    []domain.StudyProgress
		progressErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.source.ListDeckStats(gctx)
		return err
	})
	g.Go(func() error {
		progress, progressErr = s.source.ListActiveProgress(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load deck stats", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("loading deck stats: %w", err)
	}
	if progressErr != nil {
		s.logger.WarnContext(ctx, "failed to load active progress",
			slog.String("error", redact.Error(progressErr)))
		progress = nil
	}

	return Build(stats, progress), nil
}

// Build assembles a Board from already-fetched data. Completed checkpoints
// are left out of the active list.
func Build(stats []domain.DeckStats, progress []domain.StudyProgress) *Board {
	b := &Board{
		Decks:  make([]DeckView, 0, len(stats)),
		Active: make([]ProgressView, 0, len(progress)),
	}
	for _, d := range stats {
		b.Decks = append(b.Decks, DeckView{
			DeckStats: d,
			Mastery:   d.Mastery(),
			Band:      domain.BandForMastery(d.MasteryScore),
		})
	}
	for _, p := range progress {
		p := p
		if !p.Resumable() {
			continue
		}
		b.Active = append(b.Active, ProgressView{StudyProgress: p, Percent: p.Percent()})
	}
	b.recompute()
	return b
}

// RemoveDeck drops a deck and its progress from the Board after a delete
// has been requested. It reports whether the deck was present.
func (b *Board) RemoveDeck(deckID int64) bool {
	found := false
	decks := b.Decks[:0]
	for _, d := range b.Decks {
		if d.ID == deckID {
			found = true
			continue
		}
		decks = append(decks, d)
	}
	b.Decks = decks
	b.ClearProgress(deckID)
	b.recompute()
	return found
}

// ClearProgress drops a deck's active progress from the Board. It reports
// whether an entry was removed.
func (b *Board) ClearProgress(deckID int64) bool {
	found := false
	active := b.Active[:0]
	for _, p := range b.Active {
		if p.Deck.ID == deckID {
			found = true
			continue
		}
		active = append(active, p)
	}
	b.Active = active
	return found
}

// Deck returns the deck row for id, if present.
func (b *Board) Deck(deckID int64) (DeckView, bool) {
	for _, d := range b.Decks {
		if d.ID == deckID {
			return d, true
		}
	}
	return DeckView{}, false
}

// Progress returns the active progress for a deck, if any.
func (b *Board) Progress(deckID int64) (ProgressView, bool) {
	for _, p := range b.Active {
		if p.Deck.ID == deckID {
			return p, true
		}
	}
	return ProgressView{}, false
}

func (b *Board) recompute() {
	b.TotalCards = 0
	var sum float64
	for _, d := range b.Decks {
		b.TotalCards += d.CardCount
		sum += d.MasteryScore
	}
	b.AverageMastery = 0
	if len(b.Decks) > 0 {
		b.AverageMastery = int(math.Round(sum / float64(len(b.Decks))))
	}
}
