package study

import (
	"github.com/phrazzld/synth-study/internal/domain"
)

// CardView is the card as shown to the learner. The reference answer is
// withheld until the answer has been graded.
type CardView struct {
	ID         int64             `json:"id"`
	Question   string            `json:"question"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Answer     string            `json:"answer,omitempty"`
}

// Snapshot is a point-in-time, read-only view of a Controller.
type Snapshot struct {
	State      State                 `json:"state"`
	DeckID     int64                 `json:"deckId"`
	Index      int                   `json:"index"`
	Total      int                   `json:"total"`
	Completed  int                   `json:"completed"`
	Submitting bool                  `json:"submitting"`
	Card       *CardView             `json:"card,omitempty"`
	LastResult *domain.StudySession  `json:"lastResult,omitempty"`
	Prior      *domain.StudyProgress `json:"prior,omitempty"`
	// Percent is the position of the current card while answering and
	// the checkpoint's completion when awaiting a resume decision.
	Percent float64 `json:"percent"`
	Results int     `json:"results"`
	Error   string  `json:"error,omitempty"`
}

// Snapshot returns the controller's current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.cards)
	s := Snapshot{
		State:      c.state,
		DeckID:     c.deckID,
		Index:      c.index,
		Total:      total,
		Completed:  c.completed,
		Submitting: c.submitting,
		Results:    len(c.results),
	}

	switch c.state {
	case StateAnswering, StateShowingResult:
		card := c.cards[c.index]
		view := &CardView{
			ID:         card.ID,
			Question:   card.Question,
			Difficulty: card.EffectiveDifficulty(),
		}
		if c.state == StateShowingResult {
			view.Answer = card.Answer
			s.LastResult = c.lastResult
		}
		s.Card = view
		s.Percent = domain.PositionPercent(c.index, total)
	case StateAwaitingResumeDecision:
		if c.prior != nil {
			prior := *c.prior
			s.Prior = &prior
			s.Percent = prior.Percent()
		}
	case StateCompleted:
		s.Percent = 100
	case StateLoadError:
		if c.loadErr != nil {
			s.Error = c.loadErr.Error()
		}
	}
	return s
}
