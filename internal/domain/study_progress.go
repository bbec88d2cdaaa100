package domain

// DeckRef identifies the deck a checkpoint belongs to.
type DeckRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StudyProgress is a persisted checkpoint for one (user, deck) pair.
// At most one non-completed checkpoint exists per pair; the backend
// enforces that, the client only mirrors it.
type StudyProgress struct {
	ID               int64     `json:"id"`
	CurrentCardIndex int       `json:"currentCardIndex"`
	TotalCards       int       `json:"totalCards"`
	CardsCompleted   int       `json:"cardsCompleted"`
	LastStudiedAt    Timestamp `json:"lastStudiedAt"`
	IsCompleted      bool      `json:"isCompleted"`
	Deck             DeckRef   `json:"deck"`
}

// Resumable reports whether the checkpoint describes an unfinished pass.
func (p *StudyProgress) Resumable() bool {
	return p != nil && !p.IsCompleted
}

// Percent is the share of cards completed, 0..100.
func (p *StudyProgress) Percent() float64 {
	if p == nil {
		return 0
	}
	return CompletionPercent(p.CardsCompleted, p.TotalCards)
}

// CheckpointRequest is the body written to the backend on every card
// transition.
type CheckpointRequest struct {
	CurrentCardIndex int  `json:"currentCardIndex"`
	TotalCards       int  `json:"totalCards"`
	CardsCompleted   int  `json:"cardsCompleted"`
	IsCompleted      bool `json:"isCompleted"`
}

// Validate checks the counters are internally consistent.
func (r CheckpointRequest) Validate() error {
	if r.TotalCards < 0 {
		return NewValidationError("totalCards", "cannot be negative", nil)
	}
	if r.CurrentCardIndex < 0 || r.CurrentCardIndex > r.TotalCards {
		return NewValidationError("currentCardIndex", "must be between 0 and totalCards", nil)
	}
	if r.CardsCompleted < 0 || r.CardsCompleted > r.TotalCards {
		return NewValidationError("cardsCompleted", "must be between 0 and totalCards", nil)
	}
	return nil
}
