package domain

import (
	"errors"
	"strings"
)

// Deck validation errors
var (
	// ErrDeckNameEmpty is returned when a deck has no name.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")

	// ErrDeckContentEmpty is returned when text-based deck creation has no content.
	ErrDeckContentEmpty = errors.New("deck content cannot be empty")
)

// Deck is a full deck including its cards.
type Deck struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
	Cards       []Card    `json:"cards"`
}

// DeckStats is the dashboard summary of a deck. MasteryScore is computed
// by the backend on a 0..100 scale.
type DeckStats struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CardCount    int       `json:"cardCount"`
	MasteryScore float64   `json:"masteryScore"`
	LastStudied  Timestamp `json:"lastStudied"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// Mastery returns the mastery label for the deck.
func (d DeckStats) Mastery() MasteryLevel {
	return MasteryForScore(d.MasteryScore)
}

// CreatedDeck is the trimmed response returned after creating a deck.
type CreatedDeck struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
	CardCount   int       `json:"cardCount"`
}

// TextDeckRequest creates a deck from pasted text.
type TextDeckRequest struct {
	Name        string `json:"name"                  validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Content     string `json:"content"               validate:"required"`
}

// Validate checks the required fields are present.
func (r TextDeckRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "is required", ErrDeckNameEmpty)
	}
	if strings.TrimSpace(r.Content) == "" {
		return NewValidationError("content", "is required", ErrDeckContentEmpty)
	}
	return nil
}
