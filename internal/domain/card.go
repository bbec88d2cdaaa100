package domain

import (
	"errors"
	"strings"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is zero.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardQuestionEmpty is returned when a card has no question text.
	ErrCardQuestionEmpty = errors.New("card question cannot be empty")

	// ErrCardAnswerEmpty is returned when a card has no answer text.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")
)

// Difficulty is the backend's difficulty rating for a card.
type Difficulty string

// Valid card difficulties.
const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ParseDifficulty converts s (case-insensitive) into a Difficulty.
// An empty string yields DifficultyMedium, matching the backend default.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return DifficultyMedium, nil
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// Card is a single flashcard as served for study. Cards are immutable for
// the duration of a study session.
type Card struct {
	ID         int64      `json:"id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == 0 {
		return ErrCardIDEmpty
	}
	if strings.TrimSpace(c.Question) == "" {
		return ErrCardQuestionEmpty
	}
	if strings.TrimSpace(c.Answer) == "" {
		return ErrCardAnswerEmpty
	}
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return err
	}
	return nil
}

// EffectiveDifficulty returns the card's difficulty, defaulting to MEDIUM
// when the backend omitted it.
func (c *Card) EffectiveDifficulty() Difficulty {
	d, err := ParseDifficulty(string(c.Difficulty))
	if err != nil {
		return DifficultyMedium
	}
	return d
}
