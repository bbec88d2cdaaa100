package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/phrazzld/synth-study/internal/domain"
)

// answerRequest is the body of POST /study/answer.
type answerRequest struct {
	CardID int64  `json:"cardId"`
	Answer string `json:"answer"`
}

// FetchCards returns the cards of a deck in the order they are studied.
func (c *Client) FetchCards(ctx context.Context, deckID int64) ([]domain.Card, error) {
	var cards []domain.Card
	path := "/study/deck/" + strconv.FormatInt(deckID, 10)
	if err := c.do(ctx, call{method: http.MethodGet, path: path}, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// SubmitAnswer sends an answer for AI grading. Grading can take a long
// time; only ctx bounds the call.
func (c *Client) SubmitAnswer(ctx context.Context, cardID int64, answer string) (*domain.StudySession, error) {
	cl, err := jsonCall(http.MethodPost, "/study/answer", answerRequest{CardID: cardID, Answer: answer})
	if err != nil {
		return nil, err
	}
	cl.longRunning = true

	var session domain.StudySession
	if err := c.do(ctx, cl, &session); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grading response: %w", err)
	}
	return &session, nil
}

// ListSessions returns the user's graded answers, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]domain.StudySession, error) {
	var sessions []domain.StudySession
	if err := c.do(ctx, call{method: http.MethodGet, path: "/study/sessions"}, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Analytics returns the user's rolling study statistics.
func (c *Client) Analytics(ctx context.Context) (*domain.StudyAnalytics, error) {
	var analytics domain.StudyAnalytics
	if err := c.do(ctx, call{method: http.MethodGet, path: "/study/analytics"}, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// FetchProgress returns the live checkpoint for a deck, or (nil, nil) when
// there is none.
func (c *Client) FetchProgress(ctx context.Context, deckID int64) (*domain.StudyProgress, error) {
	var progress *domain.StudyProgress
	if err := c.do(ctx, call{method: http.MethodGet, path: progressPath(deckID)}, &progress); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return progress, nil
}

// SaveProgress upserts the checkpoint for a deck.
func (c *Client) SaveProgress(
	ctx context.Context,
	deckID int64,
	req domain.CheckpointRequest,
) (*domain.StudyProgress, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cl, err := jsonCall(http.MethodPost, progressPath(deckID), req)
	if err != nil {
		return nil, err
	}

	var progress domain.StudyProgress
	if err := c.do(ctx, cl, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListActiveProgress returns every unfinished checkpoint for the user.
func (c *Client) ListActiveProgress(ctx context.Context) ([]domain.StudyProgress, error) {
	var progress []domain.StudyProgress
	if err := c.do(ctx, call{method: http.MethodGet, path: "/study/progress"}, &progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// ClearProgress deletes the live checkpoint for a deck. Clearing a deck
// with no checkpoint succeeds.
func (c *Client) ClearProgress(ctx context.Context, deckID int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: progressPath(deckID)}, nil)
}

func progressPath(deckID int64) string {
	return "/study/progress/" + strconv.FormatInt(deckID, 10)
}
