package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/phrazzld/synth-study/internal/domain"
)

// ListDecks returns every deck owned by the user, cards included.
func (c *Client) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	var decks []domain.Deck
	if err := c.do(ctx, call{method: http.MethodGet, path: "/decks"}, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// ListDeckStats returns the dashboard summary of each deck.
func (c *Client) ListDeckStats(ctx context.Context) ([]domain.DeckStats, error) {
	var stats []domain.DeckStats
	if err := c.do(ctx, call{method: http.MethodGet, path: "/decks/stats"}, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetDeck returns one deck with its cards.
func (c *Client) GetDeck(ctx context.Context, deckID int64) (*domain.Deck, error) {
	var deck domain.Deck
	if err := c.do(ctx, call{method: http.MethodGet, path: deckPath(deckID)}, &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}

// DeleteDeck removes a deck and its cards.
func (c *Client) DeleteDeck(ctx context.Context, deckID int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: deckPath(deckID)}, nil)
}

// CreateDeckFromText generates a deck from pasted text. Generation runs an
// AI model on the backend, so only ctx bounds the call.
func (c *Client) CreateDeckFromText(ctx context.Context, req domain.TextDeckRequest) (*domain.CreatedDeck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cl, err := jsonCall(http.MethodPost, "/decks/text", req)
	if err != nil {
		return nil, err
	}
	cl.longRunning = true

	var created domain.CreatedDeck
	if err := c.do(ctx, cl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateDeckFromFile uploads a document (PDF or text) and generates a deck
// from it. The upload is buffered in memory; the backend caps files well
// below what that makes a concern.
func (c *Client) CreateDeckFromFile(
	ctx context.Context,
	name, description, filename string,
	content io.Reader,
) (*domain.CreatedDeck, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "is required", domain.ErrDeckNameEmpty)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	n, err := io.Copy(part, content)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if n == 0 {
		return nil, domain.NewValidationError("file", "is empty", domain.ErrEmptyContent)
	}
	if err := w.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}
	if description != "" {
		if err := w.WriteField("description", description); err != nil {
			return nil, fmt.Errorf("writing form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	cl := call{
		method:      http.MethodPost,
		path:        "/decks/upload",
		body:        &buf,
		contentType: w.FormDataContentType(),
		longRunning: true,
	}

	var created domain.CreatedDeck
	if err := c.do(ctx, cl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func deckPath(deckID int64) string {
	return "/decks/" + strconv.FormatInt(deckID, 10)
}
