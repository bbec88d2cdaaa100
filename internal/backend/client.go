package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/synth-study/internal/platform/logger"
	"github.com/phrazzld/synth-study/internal/redact"
)

// DefaultRequestTimeout bounds ordinary calls when no option overrides it.
const DefaultRequestTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same token. The
// gateway wraps each caller's bearer token in one.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// Client is a Synth REST API client. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	requestTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout should be
// zero; per-call deadlines come from contexts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout sets the deadline for calls that do not trigger AI work.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL (for example
// "http://localhost:8080/api"). tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		tokens:         tokens,
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "backend_client")
	return c
}

// WithTokenSource returns a copy of c that authenticates with tokens.
// The copy shares the underlying connection pool.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one request.
type call struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	// anonymous calls do not send a token.
	anonymous bool
	// optionalAuth calls send a token when one is available.
	optionalAuth bool
	// longRunning calls are bounded only by the caller's context.
	longRunning bool
}

// jsonCall builds a call with a JSON-encoded body.
func jsonCall(method, path string, payload interface{}) (call, error) {
	c := call{method: method, path: path}
	if payload == nil {
		return c, nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return c, fmt.Errorf("encoding request: %w", err)
	}
	c.body = &buf
	c.contentType = "application/json"
	return c, nil
}

// do executes cl and decodes a JSON response into result when result is
// non-nil. An empty 2xx body leaves result untouched.
func (c *Client) do(ctx context.Context, cl call, result interface{}) error {
	resp, cancel, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s %s response: %w", cl.method, cl.path, err)
	}
	return nil
}

// doText executes cl and returns the response body as trimmed text. Some
// auth endpoints answer with a bare message string.
func (c *Client) doText(ctx context.Context, cl call) (string, error) {
	resp, cancel, err := c.send(ctx, cl)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s %s response: %w", cl.method, cl.path, err)
	}
	text := strings.TrimSpace(string(body))

	// A JSON string literal is unquoted; anything else is returned as-is.
	var s string
	if json.Unmarshal([]byte(text), &s) == nil {
		return s, nil
	}
	return text, nil
}

// send performs the round trip and converts non-2xx responses to *APIError.
// On success the caller must close the body and then call cancel.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if !cl.longRunning && c.requestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	if !cl.anonymous {
		token, err := c.token()
		switch {
		case err == nil:
			req.Header.Set("Authorization", "Bearer "+token)
		case !cl.optionalAuth:
			cancel()
			return nil, nil, err
		}
	}

	log := logger.FromContextOrDefault(ctx, c.logger)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		log.Debug("backend request failed",
			"method", cl.method,
			"path", cl.path,
			"duration", time.Since(start),
			"error", redact.Error(err))
		return nil, nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}

	log.Debug("backend request completed",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, nil, newAPIError(cl.method, cl.path, resp.StatusCode, body)
	}

	return resp, cancel, nil
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", ErrNoToken
	}
	return c.tokens.Token()
}
