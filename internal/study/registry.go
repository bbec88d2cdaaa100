package study

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept by a Registry.
const DefaultSessionTTL = 30 * time.Minute

type registryEntry struct {
	controller *Controller
	owner      string
	deckID     int64
	lastUsed   time.Time
}

// Registry holds live controllers for a multi-user host, keyed by a random
// session id and scoped to the owning user.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*registryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewRegistry creates a Registry evicting sessions idle longer than ttl.
// A non-positive ttl selects DefaultSessionTTL; a nil now selects time.Now.
func NewRegistry(ttl time.Duration, now func() time.Time, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[uuid.UUID]*registryEntry),
		ttl:     ttl,
		now:     now,
		logger:  logger.With(slog.String("component", "study_registry")),
	}
}

// Add registers c for owner and returns its session id. An existing session
// of the same owner on the same deck is discarded and replaced.
func (r *Registry) Add(owner string, c *Controller) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	for existingID, e := range r.entries {
		if e.owner == owner && e.deckID == c.DeckID() {
			e.controller.Discard()
			delete(r.entries, existingID)
			r.logger.Debug("replaced study session",
				slog.String("session_id", existingID.String()),
				slog.Int64("deck_id", e.deckID))
		}
	}

	r.entries[id] = &registryEntry{
		controller: c,
		owner:      owner,
		deckID:     c.DeckID(),
		lastUsed:   r.now(),
	}
	return id
}

// Get returns the controller for id if owner owns it, refreshing its idle
// timer. Unknown ids and foreign sessions both yield ErrSessionNotFound.
func (r *Registry) Get(id uuid.UUID, owner string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = r.now()
	return e.controller, nil
}

// Remove discards and forgets the session.
func (r *Registry) Remove(id uuid.UUID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return ErrSessionNotFound
	}
	e.controller.Discard()
	delete(r.entries, id)
	return nil
}

// Sweep discards sessions idle past the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			e.controller.Discard()
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("evicted idle study sessions", slog.Int("count", removed))
	}
	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
