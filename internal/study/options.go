package study

import (
	"log/slog"
	"time"

	"github.com/phrazzld/synth-study/internal/events"
)

// DefaultGradingTimeout bounds one answer submission.
const DefaultGradingTimeout = 90 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEmitter sets where study events are published.
func WithEmitter(e events.EventEmitter) Option {
	return func(c *Controller) {
		c.emitter = e
	}
}

// WithGradingTimeout bounds each answer submission. Zero or negative
// disables the bound.
func WithGradingTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.gradingTimeout = d
	}
}

// WithResume makes Start resume a saved checkpoint without waiting for a
// decision.
func WithResume(resume bool) Option {
	return func(c *Controller) {
		c.resumeRequested = resume
	}
}

// WithClock replaces time.Now for latency measurements.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
