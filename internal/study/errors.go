package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/synth-study/internal/domain"
)

// Common error types for the study controller
var (
	// ErrEmptyAnswer is wrapped by the validation error returned for a
	// blank or whitespace-only answer.
	ErrEmptyAnswer = errors.New("answer cannot be empty")

	// ErrSubmissionInFlight indicates an answer is already being graded.
	ErrSubmissionInFlight = errors.New("an answer submission is already in flight")

	// ErrOperationInFlight indicates another backend call is in progress.
	ErrOperationInFlight = errors.New("another operation is in progress")

	// ErrWrongState indicates the operation is not valid in the current state.
	ErrWrongState = errors.New("operation not allowed in current state")

	// ErrDiscarded indicates the controller was abandoned.
	ErrDiscarded = errors.New("study session discarded")

	// ErrSessionNotFound indicates the registry holds no such session for
	// the caller.
	ErrSessionNotFound = errors.New("study session not found")
)

// FailureKind classifies grading failures.
type FailureKind string

// Grading failure kinds.
const (
	FailureRemote   FailureKind = "remote"
	FailureTimeout  FailureKind = "timeout"
	FailureCanceled FailureKind = "canceled"
)

// StateError reports an operation attempted in the wrong state.
type StateError struct {
	// Operation is the operation that was refused (e.g., "submit", "advance")
	Operation string
	// State is the controller state at the time
	State State
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Operation, e.State)
}

// Unwrap returns ErrWrongState.
func (e *StateError) Unwrap() error {
	return ErrWrongState
}

// LoadError is fatal to a session: the deck's cards could not be fetched.
type LoadError struct {
	DeckID int64
	Err    error
}

// Error implements the error interface for LoadError.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading cards for deck %d: %v", e.DeckID, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// GradingError reports a failed answer submission. The controller stays on
// the same card and the caller may submit again.
type GradingError struct {
	CardID int64
	Kind   FailureKind
	Err    error
}

// Error implements the error interface for GradingError.
func (e *GradingError) Error() string {
	switch e.Kind {
	case FailureTimeout:
		return fmt.Sprintf("grading answer for card %d timed out: %v", e.CardID, e.Err)
	case FailureCanceled:
		return fmt.Sprintf("grading answer for card %d canceled: %v", e.CardID, e.Err)
	default:
		return fmt.Sprintf("grading answer for card %d: %v", e.CardID, e.Err)
	}
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GradingError) Unwrap() error {
	return e.Err
}

// Timeout reports whether grading exceeded the grading timeout.
func (e *GradingError) Timeout() bool {
	return e.Kind == FailureTimeout
}

// CheckpointWriteError reports a failed progress write. It is logged and
// emitted as an event but never returned to callers.
type CheckpointWriteError struct {
	DeckID     int64
	Checkpoint domain.CheckpointRequest
	Err        error
}

// Error implements the error interface for CheckpointWriteError.
func (e *CheckpointWriteError) Error() string {
	return fmt.Sprintf("writing checkpoint %d/%d for deck %d: %v",
		e.Checkpoint.CurrentCardIndex, e.Checkpoint.TotalCards, e.DeckID, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CheckpointWriteError) Unwrap() error {
	return e.Err
}

// ProgressFetchError reports a failed checkpoint read during Start. The
// session proceeds as if no checkpoint existed.
type ProgressFetchError struct {
	DeckID int64
	Err    error
}

// Error implements the error interface for ProgressFetchError.
func (e *ProgressFetchError) Error() string {
	return fmt.Sprintf("fetching progress for deck %d: %v", e.DeckID, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ProgressFetchError) Unwrap() error {
	return e.Err
}

// newGradingError classifies err. parent is the caller's context and
// grading the derived context carrying the grading timeout.
func newGradingError(cardID int64, err error, parent, grading context.Context) *GradingError {
	kind := FailureRemote
	switch {
	case parent.Err() != nil:
		kind = FailureCanceled
	case errors.Is(grading.Err(), context.DeadlineExceeded):
		kind = FailureTimeout
	}
	return &GradingError{CardID: cardID, Kind: kind, Err: err}
}

// IsValidation reports whether err is an answer validation failure.
func IsValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
