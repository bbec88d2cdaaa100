package study

// State is a Controller's position in the study state machine.
type State string

// Controller states.
const (
	StateInitializing           State = "initializing"
	StateAwaitingResumeDecision State = "awaiting_resume_decision"
	StateAnswering              State = "answering"
	StateShowingResult          State = "showing_result"
	StateCompleted              State = "completed"
	StateLoadError              State = "load_error"
	StateEmptyDeck              State = "empty_deck"
)

// Terminal reports whether no further transition is possible without a new
// Controller (LoadError, EmptyDeck) or a Reset (Completed).
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateLoadError, StateEmptyDeck:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
