// Package study drives one learner through one pass over a deck's cards.
//
// A Controller loads the deck's cards and any saved checkpoint, lets the
// caller resume or restart, sequences question, answer and graded result for
// each card, writes a progress checkpoint after every card, and computes the
// end-of-session summary. Grading, card storage and checkpoint persistence
// belong to the remote backend; the Controller reaches them only through the
// Backend interface.
//
// State machine:
//
//	Initializing -> AwaitingResumeDecision | Answering | EmptyDeck | LoadError
//	AwaitingResumeDecision -> Answering | Completed
//	Answering -> ShowingResult   (successful grading)
//	ShowingResult -> Answering | Completed
//	Completed -> Initializing    (Reset)
//
// At most one backend call is in flight per Controller. Checkpoint writes are
// best effort: a failed write is logged and the transition proceeds.
package study
