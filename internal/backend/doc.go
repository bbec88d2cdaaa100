// Package backend is a typed HTTP client for the Synth REST API.
//
// The API owns decks, cards, grading, progress checkpoints and subscriptions.
// This package only moves JSON across the wire: every call takes a
// context.Context, attaches the bearer token from a TokenSource, and turns
// non-2xx responses into *APIError values that match the package's sentinel
// errors under errors.Is.
//
// Calls that trigger AI work on the backend (answer grading and deck
// generation) are not bounded by the client's request timeout; their callers
// own the deadline through the context they pass in.
package backend
