// Package auth reads the JWTs issued by the Synth backend.
//
// The backend signs its tokens with a key this repository never sees, so
// nothing here verifies signatures. The backend remains the authority on
// every request; the claims are read only to show who is logged in, to key
// gateway sessions by their owner, and to notice an expired token before a
// request is wasted on it.
package auth
