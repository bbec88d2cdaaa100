// Package appctx holds the authenticated state of one running application.
//
// A *Context is built once at startup and passed to every component that
// needs to know who is logged in. It is the only place a token is cached:
// Logout clears both the in-memory user and the persisted credentials.
package appctx
