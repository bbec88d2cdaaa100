// Package domain contains the entities exchanged with the Synth backend:
// cards, graded study sessions, progress checkpoints, deck summaries,
// users and subscription tiers. The backend owns all of them; the client
// holds transient copies only.
//
// The package also carries the presentation constants the study flow and
// dashboard agree on (pass threshold, score bands, mastery levels) so that
// the terminal client and the gateway render the same buckets.
package domain
