// Package api is the study gateway's HTTP surface. It authenticates
// browser requests, forwards deck, dashboard and subscription calls to the
// backend on the caller's behalf, and hosts study session controllers
// server-side so thin web views can drive them over JSON.
package api
