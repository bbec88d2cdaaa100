// Package redact removes credentials and personal data from strings before
// they are logged or returned in error responses. Backend error bodies and
// transport errors routinely carry bearer tokens, emails, and backend hostnames;
// everything leaving the gateway or landing in a log line passes through here.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: bearer and JWT rules must run before the generic key rule
// so the token itself is reported as a JWT.
var rules = []rule{
	{
		// Three-part base64url JWT
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		// Opaque bearer tokens that are not JWTs
		regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-.~+/=]{8,}`),
		"${1}" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)"?(password|passwd|pwd)"?\s*[=:]\s*"?[^"&\s,}]{3,}"?`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(
			`(?i)(api[_-]?key|token|secret|access[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
		),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},
	{
		// URLs and host:port pairs. Catches backend addresses in dial errors.
		regexp.MustCompile(`(?i)\bhttps?://[^\s"']+`),
		RedactedHostPlaceholder,
	},
	{
		regexp.MustCompile(
			`\b(?:localhost|(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}):\d{1,5}\b`,
		),
		RedactedHostPlaceholder,
	},
	{
		regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d{1,5})?\b`),
		RedactedHostPlaceholder,
	},
	{
		// Local credential files and upload paths
		regexp.MustCompile(`/(?:home|Users|root|tmp|var|etc|private)(?:/[\w.-]+)+`),
		RedactedPathPlaceholder,
	},
	{
		regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(?:\\[^\\\s]+)+`),
		RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
