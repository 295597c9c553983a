package redact

import (
	"regexp"
	"strings"
)

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)("?(?:x-goog-)?api[_-]?key"?\s*[:=]\s*"?)([^\n\r,;"&]+)`)
	skKeyRE       = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`)
)

// Secrets strips the given keys and anything that looks like a credential.
func Secrets(s string, keys ...string) string {
	if s == "" {
		return s
	}
	out := s
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			out = strings.ReplaceAll(out, k, "[REDACTED]")
		}
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = skKeyRE.ReplaceAllString(out, "[REDACTED]")
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Tail keeps the last n runes of s, marking the cut with "...". Tools print
// the actual failure at the end of their output.
func Tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n:])
}

// Body prepares an upstream response body for error text.
func Body(b []byte, keys ...string) string {
	return Truncate(Secrets(strings.TrimSpace(string(b)), keys...), 400)
}
