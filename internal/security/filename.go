// Package security provides filename hygiene for artifact writers.
package security

import "strings"

// SanitizeFilename makes a safe filename component from an arbitrary
// identifier. Characters other than ASCII letters, digits, dot,
// underscore or dash become underscores, runs of replacement
// underscores collapse, and the result is trimmed of leading and
// trailing separators and capped to a reasonable length. Capture
// identifiers sliced from arbitrary file names pass through unchanged
// when already clean.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
