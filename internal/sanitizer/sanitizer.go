// Package sanitizer neutralizes user-supplied form text before it is
// validated, mailed, or written to any durable record.
package sanitizer

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// entityReplacer encodes characters with special meaning in HTML output.
// The replacement set and entities match the original form handler so
// stored and relayed text stays byte-identical across both systems.
var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// strictPolicy strips all markup; used for log-safe rendering only
var strictPolicy = bluemonday.StrictPolicy()

// Sanitize normalizes a raw form field: trims surrounding whitespace,
// removes backslash-escaping artifacts and HTML-entity-encodes the
// characters & < > " '. Absent input sanitizes to the empty string.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripSlashes(s)
	return entityReplacer.Replace(s)
}

// stripSlashes removes one level of backslash escaping: \' becomes ',
// \\ becomes \, and a lone trailing backslash is dropped.
func stripSlashes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LogSafe renders user-supplied text safe for inclusion in a single log
// line: control characters are removed so a value cannot inject extra
// log records, runs of whitespace collapse to a single space, and any
// markup is stripped. Control characters go first; the HTML parser
// behind the policy would otherwise substitute them.
func LogSafe(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(strictPolicy.Sanitize(b.String()))
}
