// Package sanitize provides identifier sanitization and name folding for
// the dataset store.
//
// Project names double as storage keys (filename stems), so they are
// restricted to a safe charset. Category names are compared case
// insensitively through one folding function; chunk ids are deliberately
// case sensitive and never folded.
package sanitize

import "strings"

// MaxProjectNameLength bounds sanitized project names so they stay usable
// as filename stems on every platform.
const MaxProjectNameLength = 128

// ProjectName reduces s to the safe charset: letters, digits, '_', '-',
// '.', and space. Runs of whitespace collapse to a single space and the
// result is trimmed. An empty result means the input was unusable.
func ProjectName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	name := strings.TrimSpace(b.String())
	if len(name) > MaxProjectNameLength {
		name = strings.TrimSpace(name[:MaxProjectNameLength])
	}
	return name
}

// FoldName normalizes a category name for uniqueness comparison. This is
// the single case-folding point: trim, then lowercase.
func FoldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
