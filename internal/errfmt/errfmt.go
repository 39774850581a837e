// Package errfmt bounds agent-supplied text before it reaches logs.
package errfmt

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// MaxLen caps agent text to prevent unbounded log lines.
const MaxLen = 4096

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a string at MaxLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxLen)
}

// ForLog bounds s and quotes it when it carries control characters, so a
// misbehaving agent cannot forge log records.
func ForLog(s string) string {
	s = Truncate(s)
	for _, r := range s {
		if unicode.IsControl(r) {
			return strconv.Quote(s)
		}
	}
	return s
}
