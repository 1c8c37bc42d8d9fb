package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate cuts s to at most maxLen bytes and appends "...". The cut backs up
// to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Preview collapses whitespace runs to single spaces and truncates the result,
// for one line log attributes.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
