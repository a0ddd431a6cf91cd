package utils

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Truncate cuts s to maxLen display cells and appends an ellipsis. Multi-byte
// runes and ANSI sequences are never split.
func Truncate(s string, maxLen int) string {
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen, "") + "..."
}

// SingleLine collapses newlines and tabs into spaces for one-line previews.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
