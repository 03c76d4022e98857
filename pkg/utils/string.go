// Package utils provides common utility functions.
package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated strings.
const Ellipsis = "..."

// NormalizeWhitespace replaces runs of whitespace with a single space and trims the result.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString cuts str to at most maxWidth display cells, appending Ellipsis
// when anything was removed. Wide runes count as two cells.
func TruncateString(str string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(str) <= maxWidth {
		return str
	}

	return runewidth.Truncate(str, maxWidth, Ellipsis)
}

// Prefix returns at most n runes of str, for diagnostics.
func Prefix(str string, n int) string {
	runes := []rune(str)
	if len(runes) <= n {
		return str
	}

	return string(runes[:n])
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
