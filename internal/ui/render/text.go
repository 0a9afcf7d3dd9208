// Package render provides text helpers for metadata shown in the terminal.
package render

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// Sanitize drops control characters and invalid UTF-8 from player and
// server metadata. Tabs are kept and non-breaking spaces become spaces.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return r
		case r == '\u00a0':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

// Truncate sanitizes s and cuts it to maxWidth cells with a "..." tail.
func Truncate(s string, maxWidth int) string {
	return runewidth.Truncate(Sanitize(s), maxWidth, "...")
}

// TruncateEllipsis is Truncate with a one-cell "…" tail.
func TruncateEllipsis(s string, maxWidth int) string {
	return runewidth.Truncate(Sanitize(s), maxWidth, "…")
}

// Pad right-fills s with spaces up to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
