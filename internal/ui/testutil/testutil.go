// Package testutil provides helpers for testing bubbletea models.
package testutil

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes every escape sequence from s, including kitty graphics
// commands, leaving only printable text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// FindLine returns the first line of output containing substr, with escape
// sequences removed, or "".
func FindLine(output, substr string) string {
	for line := range strings.SplitSeq(StripANSI(output), "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

// MaxWidth returns the widest rendered line of output in cells.
func MaxWidth(output string) int {
	widest := 0
	for line := range strings.SplitSeq(output, "\n") {
		widest = max(widest, ansi.StringWidth(line))
	}
	return widest
}
