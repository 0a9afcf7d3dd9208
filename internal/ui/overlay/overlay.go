// Package overlay draws one block of styled text over another.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Place draws box over base with its top-left corner at (row, col), both
// zero-based cells. Base lines are padded to width so the box never shifts
// left. Box lines past the end of base are dropped. ANSI styles of both
// sides are kept.
func Place(base, box string, row, col, width int) string {
	baseLines := strings.Split(base, "\n")

	for i, boxLine := range strings.Split(box, "\n") {
		target := row + i
		if target < 0 || target >= len(baseLines) {
			continue
		}

		boxWidth := ansi.StringWidth(boxLine)
		if boxWidth == 0 {
			continue
		}
		end := col + boxWidth

		line := baseLines[target]
		if w := ansi.StringWidth(line); w < max(width, end) {
			line += strings.Repeat(" ", max(width, end)-w)
		}

		baseLines[target] = ansi.Cut(line, 0, col) + boxLine + ansi.Cut(line, end, ansi.StringWidth(line))
	}

	return strings.Join(baseLines, "\n")
}
