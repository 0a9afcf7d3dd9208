package nowplaying

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// renderProgress renders a block-style progress bar.
// Format: 1:23  ▓▓▓▓▓░░░░░  4:56
func renderProgress(position, duration time.Duration, width int, fill lipgloss.Style) string {
	position = min(max(position, 0), duration)

	posStr := formatDuration(position)
	durStr := formatDuration(duration)

	fixedWidth := lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	bar := fill.Render(strings.Repeat(filledBlock, filled)) + strings.Repeat(emptyBlock, barWidth-filled)

	return posStr + "  " + bar + "  " + durStr
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
