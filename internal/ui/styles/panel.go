package styles

import "github.com/charmbracelet/lipgloss"

var cardStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	Padding(0, 1)

// CardStyle returns the bordered card style, with the border in accent or
// the theme border color when accent is empty.
func CardStyle(accent lipgloss.Color) lipgloss.Style {
	if accent == "" {
		accent = T().Border
	}
	return cardStyle.BorderForeground(accent)
}
