package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the card colors used when the cover art gives no palette.
type Theme struct {
	Primary   lipgloss.Color // title gradient start, border
	Secondary lipgloss.Color // title gradient end

	FgBase   lipgloss.Color // artist
	FgMuted  lipgloss.Color // release, prompts
	FgSubtle lipgloss.Color // details, key hints
	Border   lipgloss.Color
	Live     lipgloss.Color // listening now badge

	styles func() *Styles
}

// Styles are the text styles of the card, derived from a Theme.
type Styles struct {
	Base, Muted, Subtle lipgloss.Style
	Title               lipgloss.Style
	Live                lipgloss.Style
}

var defaultTheme = newTheme(Theme{
	Primary:   "#a78bfa",
	Secondary: "#f1a208",
	FgBase:    "#c0c0c0",
	FgMuted:   "#808080",
	FgSubtle:  "#585858",
	Border:    "#585858",
	Live:      "#42b883",
})

func newTheme(t Theme) *Theme {
	t.styles = sync.OnceValue(func() *Styles {
		fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
		return &Styles{
			Base:   fg(t.FgBase),
			Muted:  fg(t.FgMuted),
			Subtle: fg(t.FgSubtle),
			Title:  fg(t.FgBase).Bold(true),
			Live:   fg(t.Live).Bold(true),
		}
	})
	return &t
}

// T returns the default theme.
func T() *Theme { return defaultTheme }

// S returns the styles of the theme, built on first use.
func (t *Theme) S() *Styles { return t.styles() }
