package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Color converts a colorful color to a lipgloss hex color.
func Color(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}

// ParseColor reads a "#rrggbb" lipgloss color. ANSI palette indexes have no
// fixed RGB value and come back as mid grey.
func ParseColor(c lipgloss.Color) colorful.Color {
	if col, err := colorful.Hex(string(c)); err == nil {
		return col
	}
	return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
}

// Gradient renders text with its foreground blended from one color to the
// other, one grapheme at a time.
func Gradient(text string, from, to lipgloss.Color, bold bool) string {
	var clusters []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	base := lipgloss.NewStyle().Bold(bold)
	switch len(clusters) {
	case 0:
		return ""
	case 1:
		return base.Foreground(from).Render(text)
	}

	var b strings.Builder
	for i, c := range gradientColors(len(clusters), from, to) {
		b.WriteString(base.Foreground(c).Render(clusters[i]))
	}
	return b.String()
}

// gradientColors returns n colors from one end to the other, blended in HCL
// so the middle does not turn muddy.
func gradientColors(n int, from, to lipgloss.Color) []lipgloss.Color {
	if n < 2 {
		return []lipgloss.Color{from}
	}
	c1, c2 := ParseColor(from), ParseColor(to)
	out := make([]lipgloss.Color, n)
	for i := range out {
		out[i] = Color(c1.BlendHcl(c2, float64(i)/float64(n-1)))
	}
	return out
}
