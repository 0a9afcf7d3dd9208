package nowplaying

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/nowplaying/internal/keymap"
	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/players"
	"github.com/llehouerou/nowplaying/internal/ui/overlay"
	"github.com/llehouerou/nowplaying/internal/ui/render"
	"github.com/llehouerou/nowplaying/internal/ui/styles"
)

const (
	minCardWidth = 40
	maxCardWidth = 90
	artGap       = 2
)

// View renders the card.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	accent, secondary := m.colors()
	cardWidth := min(max(m.width-2, minCardWidth), maxCardWidth)
	innerWidth := cardWidth - 4 // border and padding

	body := m.renderBody(innerWidth, accent, secondary)
	card := styles.CardStyle(accent).Width(cardWidth - 2).Render(body)

	view := card + "\n" + m.renderFooter(cardWidth)

	if m.showHelp {
		help := m.renderHelp()
		view = padLines(view, lipgloss.Height(help)+1)
		// Right of the cover art, below the top border.
		view = overlay.Place(view, help, 1, artWidth+4, max(m.width, cardWidth))
	}

	// Image transmission travels with the view; the renderer only rewrites
	// changed lines, so it reaches the terminal when the image changes.
	if m.artCmd != "" {
		view = m.artCmd + view
	}
	if m.artVisible() {
		// Inside the card: top border, left border and padding.
		view += m.art.PlacementCmd(2, 3)
	}
	return view
}

func (m Model) artVisible() bool {
	return m.showArt && m.state.IsListeningNow() && m.art.HasImage()
}

// colors returns the title gradient colors, from the cover palette when
// there is one.
func (m Model) colors() (accent, secondary lipgloss.Color) {
	t := styles.T()
	p := m.state.Palette
	if p == nil {
		return t.Primary, t.Secondary
	}
	return styles.Color(p.Accent().Color), styles.Color(p.Dominant.Color)
}

func (m Model) renderBody(width int, accent, secondary lipgloss.Color) string {
	s := styles.T().S()

	if m.username == "" {
		return s.Muted.Render("No ListenBrainz user. Press u to pick one.")
	}
	if !m.state.IsListeningNow() {
		return s.Title.Render(m.username) + "\n" +
			s.Muted.Render("is not listening to anything right now.")
	}

	infoWidth := width
	showArt := m.showArt && m.art.Enabled()
	if showArt {
		artW, _ := m.art.Size()
		infoWidth = width - artW - artGap
	}

	info := m.renderInfo(m.state.Song, infoWidth, accent, secondary)
	if !showArt {
		return info
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.art.Placeholder(),
		strings.Repeat(" ", artGap),
		info,
	)
}

func (m Model) renderInfo(song *listenbrainz.Listen, width int, accent, secondary lipgloss.Color) string {
	s := styles.T().S()
	meta := song.TrackMetadata

	header := s.Live.Render("● LISTENING NOW") + s.Subtle.Render(" · "+m.username)

	title := styles.Gradient(render.TruncateEllipsis(meta.TrackName, width), accent, secondary, true)
	lines := []string{header, "", title}

	if meta.ArtistName != "" {
		lines = append(lines, s.Base.Render(render.Truncate(meta.ArtistName, width)))
	}
	if meta.ReleaseName != "" {
		lines = append(lines, s.Muted.Render(render.Truncate(meta.ReleaseName, width)))
	}
	lines = append(lines, "")

	now := m.now()
	if ms, ok := song.DurationMs(); ok && !m.since.IsZero() {
		duration := time.Duration(ms) * time.Millisecond
		fill := lipgloss.NewStyle().Foreground(accent)
		lines = append(lines, renderProgress(now.Sub(m.since), duration, width, fill))
	}

	var details []string
	if !m.since.IsZero() {
		details = append(details, "started "+humanize.RelTime(m.since, now, "ago", "from now"))
	}
	if player := mediaPlayer(song); player != "" {
		details = append(details, "on "+player)
	}
	if len(details) > 0 {
		lines = append(lines, s.Subtle.Render(render.Truncate(strings.Join(details, " · "), width)))
	}

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// mediaPlayer returns the short player name a listen was submitted from.
func mediaPlayer(song *listenbrainz.Listen) string {
	info := song.TrackMetadata.AdditionalInfo
	if info == nil || info.MediaPlayer == "" {
		return ""
	}
	return players.ShortName(info.MediaPlayer)
}

func (m Model) renderFooter(width int) string {
	if m.editing {
		return " " + m.input.View()
	}

	s := styles.T().S()
	hints := []string{}
	for _, b := range keymap.ByContext(keymap.ContextCard) {
		if b.Action == keymap.ActionToggleArt && !m.art.Enabled() {
			continue
		}
		hints = append(hints, b.Keys[0]+" "+strings.ToLower(b.Description))
	}
	return s.Subtle.Render(render.Truncate(" "+strings.Join(hints, " · "), width))
}

func (m Model) renderHelp() string {
	s := styles.T().S()
	var rows []string
	for _, b := range keymap.ByContext(keymap.ContextCard) {
		keys := render.Pad(strings.Join(b.Keys, ", "), 10)
		rows = append(rows, s.Title.Render(keys)+" "+s.Muted.Render(b.Description))
	}
	return styles.CardStyle(styles.T().Primary).Render(strings.Join(rows, "\n"))
}

// padLines appends empty lines until view has at least n lines.
func padLines(view string, n int) string {
	if missing := n - lipgloss.Height(view); missing > 0 {
		view += strings.Repeat("\n", missing)
	}
	return view
}
