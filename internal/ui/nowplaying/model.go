// Package nowplaying is the terminal card of `nowplaying watch`: what a
// ListenBrainz user is listening to right now, with cover art and colors
// taken from it.
package nowplaying

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/keymap"
	"github.com/llehouerou/nowplaying/internal/listeningnow"
	"github.com/llehouerou/nowplaying/internal/ui/albumart"
)

// Source is the card state owner.
type Source interface {
	Subscribe() (<-chan listeningnow.State, func())
	UpdatePalette(ctx context.Context)
}

// ImageLoader fetches decoded artwork.
type ImageLoader interface {
	Image(ctx context.Context, url string) (image.Image, error)
}

// Art cell size; cells are about twice as tall as wide.
const (
	artWidth  = 20
	artHeight = 10
)

// Options configures the card.
type Options struct {
	Source    Source
	Images    ImageLoader       // nil disables cover art
	Protocol  albumart.Protocol // nil disables cover art
	Usernames chan<- string     // consumed by listeningnow.Model.Follow
	Username  string
	Logger    zerolog.Logger
}

type (
	stateMsg listeningnow.State
	artMsg   struct {
		url string
		img image.Image
		err error
	}
	tickMsg time.Time
)

// Model is the bubbletea model of the card.
type Model struct {
	ctx         context.Context
	source      Source
	images      ImageLoader
	states      <-chan listeningnow.State
	unsubscribe func()
	usernames   chan<- string
	logger      zerolog.Logger
	now         func() time.Time

	cardKeys  *keymap.Resolver
	inputKeys *keymap.Resolver

	art     *albumart.Renderer
	artURL  string // artwork requested for the current song
	artCmd  string // terminal commands for the current image
	showArt bool

	username string
	state    listeningnow.State
	since    time.Time // when the current song started, best known
	input    textinput.Model
	editing  bool
	showHelp bool

	width  int
	height int
}

// New creates the card and subscribes to the source. Call Close when the
// program exits.
func New(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "ListenBrainz user..."
	ti.Prompt = "watch user: "
	ti.CharLimit = 64
	ti.Width = 32

	states, unsubscribe := opts.Source.Subscribe()

	protocol := opts.Protocol
	if opts.Images == nil {
		protocol = nil
	}
	art := albumart.New(protocol)
	art.SetSize(artWidth, artHeight)

	return Model{
		ctx:         ctx,
		source:      opts.Source,
		images:      opts.Images,
		states:      states,
		unsubscribe: unsubscribe,
		usernames:   opts.Usernames,
		logger:      opts.Logger,
		now:         time.Now,
		cardKeys:    keymap.ForContext(keymap.ContextCard),
		inputKeys:   keymap.ForContext(keymap.ContextInput),
		art:         art,
		showArt:     art.Enabled(),
		username:    opts.Username,
		input:       ti,
	}
}

// Close stops the state subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts following the initial user.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForState(), tick()}
	if m.username != "" {
		cmds = append(cmds, m.follow(m.username))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateMsg:
		cmd := m.applyState(listeningnow.State(msg))
		return m, tea.Batch(cmd, m.waitForState())

	case artMsg:
		return m, m.applyArt(msg)

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		if m.editing {
			return m, m.handleInputKey(msg)
		}
		return m, m.handleCardKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleCardKey(msg tea.KeyMsg) tea.Cmd {
	switch m.cardKeys.Resolve(msg) {
	case keymap.ActionQuit:
		return tea.Quit
	case keymap.ActionChangeUser:
		m.editing = true
		m.showHelp = false
		m.input.SetValue(m.username)
		m.input.CursorEnd()
		return m.input.Focus()
	case keymap.ActionRefresh:
		if m.username == "" {
			return nil
		}
		return m.follow(m.username)
	case keymap.ActionToggleArt:
		if !m.art.Enabled() {
			return nil
		}
		m.showArt = !m.showArt
		if !m.showArt {
			m.artCmd = m.art.Clear()
			m.artURL = ""
			return nil
		}
		return m.requestArt()
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch m.inputKeys.Resolve(msg) {
	case keymap.ActionConfirm:
		m.editing = false
		m.input.Blur()
		m.username = strings.TrimSpace(m.input.Value())
		return m.follow(m.username)
	case keymap.ActionCancel:
		m.editing = false
		m.input.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// applyState shows s and starts loading artwork for a new cover.
func (m *Model) applyState(s listeningnow.State) tea.Cmd {
	prev := m.state
	m.state = s

	if !s.IsListeningNow() {
		m.since = time.Time{}
		m.artURL = ""
		if m.art.HasImage() {
			m.artCmd = m.art.Clear()
		}
		return nil
	}

	if prev.Song != s.Song {
		m.since = m.now()
		if s.Song.ListenedAt != nil {
			m.since = time.Unix(*s.Song.ListenedAt, 0)
		}
	}

	if s.ImageURL == m.artURL {
		return nil
	}
	m.artURL = s.ImageURL
	if s.ImageURL == "" {
		if m.art.HasImage() {
			m.artCmd = m.art.Clear()
		}
		return nil
	}
	return m.requestArt()
}

// requestArt loads the current artwork, then the palette. The palette
// loader shares the image cache, so the cover is fetched once.
func (m *Model) requestArt() tea.Cmd {
	url := m.state.ImageURL
	if url == "" {
		return nil
	}
	m.artURL = url
	if !m.showArt {
		return m.updatePalette()
	}

	ctx, images := m.ctx, m.images
	return func() tea.Msg {
		img, err := images.Image(ctx, url)
		return artMsg{url: url, img: img, err: err}
	}
}

func (m *Model) applyArt(msg artMsg) tea.Cmd {
	if msg.url != m.state.ImageURL {
		return nil
	}
	if msg.err != nil {
		m.logger.Debug().Err(msg.err).Str("url", msg.url).Msg("load cover art")
		if m.art.HasImage() {
			m.artCmd = m.art.Clear()
		}
	} else if cmd := m.art.Prepare(msg.url, msg.img); cmd != "" {
		m.artCmd = cmd
	}
	return m.updatePalette()
}

func (m *Model) updatePalette() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		source.UpdatePalette(ctx)
		return nil
	}
}

func (m *Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		s, ok := <-states
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

// follow hands username to the model runner.
func (m *Model) follow(username string) tea.Cmd {
	ctx, usernames := m.ctx, m.usernames
	return func() tea.Msg {
		select {
		case usernames <- username:
		case <-ctx.Done():
		}
		return nil
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
