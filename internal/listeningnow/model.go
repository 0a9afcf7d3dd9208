package listeningnow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/palette"
)

// Fetcher returns the user's current playing-now listen, or nil.
type Fetcher interface {
	GetPlayingNow(ctx context.Context, username string) (*listenbrainz.Listen, error)
}

// Stream pushes playing-now listens for a user until ctx is done.
type Stream interface {
	Listen(ctx context.Context, username string) <-chan *listenbrainz.Listen
}

// PaletteLoader computes a palette for an artwork URL.
type PaletteLoader interface {
	Load(ctx context.Context, url string) (*palette.Palette, error)
}

// dismissJob is the single pending clear action.
type dismissJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Model owns the card state. Run (or Follow) is the only writer of the song;
// UpdatePalette may run concurrently.
type Model struct {
	fetcher  Fetcher
	stream   Stream
	palettes PaletteLoader
	logger   zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}

	// owned by the goroutine running Run
	dismiss *dismissJob
}

// New creates a model. stream and palettes may be nil.
func New(fetcher Fetcher, stream Stream, palettes PaletteLoader, logger zerolog.Logger) *Model {
	return &Model{
		fetcher:  fetcher,
		stream:   stream,
		palettes: palettes,
		logger:   logger,
		now:      time.Now,
		subs:     make(map[chan State]struct{}),
	}
}

// Current returns the latest state.
func (m *Model) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel that always holds the latest state; stale
// values are replaced rather than queued. The current state is delivered
// immediately. Call the returned function to unsubscribe.
func (m *Model) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	ch <- m.state
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
	}
}

// setLocked replaces the state and notifies subscribers. m.mu must be held.
func (m *Model) setLocked(s State) {
	m.state = s
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (m *Model) set(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(s)
}

// Run fetches the playing-now listen for username, then follows the push
// stream until ctx is done. Fetch failures keep the previous state.
func (m *Model) Run(ctx context.Context, username string) error {
	defer m.stopDismiss()

	logger := m.logger.With().Str("user", username).Logger()
	fetched := m.fetch(ctx, logger, username)

	if m.stream == nil {
		<-ctx.Done()
		return nil
	}

	listens := m.stream.Listen(ctx, username)
	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-listens:
			if !ok {
				return nil
			}
			// The first push repeats the fetched listen when the stream
			// starts from an empty history.
			if fetched != nil {
				same := l != nil && l.Key() == fetched.Key()
				fetched = nil
				if same {
					continue
				}
			}
			logger.Debug().Str("track", l.TrackMetadata.TrackName).Msg("pushed listen")
			m.update(ctx, l)
		}
	}
}

// Follow runs the model for each username received, stopping the previous
// run first. An empty username clears the card.
func (m *Model) Follow(ctx context.Context, usernames <-chan string) error {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	stop := func() {
		if cancel != nil {
			cancel()
			<-done
			cancel = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case username, ok := <-usernames:
			if !ok {
				return nil
			}
			stop()
			if username == "" {
				m.set(State{})
				continue
			}

			cancel, done = m.start(ctx, username)
		}
	}
}

// start runs the model for username until the returned cancel is called.
// done is closed once Run has returned.
func (m *Model) start(ctx context.Context, username string) (context.CancelFunc, chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx, username)
	}()
	return cancel, done
}

// fetch shows the playing-now listen for username and returns it.
func (m *Model) fetch(ctx context.Context, logger zerolog.Logger, username string) *listenbrainz.Listen {
	l, err := m.fetcher.GetPlayingNow(ctx, username)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn().Err(err).Msg("fetch playing now")
		}
		return nil
	}
	if l == nil {
		logger.Debug().Msg("nothing playing")
		m.set(State{})
		return nil
	}
	m.update(ctx, l)
	return l
}

// update shows l and restarts the dismissal timer. A nil listen clears the
// card.
func (m *Model) update(ctx context.Context, l *listenbrainz.Listen) {
	if l == nil {
		m.set(State{})
		return
	}
	m.set(State{
		Song:     l,
		ImageURL: listenbrainz.CoverArtURL(l, CoverSize),
	})
	m.restartDismiss(ctx, l)
}

func (m *Model) stopDismiss() {
	if m.dismiss == nil {
		return
	}
	m.dismiss.cancel()
	<-m.dismiss.done
	m.dismiss = nil
}

func (m *Model) restartDismiss(ctx context.Context, song *listenbrainz.Listen) {
	m.stopDismiss()

	delay := DismissDelay(song, m.now())
	jobCtx, cancel := context.WithCancel(ctx)
	job := &dismissJob{cancel: cancel, done: make(chan struct{})}
	m.dismiss = job

	go func() {
		defer close(job.done)
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-jobCtx.Done():
			return
		case <-timer.C:
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state.Song == song {
			m.logger.Debug().Str("track", song.TrackMetadata.TrackName).Msg("listening now expired")
			m.setLocked(State{})
		}
	}()
}

// UpdatePalette computes the palette of the current artwork. Failures are
// logged and leave the palette empty.
func (m *Model) UpdatePalette(ctx context.Context) {
	url := m.Current().ImageURL
	if url == "" || m.palettes == nil {
		return
	}

	p, err := m.palettes.Load(ctx, url)
	if err != nil {
		m.logger.Debug().Err(err).Str("url", url).Msg("load artwork palette")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.ImageURL != url {
		return
	}
	s := m.state
	s.Palette = p
	m.setLocked(s)
}
