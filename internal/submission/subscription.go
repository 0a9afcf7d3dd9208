package submission

import "github.com/llehouerou/nowplaying/internal/track"

const eventBufferSize = 16

// NowPlayingEvent is emitted when a new listen starts playing.
type NowPlayingEvent struct {
	Track  track.PlayingTrack
	ArtURL string
}

// SubmittedEvent is emitted once per service after a listen is delivered or
// queued. Err is nil on delivery.
type SubmittedEvent struct {
	Service string
	Track   track.PlayingTrack
	Err     error
}

// Subscription provides event channels for a subscriber.
type Subscription struct {
	NowPlaying <-chan NowPlayingEvent
	Submitted  <-chan SubmittedEvent
	Done       <-chan struct{}

	nowPlayingCh chan NowPlayingEvent
	submittedCh  chan SubmittedEvent
	doneCh       chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		nowPlayingCh: make(chan NowPlayingEvent, eventBufferSize),
		submittedCh:  make(chan SubmittedEvent, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.NowPlaying = s.nowPlayingCh
	s.Submitted = s.submittedCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// sendNowPlaying drops the event if the buffer is full.
func (s *Subscription) sendNowPlaying(e NowPlayingEvent) {
	select {
	case s.nowPlayingCh <- e:
	default:
	}
}

func (s *Subscription) sendSubmitted(e SubmittedEvent) {
	select {
	case s.submittedCh <- e:
	default:
	}
}
