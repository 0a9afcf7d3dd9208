package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/track"
)

// DefaultSubmitTimeout bounds one delivery attempt to one service.
const DefaultSubmitTimeout = 30 * time.Second

// ErrStopped is returned by Observe once the tracker has stopped.
var ErrStopped = errors.New("tracker stopped")

// Options configures a Tracker. Only Submitters is required.
type Options struct {
	Submitters []Submitter
	Queue      Queue
	Gate       Gate
	// Enrich may fill gaps in player metadata, e.g. from local file tags.
	Enrich        func(track.Metadata) track.Metadata
	Logger        zerolog.Logger
	SubmitTimeout time.Duration
}

// Snapshot is the tracker's view of the current listen.
type Snapshot struct {
	Track  track.PlayingTrack
	Status track.Status
	Played time.Duration
}

// Tracker owns the current listen. All decisions happen on the goroutine
// running Run; other goroutines talk to it through Observe.
type Tracker struct {
	opts Options
	in   chan track.Observation
	done chan struct{}
	now  func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	subsMu sync.RWMutex
	subs   []*Subscription

	// in-flight deliveries
	wg sync.WaitGroup
}

// NewTracker creates a tracker. Call Run to start it.
func NewTracker(opts Options) *Tracker {
	if opts.Gate == nil {
		opts.Gate = allowAll{}
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Tracker{
		opts: opts,
		in:   make(chan track.Observation),
		done: make(chan struct{}),
		now:  time.Now,
		snap: Snapshot{Track: track.Nothing()},
	}
}

// Observe hands an observation to the tracker.
func (t *Tracker) Observe(ctx context.Context, obs track.Observation) error {
	select {
	case t.in <- obs:
		return nil
	case <-t.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the latest snapshot.
func (t *Tracker) Current() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Subscribe returns a subscription that is closed when Run returns.
func (t *Tracker) Subscribe() *Subscription {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	sub := newSubscription()
	select {
	case <-t.done:
		sub.close()
	default:
		t.subs = append(t.subs, sub)
	}
	return sub
}

// playState is owned by the Run goroutine.
type playState struct {
	current track.PlayingTrack
	status  track.Status
	played  time.Duration // play time before resumed
	resumed time.Time
	artURL  string
}

func (ps *playState) playedAt(now time.Time) time.Duration {
	if ps.status != track.StatusPlaying {
		return ps.played
	}
	return ps.played + now.Sub(ps.resumed)
}

func (ps *playState) pause(now time.Time, status track.Status) {
	ps.played = ps.playedAt(now)
	ps.status = status
}

func (ps *playState) resume(now time.Time) {
	if ps.status == track.StatusPlaying {
		return
	}
	ps.status = track.StatusPlaying
	ps.resumed = now
}

// Run processes observations until ctx is done. It waits for in-flight
// deliveries before returning.
func (t *Tracker) Run(ctx context.Context) error {
	defer t.closeSubscriptions()
	defer t.wg.Wait()
	defer close(t.done)

	ps := playState{current: track.Nothing(), status: track.StatusStopped}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case obs := <-t.in:
			t.handle(ctx, &ps, obs)
		case <-fire:
			t.checkThreshold(ctx, &ps)
		}
		t.publish(&ps)
		fire = t.rearm(&ps, timer)
	}
}

func (t *Tracker) handle(ctx context.Context, ps *playState, obs track.Observation) {
	now := t.now()
	if obs.At.IsZero() {
		obs.At = now
	}
	if t.opts.Enrich != nil {
		obs.Metadata = t.opts.Enrich(obs.Metadata)
	}
	next := obs.Track()
	fromCurrent := obs.Source == ps.current.Source

	if obs.Status != track.StatusPlaying || next.IsNothing() {
		if !fromCurrent {
			return
		}
		if ps.current.SimilarToMetadata(obs.Metadata) {
			ps.current = ps.current.Merge(next)
		}
		status := obs.Status
		if status == track.StatusPlaying {
			status = track.StatusStopped
		}
		ps.pause(now, status)
		return
	}

	if !t.opts.Gate.Allowed(ctx, obs.Source) {
		if fromCurrent {
			ps.pause(now, track.StatusStopped)
		}
		return
	}

	if !ps.current.IsOutdated(next) {
		ps.current = ps.current.Merge(next)
		ps.resume(now)
		return
	}

	if !ps.current.IsNothing() && !ps.current.Submitted {
		t.opts.Logger.Debug().
			Str("track", ps.current.ID()).
			Dur("played", ps.playedAt(now)).
			Msg("replaced before threshold")
	}
	*ps = playState{current: next, status: track.StatusPlaying, resumed: now, artURL: obs.Metadata.ArtURL}
	t.sendNowPlaying(ctx, ps)
}

func (t *Tracker) checkThreshold(ctx context.Context, ps *playState) {
	if ps.current.Submitted || ps.current.IsNothing() {
		return
	}
	threshold, ok := Threshold(ps.current)
	if !ok || ps.playedAt(t.now()) < threshold {
		return
	}
	t.submit(ctx, ps)
}

// rearm schedules the next threshold check, or returns nil if none is due.
func (t *Tracker) rearm(ps *playState, timer *time.Timer) <-chan time.Time {
	timer.Stop()
	if ps.status != track.StatusPlaying || ps.current.Submitted || ps.current.IsNothing() {
		return nil
	}
	threshold, ok := Threshold(ps.current)
	if !ok {
		return nil
	}
	timer.Reset(max(threshold-ps.playedAt(t.now()), 0))
	return timer.C
}

func (t *Tracker) publish(ps *playState) {
	t.mu.Lock()
	t.snap = Snapshot{
		Track:  ps.current,
		Status: ps.status,
		Played: ps.playedAt(t.now()),
	}
	t.mu.Unlock()
}

func (t *Tracker) sendNowPlaying(ctx context.Context, ps *playState) {
	ps.current.PlayingNowSubmitted = true
	listen := ps.current
	artURL := ps.artURL
	// Subscribers read Current when an event arrives.
	t.publish(ps)

	t.opts.Logger.Info().
		Str("artist", listen.Artist).
		Str("title", listen.Title).
		Str("source", listen.Source).
		Msg("now playing")
	t.forEachSub(func(s *Subscription) { s.sendNowPlaying(NowPlayingEvent{Track: listen, ArtURL: artURL}) })

	for _, s := range t.opts.Submitters {
		t.deliver(ctx, func(ctx context.Context) {
			if err := s.NowPlaying(ctx, listen); err != nil {
				t.opts.Logger.Warn().Err(err).Str("service", s.Name()).Msg("playing now")
			}
		})
	}
}

func (t *Tracker) submit(ctx context.Context, ps *playState) {
	ps.current.Submitted = true
	listen := ps.current
	t.publish(ps)

	for _, s := range t.opts.Submitters {
		t.deliver(ctx, func(ctx context.Context) {
			err := s.Submit(ctx, listen)
			logger := t.opts.Logger.With().Str("service", s.Name()).Str("track", listen.ID()).Logger()
			if err == nil {
				logger.Info().Msg("listen submitted")
			} else {
				logger.Warn().Err(err).Msg("submit listen")
				t.enqueue(ctx, logger, s.Name(), listen, err)
			}
			t.forEachSub(func(sub *Subscription) {
				sub.sendSubmitted(SubmittedEvent{Service: s.Name(), Track: listen, Err: err})
			})
		})
	}
}

func (t *Tracker) enqueue(ctx context.Context, logger zerolog.Logger, service string, listen track.PlayingTrack, cause error) {
	if t.opts.Queue == nil {
		return
	}
	if _, err := t.opts.Queue.AddPendingListen(ctx, service, listen, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("queue listen")
	}
}

// deliver runs fn in the background with a context that ignores ctx's
// cancellation and expires after SubmitTimeout.
func (t *Tracker) deliver(ctx context.Context, fn func(ctx context.Context)) {
	t.wg.Go(func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.SubmitTimeout)
		defer cancel()
		fn(dctx)
	})
}

func (t *Tracker) forEachSub(fn func(*Subscription)) {
	t.subsMu.RLock()
	defer t.subsMu.RUnlock()
	for _, s := range t.subs {
		fn(s)
	}
}

func (t *Tracker) closeSubscriptions() {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for _, s := range t.subs {
		s.close()
	}
	t.subs = nil
}
