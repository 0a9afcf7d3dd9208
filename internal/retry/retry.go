// Package retry redelivers listens that failed to reach a service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/state"
	"github.com/llehouerou/nowplaying/internal/track"
)

const (
	DefaultInterval    = 5 * time.Minute
	DefaultMaxAttempts = 10
	DefaultMaxAge      = 14 * 24 * time.Hour
	DefaultBatchSize   = 50
)

// Store is the pending queue.
type Store interface {
	PendingListens(ctx context.Context, service string, maxAttempts, limit int) ([]state.PendingListen, error)
	DeletePendingListens(ctx context.Context, ids []int64) error
	MarkPendingListensFailed(ctx context.Context, ids []int64, errMsg string) error
	PrunePendingListens(ctx context.Context, cutoff time.Time) (int64, error)
}

// BatchSubmitter delivers several completed listens at once.
type BatchSubmitter interface {
	Name() string
	SubmitBatch(ctx context.Context, tracks []track.PlayingTrack) error
}

type Options struct {
	Interval    time.Duration
	MaxAttempts int
	MaxAge      time.Duration
	BatchSize   int
	Logger      zerolog.Logger
}

// Loop periodically flushes the pending queue.
type Loop struct {
	store      Store
	submitters []BatchSubmitter
	opts       Options
	now        func() time.Time
}

// New creates a retry loop; zero options take their defaults.
func New(store Store, submitters []BatchSubmitter, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Loop{store: store, submitters: submitters, opts: opts, now: time.Now}
}

// Run flushes once, then on every tick until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		if err := l.Flush(ctx); err != nil && ctx.Err() == nil {
			l.opts.Logger.Warn().Err(err).Msg("retry pending listens")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush prunes expired entries and resubmits what is left, service by service.
func (l *Loop) Flush(ctx context.Context) error {
	pruned, err := l.store.PrunePendingListens(ctx, l.now().Add(-l.opts.MaxAge))
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if pruned > 0 {
		l.opts.Logger.Info().Int64("count", pruned).Msg("dropped expired pending listens")
	}

	var errs []error
	for _, s := range l.submitters {
		if err := l.flushService(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (l *Loop) flushService(ctx context.Context, s BatchSubmitter) error {
	for {
		pending, err := l.store.PendingListens(ctx, s.Name(), l.opts.MaxAttempts, l.opts.BatchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		ids := make([]int64, len(pending))
		tracks := make([]track.PlayingTrack, len(pending))
		for i, p := range pending {
			ids[i] = p.ID
			tracks[i] = p.Track
		}

		if err := s.SubmitBatch(ctx, tracks); err != nil {
			if markErr := l.store.MarkPendingListensFailed(ctx, ids, err.Error()); markErr != nil {
				return errors.Join(err, markErr)
			}
			return err
		}
		if err := l.store.DeletePendingListens(ctx, ids); err != nil {
			return err
		}
		l.opts.Logger.Info().Str("service", s.Name()).Int("count", len(ids)).Msg("resubmitted pending listens")

		if len(pending) < l.opts.BatchSize {
			return nil
		}
	}
}
