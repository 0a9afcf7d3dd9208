// Package submission turns player observations into listens and delivers them
// to the configured services.
package submission

import (
	"context"
	"time"

	"github.com/llehouerou/nowplaying/internal/track"
)

// Submitter delivers listens to one service.
type Submitter interface {
	// Name identifies the service in logs and in the pending queue.
	Name() string
	NowPlaying(ctx context.Context, t track.PlayingTrack) error
	Submit(ctx context.Context, t track.PlayingTrack) error
}

// Queue stores listens that could not be delivered.
type Queue interface {
	AddPendingListen(ctx context.Context, service string, t track.PlayingTrack, lastErr string) (int64, error)
}

// Gate decides whether a player's listens are wanted.
type Gate interface {
	Allowed(ctx context.Context, source string) bool
}

type allowAll struct{}

func (allowAll) Allowed(context.Context, string) bool { return true }

const (
	// MinTrackLength is the shortest known duration that can be submitted.
	MinTrackLength = 30 * time.Second
	// MaxThreshold caps the play time needed before a listen is submitted.
	MaxThreshold = 4 * time.Minute
)

// Threshold returns how long t must play before it counts as a listen.
// ok is false for tracks too short to ever be submitted.
func Threshold(t track.PlayingTrack) (threshold time.Duration, ok bool) {
	length := t.Length()
	if t.IsDurationAbsent() {
		length = time.Duration(track.DefaultDuration) * time.Millisecond
	} else if length < MinTrackLength {
		return 0, false
	}
	return min(length/2, MaxThreshold), true
}
