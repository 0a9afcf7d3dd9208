// Package listeningnow keeps a user's "listening now" card in sync with
// ListenBrainz and clears it once the track should have ended.
package listeningnow

import (
	"time"

	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/palette"
)

// DefaultDismissDelay applies when a listen carries no duration.
const DefaultDismissDelay = 6 * time.Minute

// CoverSize is the artwork size requested from the Cover Art Archive.
const CoverSize = 500

// State is one immutable snapshot of the card.
type State struct {
	Song     *listenbrainz.Listen
	Palette  *palette.Palette
	ImageURL string
}

// IsListeningNow reports whether a song is shown.
func (s State) IsListeningNow() bool {
	return s.Song != nil
}

// DismissDelay returns how long l should stay on screen from now. A listen
// with a listened_at timestamp only gets the time it has left.
func DismissDelay(l *listenbrainz.Listen, now time.Time) time.Duration {
	delay := DefaultDismissDelay
	if ms, ok := l.DurationMs(); ok {
		delay = time.Duration(ms) * time.Millisecond
	}
	if l.ListenedAt != nil {
		elapsed := now.Sub(time.Unix(*l.ListenedAt, 0))
		delay = max(delay-elapsed, 0)
	}
	return delay
}
