// Package track models a single playback observation and decides whether a
// new observation is a new listen or the same one seen again.
package track

import "time"

// DefaultDuration is the staleness window, in milliseconds, used when neither
// observation carries a duration.
const DefaultDuration int64 = 60_000

// PlayingTrack is one observed playback event.
//
// Timestamps and durations are milliseconds. A zero Duration means unknown.
// Only PlayingNowSubmitted and Submitted change after construction.
type PlayingTrack struct {
	Artist        string
	Title         string
	ReleaseName   string
	AlbumArtist   string
	RecordingMBID string
	Timestamp     int64  // ms since epoch when first observed
	Duration      int64  // ms, 0 if unknown
	Source        string // player identifier (MPRIS bus name)

	PlayingNowSubmitted bool
	Submitted           bool
}

// Nothing returns the descriptor used when no track is playing.
func Nothing() PlayingTrack {
	return PlayingTrack{}
}

// TimestampSeconds returns the observation time in whole seconds.
func (t PlayingTrack) TimestampSeconds() int64 {
	return t.Timestamp / 1000
}

// StartedAt returns the observation time.
func (t PlayingTrack) StartedAt() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// Length returns the duration as a time.Duration (0 if unknown).
func (t PlayingTrack) Length() time.Duration {
	return time.Duration(t.Duration) * time.Millisecond
}

// ID identifies the track within a player, independent of when it was seen.
func (t PlayingTrack) ID() string {
	return t.Title + " - " + t.Artist + " - " + t.Source
}

// IsNothing reports whether the descriptor means nothing is playing.
func (t PlayingTrack) IsNothing() bool {
	return t.Artist == "" && t.Title == ""
}

func (t PlayingTrack) IsDurationAbsent() bool {
	return t.Duration <= 0
}

func (t PlayingTrack) IsDurationPresent() bool {
	return !t.IsDurationAbsent()
}

// SimilarTo reports whether other is the same song from the same player.
// A replayed song is similar to its previous play.
func (t PlayingTrack) SimilarTo(other PlayingTrack) bool {
	return t.Artist == other.Artist &&
		t.Title == other.Title &&
		t.Source == other.Source
}

// SimilarToMetadata compares against raw player metadata, which carries no
// player identifier.
func (t PlayingTrack) SimilarToMetadata(meta Metadata) bool {
	return t.Artist == meta.Artist && t.Title == meta.Title
}

// IsOutdated reports whether t must be replaced by newTrack as the current
// track. A similar track is outdated once enough time has passed since t was
// first seen for newTrack to be a fresh replay rather than a repeated
// notification of the same play.
func (t PlayingTrack) IsOutdated(newTrack PlayingTrack) bool {
	if !t.SimilarTo(newTrack) {
		return true
	}

	elapsed := newTrack.Timestamp - t.Timestamp
	switch {
	case newTrack.IsDurationPresent():
		return elapsed >= newTrack.Duration
	case t.IsDurationPresent():
		return elapsed >= t.Duration
	case t.Submitted:
		return true
	default:
		return elapsed >= DefaultDuration
	}
}

// Merge fills fields t is missing from a later similar observation.
// Flags and timestamp are kept from t.
func (t PlayingTrack) Merge(later PlayingTrack) PlayingTrack {
	if t.IsDurationAbsent() && later.IsDurationPresent() {
		t.Duration = later.Duration
	}
	if t.ReleaseName == "" {
		t.ReleaseName = later.ReleaseName
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = later.AlbumArtist
	}
	if t.RecordingMBID == "" {
		t.RecordingMBID = later.RecordingMBID
	}
	return t
}
