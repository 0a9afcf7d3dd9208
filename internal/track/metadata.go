package track

import (
	"net/url"
	"strings"
	"time"
)

// Metadata is what a player reports for its current item.
type Metadata struct {
	Artist        string
	Title         string
	Album         string
	AlbumArtist   string
	Length        time.Duration
	URL           string // xesam:url, may be a file:// URL
	ArtURL        string
	TrackID       string
	RecordingMBID string
}

// LocalPath returns the filesystem path behind a file:// URL, or "".
func (m Metadata) LocalPath() string {
	if !strings.HasPrefix(m.URL, "file://") {
		return ""
	}
	u, err := url.Parse(m.URL)
	if err != nil {
		return ""
	}
	return u.Path
}

// FromMetadata builds a descriptor for meta observed from source at now.
func FromMetadata(meta Metadata, source string, now time.Time) PlayingTrack {
	return PlayingTrack{
		Artist:        meta.Artist,
		Title:         meta.Title,
		ReleaseName:   meta.Album,
		AlbumArtist:   meta.AlbumArtist,
		RecordingMBID: meta.RecordingMBID,
		Timestamp:     now.UnixMilli(),
		Duration:      max(meta.Length.Milliseconds(), 0),
		Source:        source,
	}
}

// Status is a player's playback status.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	}
	return "unknown"
}

// Observation is one report from a player.
type Observation struct {
	Source   string
	Metadata Metadata
	Status   Status
	At       time.Time
}

// Track returns the descriptor for this observation.
func (o Observation) Track() PlayingTrack {
	return FromMetadata(o.Metadata, o.Source, o.At)
}
