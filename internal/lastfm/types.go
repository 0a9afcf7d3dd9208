package lastfm

import (
	"time"

	"github.com/llehouerou/nowplaying/internal/track"
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist        string
	Track         string
	Album         string
	AlbumArtist   string
	Duration      time.Duration
	Timestamp     time.Time // When playback started
	MBRecordingID string    // Optional MusicBrainz recording ID
}

// FromPlayingTrack converts a tracker descriptor into scrobble metadata.
func FromPlayingTrack(t track.PlayingTrack) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:        t.Artist,
		Track:         t.Title,
		Album:         t.ReleaseName,
		AlbumArtist:   t.AlbumArtist,
		Duration:      t.Length(),
		Timestamp:     t.StartedAt(),
		MBRecordingID: t.RecordingMBID,
	}
}

// params builds the request parameters shared by scrobble and now playing.
func (s ScrobbleTrack) params() map[string]any {
	p := map[string]any{
		"artist": s.Artist,
		"track":  s.Track,
	}
	if s.Album != "" {
		p["album"] = s.Album
	}
	if s.AlbumArtist != "" && s.AlbumArtist != s.Artist {
		p["albumArtist"] = s.AlbumArtist
	}
	if s.Duration > 0 {
		p["duration"] = int(s.Duration.Seconds())
	}
	if s.MBRecordingID != "" {
		p["mbid"] = s.MBRecordingID
	}
	return p
}
