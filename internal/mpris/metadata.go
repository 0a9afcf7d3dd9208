// Package mpris observes media players on the D-Bus session bus.
package mpris

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/nowplaying/internal/track"
)

const (
	busPrefix       = "org.mpris.MediaPlayer2."
	objectPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	playerInterface = "org.mpris.MediaPlayer2.Player"

	propMetadata = "Metadata"
	propStatus   = "PlaybackStatus"
)

// IsPlayerName reports whether name is an MPRIS well-known bus name.
func IsPlayerName(name string) bool {
	return strings.HasPrefix(name, busPrefix) && len(name) > len(busPrefix)
}

// ParseStatus maps an MPRIS PlaybackStatus to a track.Status.
func ParseStatus(s string) track.Status {
	switch types.PlaybackStatus(s) {
	case types.PlaybackStatusPlaying:
		return track.StatusPlaying
	case types.PlaybackStatusPaused:
		return track.StatusPaused
	default:
		return track.StatusStopped
	}
}

// ParseMetadata reads the xesam/mpris metadata map of a player.
func ParseMetadata(m map[string]dbus.Variant) track.Metadata {
	return track.Metadata{
		Artist:        str(m["xesam:artist"]),
		Title:         str(m["xesam:title"]),
		Album:         str(m["xesam:album"]),
		AlbumArtist:   str(m["xesam:albumArtist"]),
		Length:        length(m["mpris:length"]),
		URL:           str(m["xesam:url"]),
		ArtURL:        str(m["mpris:artUrl"]),
		TrackID:       str(m["mpris:trackid"]),
		RecordingMBID: first(m["xesam:musicBrainzTrackID"]),
	}
}

// str also accepts lists, which are joined, since players disagree on which
// fields are lists.
func str(v dbus.Variant) string {
	switch s := v.Value().(type) {
	case string:
		return strings.TrimSpace(s)
	case dbus.ObjectPath:
		return string(s)
	case []string:
		return strings.TrimSpace(strings.Join(s, ", "))
	}
	return ""
}

func first(v dbus.Variant) string {
	switch s := v.Value().(type) {
	case []string:
		if len(s) > 0 {
			return s[0]
		}
	case string:
		return s
	}
	return ""
}

func length(v dbus.Variant) time.Duration {
	var us int64
	switch n := v.Value().(type) {
	case int64:
		us = n
	case uint64:
		us = int64(n) //nolint:gosec // track lengths fit in int64
	case int32:
		us = int64(n)
	case uint32:
		us = int64(n)
	case float64:
		us = int64(n)
	case types.Microseconds:
		us = int64(n)
	default:
		return 0
	}
	return max(time.Duration(us)*time.Microsecond, 0)
}

// playerState is the last known state of one player.
type playerState struct {
	status track.Status
	meta   track.Metadata
}

// apply merges a PropertiesChanged payload and reports whether anything the
// tracker cares about changed.
func (p *playerState) apply(changed map[string]dbus.Variant) bool {
	relevant := false
	if v, ok := changed[propStatus]; ok {
		if s, ok := v.Value().(string); ok {
			p.status = ParseStatus(s)
			relevant = true
		}
	}
	if v, ok := changed[propMetadata]; ok {
		if m, ok := v.Value().(map[string]dbus.Variant); ok {
			p.meta = ParseMetadata(m)
			relevant = true
		}
	}
	return relevant
}

func (p *playerState) observation(source string, at time.Time) track.Observation {
	meta := p.meta
	if meta.ArtURL == "" {
		if path := meta.LocalPath(); path != "" {
			if art := FindAlbumArt(path); art != "" {
				meta.ArtURL = "file://" + art
			}
		}
	}
	return track.Observation{Source: source, Metadata: meta, Status: p.status, At: at}
}
