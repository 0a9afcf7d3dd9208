// Package tags reads the identifying metadata of local music files so that a
// listen reported by a player can be completed with what the file knows.
package tags

import (
	"path/filepath"
	"strings"
	"time"
)

// File extensions supported by the tags package.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag is the subset of file tags a listen can carry.
type Tag struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string

	// MusicBrainz IDs
	MBArtistID    string
	MBReleaseID   string
	MBRecordingID string
	MBTrackID     string
}

// Sanitize trims whitespace and NUL padding left by some taggers.
func (t *Tag) Sanitize() {
	for _, s := range []*string{
		&t.Title, &t.Artist, &t.AlbumArtist, &t.Album,
		&t.MBArtistID, &t.MBReleaseID, &t.MBRecordingID, &t.MBTrackID,
	} {
		*s = strings.TrimSpace(strings.Trim(*s, "\x00"))
	}
}

// FileInfo combines Tag and the stream duration.
type FileInfo struct {
	Tag
	Duration time.Duration
}

// IsMusicFile returns true if the path has a supported music file extension.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtFLAC, ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4:
		return true
	}
	return false
}
