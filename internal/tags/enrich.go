package tags

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/llehouerou/nowplaying/internal/track"
)

// Enricher completes player metadata from the local file it points at.
// Players report the same file many times while it plays, so the last
// result is kept.
type Enricher struct {
	read func(path string) (*FileInfo, error)

	mu       sync.Mutex
	lastPath string
	last     *FileInfo
}

// NewEnricher creates an Enricher reading files from disk.
func NewEnricher() *Enricher {
	return &Enricher{read: ReadWithAudio}
}

// Enrich fills the fields meta leaves empty. Values reported by the player
// always win. Metadata without a readable local file is returned unchanged.
func (e *Enricher) Enrich(meta track.Metadata) track.Metadata {
	path := meta.LocalPath()
	if path == "" || !IsMusicFile(path) {
		return meta
	}

	info := e.lookup(path)
	if info == nil {
		return meta
	}
	return merge(meta, info)
}

func (e *Enricher) lookup(path string) *FileInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	if path == e.lastPath {
		return e.last
	}
	info, err := e.read(path)
	if err != nil {
		info = nil
	}
	e.lastPath, e.last = path, info
	return info
}

func merge(meta track.Metadata, info *FileInfo) track.Metadata {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	// Read falls back to the file name for a missing title; a player that
	// reports no title is better left alone than given a file name.
	if info.Title != "" && info.Title != filepath.Base(info.Path) {
		fill(&meta.Title, info.Title)
	}
	fill(&meta.Artist, info.Artist)
	fill(&meta.Album, info.Album)
	fill(&meta.AlbumArtist, info.AlbumArtist)
	fill(&meta.RecordingMBID, info.MBRecordingID)
	if meta.Length <= 0 && info.Duration > time.Second {
		meta.Length = info.Duration
	}
	return meta
}
