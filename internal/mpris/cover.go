package mpris

import (
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt looks for album art next to a local track, ignoring case.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	found := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			found[strings.ToLower(e.Name())] = e.Name()
		}
	}
	for _, name := range coverNames {
		if actual, ok := found[name]; ok {
			return filepath.Join(dir, actual)
		}
	}
	return ""
}
