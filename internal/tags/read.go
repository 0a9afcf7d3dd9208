package tags

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// reader covers one container family. fallback reads the common fields when
// dhowden/tag cannot parse the file and ids fills the MusicBrainz
// identifiers, which dhowden/tag does not expose.
type reader struct {
	fallback func(path string) (*Tag, error)
	ids      func(path string, t *Tag)
}

var readers = map[string]reader{
	ExtMP3:  {readID3, id3IDs},
	ExtFLAC: {readTaglib, flacIDs},
	ExtOPUS: {readTaglib, taglibIDs},
	ExtOGG:  {readTaglib, taglibIDs},
	ExtOGA:  {readTaglib, taglibIDs},
	ExtM4A:  {readTaglib, taglibIDs},
	ExtMP4:  {readTaglib, taglibIDs},
}

// Read reads the tags of a music file. Audio properties are left to
// ReadWithAudio.
func Read(path string) (*Tag, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	t, err := readCommon(path)
	if err != nil {
		if t, err = r.fallback(path); err != nil {
			return nil, err
		}
	}
	r.ids(path, t)
	t.Sanitize()
	return t, nil
}

func readCommon(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	return newTag(path, m.Title(), m.Artist(), m.AlbumArtist(), m.Album()), nil
}

// newTag falls back to the file name for the title and to the artist for the
// album artist.
func newTag(path, title, artist, albumArtist, album string) *Tag {
	return &Tag{
		Path:        path,
		Title:       cmp.Or(title, filepath.Base(path)),
		Artist:      artist,
		AlbumArtist: cmp.Or(albumArtist, artist),
		Album:       album,
	}
}

// ReadWithAudio reads tag metadata and, when the stream can be measured,
// its duration. A zero Duration means the length is unknown.
func ReadWithAudio(path string) (*FileInfo, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}

	info := &FileInfo{Tag: *t}
	if d, err := Duration(path); err == nil {
		info.Duration = d
	}
	return info, nil
}
