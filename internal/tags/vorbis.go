package tags

import (
	"encoding/binary"
	"strings"

	goflac "github.com/go-flac/go-flac"
)

// flacIDs reads the MusicBrainz Vorbis comments of a FLAC file straight
// from its metadata blocks.
func flacIDs(path string, t *Tag) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}
	for _, block := range f.Meta {
		if block.Type != goflac.VorbisComment {
			continue
		}
		c := parseVorbisComments(block.Data)
		t.MBArtistID = c["MUSICBRAINZ_ARTISTID"]
		t.MBReleaseID = c["MUSICBRAINZ_ALBUMID"]
		t.MBRecordingID = c["MUSICBRAINZ_TRACKID"]
		t.MBTrackID = c["MUSICBRAINZ_RELEASETRACKID"]
		return
	}
}

// parseVorbisComments decodes a comment block: a length-prefixed vendor
// string, a count, then length-prefixed KEY=value entries. Keys are
// upper-cased and the first value of a repeated key wins. Decoding stops at
// the first entry that overruns the block.
func parseVorbisComments(data []byte) map[string]string {
	comments := make(map[string]string)

	next := func() ([]byte, bool) {
		if len(data) < 4 {
			return nil, false
		}
		n := binary.LittleEndian.Uint32(data)
		if uint64(n) > uint64(len(data)-4) {
			return nil, false
		}
		field := data[4 : 4+n]
		data = data[4+n:]
		return field, true
	}

	if _, ok := next(); !ok {
		return comments
	}
	if len(data) < 4 {
		return comments
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]

	for range count {
		field, ok := next()
		if !ok {
			break
		}
		key, value, ok := strings.Cut(string(field), "=")
		if !ok || key == "" {
			continue
		}
		key = strings.ToUpper(key)
		if _, seen := comments[key]; !seen {
			comments[key] = value
		}
	}
	return comments
}
