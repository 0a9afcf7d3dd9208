package tags

import (
	"go.senan.xyz/taglib"
)

// taglibTags is the property map returned by taglib.ReadTags.
type taglibTags map[string][]string

// get returns the first value of the first key present.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values := t[key]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func readTaglib(path string) (*Tag, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	p := taglibTags(raw)
	return newTag(path, p.get(taglib.Title), p.get(taglib.Artist), p.get(taglib.AlbumArtist), p.get(taglib.Album)), nil
}

// taglibIDs reads MusicBrainz IDs from Vorbis comments and MP4 atoms. MP4
// files tagged by Picard or Mutagen use spelled-out names instead of the
// TagLib keys.
func taglibIDs(path string, t *Tag) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	p := taglibTags(raw)
	t.MBArtistID = p.get(taglib.MusicBrainzArtistID, "MUSICBRAINZ ARTIST ID", "MusicBrainz Artist Id")
	t.MBReleaseID = p.get(taglib.MusicBrainzAlbumID, "MUSICBRAINZ ALBUM ID", "MusicBrainz Album Id")
	t.MBRecordingID = p.get(taglib.MusicBrainzTrackID, "MUSICBRAINZ TRACK ID", "MusicBrainz Track Id")
	t.MBTrackID = p.get(taglib.MusicBrainzReleaseTrackID, "MUSICBRAINZ RELEASE TRACK ID", "MusicBrainz Release Track Id")
}
