package tags

import (
	"github.com/bogem/id3v2/v2"
)

const musicBrainzOwner = "http://musicbrainz.org"

// readID3 reads MP3 tags with id3v2 alone. dhowden/tag rejects some UTF-16
// frames that id3v2 handles.
func readID3(path string) (*Tag, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return newTag(path, t.Title(), t.Artist(), textFrame(t, "TPE2"), t.Album()), nil
}

// id3IDs reads the MusicBrainz frames written by Picard. The recording ID is
// in UFID, with a TXXX frame as used by other taggers as fallback.
func id3IDs(path string, t *Tag) {
	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3.Close()

	t.MBArtistID = userText(id3, "MusicBrainz Artist Id")
	t.MBReleaseID = userText(id3, "MusicBrainz Album Id")
	t.MBTrackID = userText(id3, "MusicBrainz Release Track Id")
	for _, f := range id3.GetFrames("UFID") {
		if ufid, ok := f.(id3v2.UFIDFrame); ok && ufid.OwnerIdentifier == musicBrainzOwner {
			t.MBRecordingID = string(ufid.Identifier)
			return
		}
	}
	t.MBRecordingID = userText(id3, "MusicBrainz Track Id")
}

func textFrame(t *id3v2.Tag, id string) string {
	if tf, ok := t.GetLastFrame(id).(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

// userText returns the TXXX frame with the given description.
func userText(t *id3v2.Tag, description string) string {
	for _, f := range t.GetFrames("TXXX") {
		if udf, ok := f.(id3v2.UserDefinedTextFrame); ok && udf.Description == description {
			return udf.Value
		}
	}
	return ""
}
