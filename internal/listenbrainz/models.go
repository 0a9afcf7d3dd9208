package listenbrainz

// https://listenbrainz.readthedocs.io/en/latest/users/json.html

// ListenType is the kind of submission.
type ListenType string

const (
	ListenTypeSingle     ListenType = "single"
	ListenTypePlayingNow ListenType = "playing_now"
	ListenTypeImport     ListenType = "import"
)

type (
	// Listen is a listen as submitted to or returned by the API.
	Listen struct {
		ListenedAt    *int64        `json:"listened_at,omitempty"` // unix seconds
		InsertedAt    int64         `json:"inserted_at,omitempty"`
		PlayingNow    bool          `json:"playing_now,omitempty"`
		UserName      string        `json:"user_name,omitempty"`
		RecordingMSID string        `json:"recording_msid,omitempty"`
		TrackMetadata TrackMetadata `json:"track_metadata"`
	}

	TrackMetadata struct {
		ArtistName     string          `json:"artist_name"`
		TrackName      string          `json:"track_name"`
		ReleaseName    string          `json:"release_name,omitempty"`
		AdditionalInfo *AdditionalInfo `json:"additional_info,omitempty"`
		MBIDMapping    *MBIDMapping    `json:"mbid_mapping,omitempty"`
	}

	AdditionalInfo struct {
		DurationMs              *int64 `json:"duration_ms,omitempty"`
		RecordingMBID           string `json:"recording_mbid,omitempty"`
		ReleaseArtistName       string `json:"release_artist_name,omitempty"`
		MediaPlayer             string `json:"media_player,omitempty"`
		SubmissionClient        string `json:"submission_client,omitempty"`
		SubmissionClientVersion string `json:"submission_client_version,omitempty"`
		OriginURL               string `json:"origin_url,omitempty"`
	}

	MBIDMapping struct {
		CAAReleaseMBID string   `json:"caa_release_mbid,omitempty"`
		CAAID          *int64   `json:"caa_id,omitempty"`
		RecordingMBID  string   `json:"recording_mbid,omitempty"`
		ReleaseMBID    string   `json:"release_mbid,omitempty"`
		RecordingName  string   `json:"recording_name,omitempty"`
		ArtistMBIDs    []string `json:"artist_mbids,omitempty"`
	}

	submission struct {
		ListenType ListenType `json:"listen_type"`
		Payload    []Listen   `json:"payload"`
	}

	listensResponse struct {
		Payload struct {
			Count      int      `json:"count"`
			Listens    []Listen `json:"listens"`
			PlayingNow bool     `json:"playing_now"`
			UserID     string   `json:"user_id"`
		} `json:"payload"`
	}

	validateTokenResponse struct {
		Code     int    `json:"code"`
		Message  string `json:"message"`
		Valid    bool   `json:"valid"`
		UserName string `json:"user_name"`
	}

	errorResponse struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
)

// DurationMs returns the listen's reported duration, if any.
func (l *Listen) DurationMs() (int64, bool) {
	if l == nil || l.TrackMetadata.AdditionalInfo == nil || l.TrackMetadata.AdditionalInfo.DurationMs == nil {
		return 0, false
	}
	return *l.TrackMetadata.AdditionalInfo.DurationMs, true
}

// Key identifies the track of a listen, ignoring when it was played.
func (l *Listen) Key() string {
	md := l.TrackMetadata
	return md.ArtistName + "\x00" + md.TrackName + "\x00" + md.ReleaseName
}
