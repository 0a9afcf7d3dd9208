package lastfm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/nowplaying/internal/track"
)

func TestFromPlayingTrack(t *testing.T) {
	pt := track.PlayingTrack{
		Artist:        "Artist",
		Title:         "Title",
		ReleaseName:   "Album",
		AlbumArtist:   "Various",
		RecordingMBID: "rec",
		Timestamp:     1_700_000_000_000,
		Duration:      245_000,
	}

	got := FromPlayingTrack(pt)
	if got.Track != "Title" || got.Album != "Album" || got.MBRecordingID != "rec" {
		t.Errorf("unexpected scrobble track: %+v", got)
	}
	if got.Duration != 245*time.Second {
		t.Errorf("Duration = %v, want 4m5s", got.Duration)
	}
	if got.Timestamp.Unix() != 1_700_000_000 {
		t.Errorf("Timestamp = %v, want unix 1700000000", got.Timestamp)
	}
}

func TestScrobbleTrack_Params(t *testing.T) {
	tests := []struct {
		name    string
		track   ScrobbleTrack
		present []string
		absent  []string
	}{
		{
			name:    "minimal",
			track:   ScrobbleTrack{Artist: "A", Track: "T"},
			present: []string{"artist", "track"},
			absent:  []string{"album", "albumArtist", "duration", "mbid"},
		},
		{
			name:    "album artist equal to artist is omitted",
			track:   ScrobbleTrack{Artist: "A", Track: "T", AlbumArtist: "A", Album: "B"},
			present: []string{"album"},
			absent:  []string{"albumArtist"},
		},
		{
			name:    "full",
			track:   ScrobbleTrack{Artist: "A", Track: "T", AlbumArtist: "V", Album: "B", Duration: time.Minute, MBRecordingID: "m"},
			present: []string{"album", "albumArtist", "duration", "mbid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.track.params()
			for _, k := range tt.present {
				if _, ok := p[k]; !ok {
					t.Errorf("missing %q in %v", k, p)
				}
			}
			for _, k := range tt.absent {
				if _, ok := p[k]; ok {
					t.Errorf("unexpected %q in %v", k, p)
				}
			}
		})
	}
}

func TestClient_RequiresSession(t *testing.T) {
	c := New("key", "secret")
	ctx := context.Background()
	pt := track.PlayingTrack{Artist: "A", Title: "T"}

	if err := c.NowPlaying(ctx, pt); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("NowPlaying() error = %v, want ErrNotAuthenticated", err)
	}
	if err := c.Submit(ctx, pt); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Submit() error = %v, want ErrNotAuthenticated", err)
	}
	if err := c.SubmitBatch(ctx, []track.PlayingTrack{pt}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("SubmitBatch() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	c := New("key", "secret")
	c.SetSessionKey("session")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Submit(ctx, track.PlayingTrack{Artist: "A", Title: "T"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
}

func TestClient_AuthURL(t *testing.T) {
	c := New("key123", "secret")
	want := "https://www.last.fm/api/auth/?api_key=key123&token=tok"
	if got := c.GetAuthURL("tok"); got != want {
		t.Errorf("GetAuthURL() = %q, want %q", got, want)
	}
	if c.Name() != "lastfm" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestBatchParams(t *testing.T) {
	tracks := []track.PlayingTrack{
		{Artist: "A1", Title: "T1", ReleaseName: "R1", Timestamp: 100_000},
		{Artist: "A2", Title: "T2", Timestamp: 200_500},
	}
	got := batchParams(tracks)

	want := lastfm.P{
		"artist":    []string{"A1", "A2"},
		"track":     []string{"T1", "T2"},
		"album":     []string{"R1", ""},
		"timestamp": []int64{100, 200},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("batchParams() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_SubmitBatchEmpty(t *testing.T) {
	c := New("key", "secret")
	c.SetSessionKey("session")
	if err := c.SubmitBatch(context.Background(), nil); err != nil {
		t.Errorf("SubmitBatch(nil) error = %v", err)
	}
}
