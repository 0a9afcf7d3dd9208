package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/submission"
	"github.com/llehouerou/nowplaying/internal/track"
)

func TestFromSnapshot(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		snap submission.Snapshot
		want Document
	}{
		{
			name: "nothing playing",
			snap: submission.Snapshot{Track: track.Nothing()},
			want: Document{Status: "stopped"},
		},
		{
			name: "playing",
			snap: submission.Snapshot{
				Track: track.PlayingTrack{
					Artist:      "Band",
					Title:       "Song",
					ReleaseName: "Record",
					Timestamp:   started.UnixMilli(),
					Duration:    200_000,
					Source:      "org.mpris.MediaPlayer2.mpv.instance42",
					Submitted:   true,
				},
				Status: track.StatusPlaying,
				Played: 90 * time.Second,
			},
			want: Document{
				Status:     "playing",
				Text:       "Band - Song",
				Artist:     "Band",
				Title:      "Song",
				Album:      "Record",
				Player:     "mpv",
				StartedAt:  started,
				DurationMs: 200_000,
				PlayedMs:   90_000,
				Submitted:  true,
			},
		},
		{
			name: "paused",
			snap: submission.Snapshot{
				Track:  track.PlayingTrack{Artist: "A", Title: "T", Timestamp: started.UnixMilli()},
				Status: track.StatusPaused,
			},
			want: Document{
				Status:    "paused",
				Text:      "A - T",
				Artist:    "A",
				Title:     "T",
				StartedAt: started,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FromSnapshot(tt.snap)); diff != "" {
				t.Errorf("FromSnapshot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func readDoc(t *testing.T, path string) Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode status file: %v", err)
	}
	return doc
}

func TestWrite_ReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")

	if err := Write(path, Document{Status: "playing", Text: "A - T"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := Write(path, Document{Status: "stopped"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if doc := readDoc(t, path); doc.Status != "stopped" || doc.Text != "" {
		t.Errorf("doc = %+v, want stopped", doc)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the status file", len(entries))
	}
}

func TestWrite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "status.json")
	if err := Write(path, Document{Status: "stopped"}); err == nil {
		t.Error("Write() should fail when the directory does not exist")
	}
}

func TestWriter_FollowsTracker(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "status.json")

		tr := submission.NewTracker(submission.Options{Logger: zerolog.Nop()})
		sub := tr.Subscribe()

		ctx, cancel := context.WithCancel(t.Context())
		runDone := make(chan struct{})
		go func() {
			_ = tr.Run(ctx)
			close(runDone)
		}()

		w := NewWriter(path, tr, time.Second, zerolog.Nop())
		writerDone := make(chan struct{})
		go func() {
			w.Run(t.Context(), sub)
			close(writerDone)
		}()

		synctest.Wait()
		if doc := readDoc(t, path); doc.Status != "stopped" {
			t.Fatalf("initial status = %q, want stopped", doc.Status)
		}

		err := tr.Observe(ctx, track.Observation{
			Source:   "org.mpris.MediaPlayer2.mpv",
			Status:   track.StatusPlaying,
			Metadata: track.Metadata{Artist: "Band", Title: "Song", Length: 3 * time.Minute},
		})
		if err != nil {
			t.Fatalf("Observe() = %v", err)
		}
		synctest.Wait()

		doc := readDoc(t, path)
		if doc.Status != "playing" || doc.Text != "Band - Song" || doc.Player != "mpv" {
			t.Errorf("doc = %+v", doc)
		}

		cancel()
		<-runDone
		<-writerDone

		if doc := readDoc(t, path); doc.Status != "stopped" {
			t.Errorf("final status = %q, want stopped", doc.Status)
		}
	})
}
