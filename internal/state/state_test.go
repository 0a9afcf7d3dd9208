package state

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/llehouerou/nowplaying/internal/track"
)

func setupTestDB(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenPath(":memory:")
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpenPath_Migrates(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	version, err := schemaVersion(ctx, m.DB())
	if err != nil {
		t.Fatalf("schemaVersion() error = %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}

	// Already current: nothing runs again.
	if err := migrate(ctx, m.DB()); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}

func TestOpenPath_ReopensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	m, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	if err := m.SetPlayerAllowed(ctx, "mpv", false); err != nil {
		t.Fatalf("SetPlayerAllowed() error = %v", err)
	}
	m.Close()

	m, err = OpenPath(path)
	if err != nil {
		t.Fatalf("second OpenPath() error = %v", err)
	}
	defer m.Close()
	p, err := m.GetPlayer(ctx, "mpv")
	if err != nil || p == nil || p.Allowed {
		t.Errorf("GetPlayer() = %+v, %v; want the stored denied player", p, err)
	}
}

func TestOpenPath_NewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	m, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	if _, err := m.DB().Exec(fmt.Sprintf(`PRAGMA user_version = %d`, len(migrations)+1)); err != nil {
		t.Fatal(err)
	}
	m.Close()

	if _, err := OpenPath(path); err == nil {
		t.Error("OpenPath() accepted a database from a newer build")
	}
}

func TestPendingListens_RoundTrip(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	in := track.PlayingTrack{
		Artist:        "Artist",
		Title:         "Title",
		ReleaseName:   "Album",
		RecordingMBID: "rec-1",
		Source:        "org.mpris.MediaPlayer2.mpv",
		Timestamp:     1_700_000_000_000,
		Duration:      200_000,
	}
	id, err := m.AddPendingListen(ctx, "listenbrainz", in, "timeout")
	if err != nil {
		t.Fatalf("AddPendingListen failed: %v", err)
	}

	got, err := m.PendingListens(ctx, "listenbrainz", 10, 50)
	if err != nil {
		t.Fatalf("PendingListens failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	p := got[0]
	if p.ID != id || p.Service != "listenbrainz" || p.LastError != "timeout" || p.Attempts != 0 {
		t.Errorf("unexpected row: %+v", p)
	}
	if p.Track.Artist != in.Artist || p.Track.Title != in.Title || p.Track.ReleaseName != in.ReleaseName ||
		p.Track.RecordingMBID != in.RecordingMBID || p.Track.Source != in.Source ||
		p.Track.Timestamp != in.Timestamp || p.Track.Duration != in.Duration {
		t.Errorf("track = %+v, want %+v", p.Track, in)
	}
	if p.Track.AlbumArtist != "" {
		t.Errorf("AlbumArtist = %q, want empty", p.Track.AlbumArtist)
	}
	if !p.Track.Submitted {
		t.Error("queued listens should be marked submitted")
	}

	other, err := m.PendingListens(ctx, "lastfm", 10, 50)
	if err != nil {
		t.Fatalf("PendingListens failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("lastfm queue should be empty, got %d", len(other))
	}
}

func TestPendingListens_OrderAndLimit(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	for _, ts := range []int64{3000, 1000, 2000} {
		if _, err := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Artist: "a", Title: "t", Timestamp: ts}, ""); err != nil {
			t.Fatalf("AddPendingListen failed: %v", err)
		}
	}

	got, err := m.PendingListens(ctx, "lb", 10, 2)
	if err != nil {
		t.Fatalf("PendingListens failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Track.Timestamp != 1000 || got[1].Track.Timestamp != 2000 {
		t.Errorf("order = %d, %d; want 1000, 2000", got[0].Track.Timestamp, got[1].Track.Timestamp)
	}
}

func TestPendingListens_MarkFailedAndDelete(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	a, _ := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Artist: "a", Title: "1", Timestamp: 1}, "")
	b, _ := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Artist: "a", Title: "2", Timestamp: 2}, "")

	if err := m.MarkPendingListensFailed(ctx, []int64{a}, "boom"); err != nil {
		t.Fatalf("MarkPendingListensFailed failed: %v", err)
	}
	if err := m.MarkPendingListensFailed(ctx, []int64{a}, "boom again"); err != nil {
		t.Fatalf("MarkPendingListensFailed failed: %v", err)
	}

	// maxAttempts of 2 hides the listen that already failed twice.
	got, err := m.PendingListens(ctx, "lb", 2, 10)
	if err != nil {
		t.Fatalf("PendingListens failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != b {
		t.Fatalf("got %+v, want only id %d", got, b)
	}

	all, _ := m.PendingListens(ctx, "lb", 10, 10)
	if all[0].Attempts != 2 || all[0].LastError != "boom again" {
		t.Errorf("failed row = %+v", all[0])
	}

	if err := m.DeletePendingListens(ctx, []int64{a, b}); err != nil {
		t.Fatalf("DeletePendingListens failed: %v", err)
	}
	counts, err := m.PendingCounts(ctx)
	if err != nil {
		t.Fatalf("PendingCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

func TestPrunePendingListens(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	if _, err := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Artist: "a", Title: "t"}, ""); err != nil {
		t.Fatalf("AddPendingListen failed: %v", err)
	}
	old := time.Now().Add(-15 * 24 * time.Hour).Unix()
	if _, err := m.DB().Exec(`UPDATE pending_listens SET created_at = ?`, old); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
	if _, err := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Artist: "a", Title: "fresh"}, ""); err != nil {
		t.Fatalf("AddPendingListen failed: %v", err)
	}

	n, err := m.PrunePendingListens(ctx, time.Now().Add(-14*24*time.Hour))
	if err != nil {
		t.Fatalf("PrunePendingListens failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	counts, _ := m.PendingCounts(ctx)
	if counts["lb"] != 1 {
		t.Errorf("counts = %v, want lb:1", counts)
	}
}

func TestPlayers(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0)

	p, err := m.GetPlayer(ctx, "mpv")
	if err != nil || p != nil {
		t.Fatalf("GetPlayer(unknown) = %v, %v; want nil, nil", p, err)
	}

	seen, err := m.SeePlayer(ctx, "mpv", true, t0)
	if err != nil {
		t.Fatalf("SeePlayer failed: %v", err)
	}
	if !seen.Allowed || !seen.FirstSeen.Equal(t0) {
		t.Errorf("first sighting = %+v", seen)
	}

	if err := m.SetPlayerAllowed(ctx, "mpv", false); err != nil {
		t.Fatalf("SetPlayerAllowed failed: %v", err)
	}

	// A later sighting keeps the user's choice and first_seen.
	t1 := t0.Add(time.Hour)
	seen, err = m.SeePlayer(ctx, "mpv", true, t1)
	if err != nil {
		t.Fatalf("SeePlayer failed: %v", err)
	}
	if seen.Allowed {
		t.Error("known player should keep allowed = false")
	}
	if !seen.FirstSeen.Equal(t0) || !seen.LastSeen.Equal(t1) {
		t.Errorf("times = %v / %v", seen.FirstSeen, seen.LastSeen)
	}

	if _, err := m.SeePlayer(ctx, "spotify", false, t0); err != nil {
		t.Fatalf("SeePlayer failed: %v", err)
	}
	players, err := m.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers failed: %v", err)
	}
	if len(players) != 2 || players[0].Name != "mpv" || players[1].Name != "spotify" {
		t.Errorf("players = %+v", players)
	}
}

func TestLastfmSession(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()

	s, err := m.LinkedLastfm(ctx)
	if err != nil || s != nil {
		t.Fatalf("LinkedLastfm() = %v, %v; want nil, nil", s, err)
	}

	linkedAt := time.Unix(1700000000, 0)
	if err := m.LinkLastfm(ctx, LastfmSession{Username: "alice", SessionKey: "key1"}); err != nil {
		t.Fatalf("LinkLastfm failed: %v", err)
	}
	if err := m.LinkLastfm(ctx, LastfmSession{Username: "alice", SessionKey: "key2", LinkedAt: linkedAt}); err != nil {
		t.Fatalf("LinkLastfm failed: %v", err)
	}
	s, err = m.LinkedLastfm(ctx)
	if err != nil {
		t.Fatalf("LinkedLastfm failed: %v", err)
	}
	want := &LastfmSession{Username: "alice", SessionKey: "key2", LinkedAt: linkedAt}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	removed, err := m.UnlinkLastfm(ctx)
	if err != nil {
		t.Fatalf("UnlinkLastfm failed: %v", err)
	}
	if removed == nil || removed.SessionKey != "key2" {
		t.Errorf("UnlinkLastfm() = %+v, want the removed session", removed)
	}
	if s, _ := m.LinkedLastfm(ctx); s != nil {
		t.Errorf("session after unlink = %+v", s)
	}
	if removed, err := m.UnlinkLastfm(ctx); err != nil || removed != nil {
		t.Errorf("second UnlinkLastfm() = %v, %v; want nil, nil", removed, err)
	}
}

func TestMock_MatchesManagerQueueSemantics(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	a, _ := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Timestamp: 2}, "")
	b, _ := m.AddPendingListen(ctx, "lb", track.PlayingTrack{Timestamp: 1}, "")
	_ = m.MarkPendingListensFailed(ctx, []int64{a}, "x")

	got, _ := m.PendingListens(ctx, "lb", 1, 10)
	if len(got) != 1 || got[0].ID != b {
		t.Errorf("got %+v, want only id %d", got, b)
	}
	_ = m.DeletePendingListens(ctx, []int64{a, b})
	if len(m.Pending()) != 0 {
		t.Errorf("pending = %+v", m.Pending())
	}
}
