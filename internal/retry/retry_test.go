package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/state"
	"github.com/llehouerou/nowplaying/internal/track"
)

type fakeBatch struct {
	name string
	err  error

	mu      sync.Mutex
	batches [][]track.PlayingTrack
}

func (f *fakeBatch) Name() string { return f.name }

func (f *fakeBatch) SubmitBatch(_ context.Context, tracks []track.PlayingTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, tracks)
	return f.err
}

func (f *fakeBatch) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func addPending(t *testing.T, store *state.Mock, service string, n int) {
	t.Helper()
	for i := range n {
		_, err := store.AddPendingListen(context.Background(), service,
			track.PlayingTrack{Artist: "a", Title: "t", Timestamp: int64(i)}, "")
		if err != nil {
			t.Fatalf("AddPendingListen failed: %v", err)
		}
	}
}

func TestFlush_DeliversInBatches(t *testing.T) {
	store := state.NewMock()
	addPending(t, store, "listenbrainz", 5)
	addPending(t, store, "lastfm", 1)

	lb := &fakeBatch{name: "listenbrainz"}
	l := New(store, []BatchSubmitter{lb}, Options{BatchSize: 2, Logger: zerolog.Nop()})

	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v", err)
	}

	if lb.calls() != 3 {
		t.Errorf("batches = %d, want 3", lb.calls())
	}
	if got := len(lb.batches[0]); got != 2 {
		t.Errorf("first batch = %d listens, want 2", got)
	}
	if got := lb.batches[0][0].Timestamp; got != 0 {
		t.Errorf("first listen timestamp = %d, want oldest (0)", got)
	}

	remaining := store.Pending()
	if len(remaining) != 1 || remaining[0].Service != "lastfm" {
		t.Errorf("remaining = %+v, want only the lastfm listen", remaining)
	}
}

func TestFlush_FailureCountsAttempt(t *testing.T) {
	store := state.NewMock()
	addPending(t, store, "listenbrainz", 3)

	lb := &fakeBatch{name: "listenbrainz", err: errors.New("503")}
	l := New(store, []BatchSubmitter{lb}, Options{MaxAttempts: 2, Logger: zerolog.Nop()})
	ctx := context.Background()

	for range 3 {
		if err := l.Flush(ctx); err == nil {
			// Third flush finds nothing eligible.
			break
		}
	}

	if lb.calls() != 2 {
		t.Errorf("batches = %d, want 2 (stops at MaxAttempts)", lb.calls())
	}
	for _, p := range store.Pending() {
		if p.Attempts != 2 || p.LastError != "503" {
			t.Errorf("pending = %+v, want 2 attempts and last error 503", p)
		}
	}
}

func TestFlush_PrunesExpired(t *testing.T) {
	store := state.NewMock()
	addPending(t, store, "listenbrainz", 2)

	lb := &fakeBatch{name: "listenbrainz"}
	l := New(store, []BatchSubmitter{lb}, Options{Logger: zerolog.Nop()})
	l.now = func() time.Time { return time.Now().Add(15 * 24 * time.Hour) }

	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if lb.calls() != 0 {
		t.Errorf("expired listens were resubmitted")
	}
	if n := len(store.Pending()); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestFlush_JoinsServiceErrors(t *testing.T) {
	store := state.NewMock()
	addPending(t, store, "listenbrainz", 1)
	addPending(t, store, "lastfm", 1)

	errLB := errors.New("lb down")
	lb := &fakeBatch{name: "listenbrainz", err: errLB}
	fm := &fakeBatch{name: "lastfm"}
	l := New(store, []BatchSubmitter{lb, fm}, Options{Logger: zerolog.Nop()})

	err := l.Flush(context.Background())
	if !errors.Is(err, errLB) {
		t.Errorf("Flush() = %v, want wrapped %v", err, errLB)
	}
	if fm.calls() != 1 {
		t.Error("lastfm should still be flushed when listenbrainz fails")
	}
}

func TestRun_FlushesOnTick(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		store := state.NewMock()
		lb := &fakeBatch{name: "listenbrainz"}
		l := New(store, []BatchSubmitter{lb}, Options{Logger: zerolog.Nop()})

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- l.Run(ctx) }()

		synctest.Wait()
		addPending(t, store, "listenbrainz", 1)
		if lb.calls() != 0 {
			t.Fatal("empty queue should not submit")
		}

		time.Sleep(DefaultInterval)
		synctest.Wait()
		if lb.calls() != 1 {
			t.Errorf("batches = %d, want 1 after one tick", lb.calls())
		}

		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() = %v", err)
		}
	})
}
