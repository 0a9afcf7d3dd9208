package listenbrainz

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// scriptedAPI answers successive playing-now requests from a fixed script.
type scriptedAPI struct {
	mu     sync.Mutex
	calls  int
	bodies []string
}

func (s *scriptedAPI) roundTrip(_ *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := `{"payload": {"count": 0, "listens": []}}`
	if s.calls < len(s.bodies) {
		body = s.bodies[s.calls]
	}
	s.calls++
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func playingNowBody(title string) string {
	return `{"payload": {"count": 1, "listens": [{"playing_now": true, "track_metadata": {"artist_name": "Band", "track_name": "` + title + `"}}]}}`
}

const emptyBody = `{"payload": {"count": 0, "listens": []}}`

func TestPoller_EmitsOnlyChanges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		api := &scriptedAPI{bodies: []string{
			playingNowBody("One"),
			playingNowBody("One"),
			playingNowBody("Two"),
			emptyBody,
			playingNowBody("Two"),
		}}
		client := NewWithHTTPClient("http://lb.test", "", &http.Client{Transport: roundTripFunc(api.roundTrip)})
		poller := NewPoller(client, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		ch := poller.Listen(ctx, "alice")

		var got []string
		for range 3 {
			l := <-ch
			got = append(got, l.TrackMetadata.TrackName)
		}

		want := []string{"One", "Two", "Two"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("emitted %v, want %v", got, want)
			}
		}

		cancel()
		if _, ok := <-ch; ok {
			t.Error("channel still open after cancel")
		}
	})
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(New("", ""), 0, zerolog.Nop())
	if p.interval != DefaultPollInterval {
		t.Errorf("interval = %v, want %v", p.interval, DefaultPollInterval)
	}
}
