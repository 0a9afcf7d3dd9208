// Package lastfm submits listens to Last.fm and handles desktop auth.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/nowplaying/internal/track"
)

// ErrNotAuthenticated is returned by submissions before a session key is set.
var ErrNotAuthenticated = errors.New("not authenticated")

// maxScrobbles is the most listens track.scrobble accepts per request.
const maxScrobbles = 50

const authURL = "https://www.last.fm/api/auth/"

// Client scrobbles through lastfm-go. The library has no context support, so
// ctx is only checked before each request.
type Client struct {
	api        *lastfm.Api
	apiKey     string
	sessionKey string
}

func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey}
}

// Name identifies the service in logs and the pending queue.
func (c *Client) Name() string { return "lastfm" }

// SetSessionKey authenticates the client with a stored session.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

func (c *Client) IsAuthenticated() bool { return c.sessionKey != "" }

// GetToken starts the desktop auth flow.
func (c *Client) GetToken() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("auth.getToken: %w", err)
	}
	return token, nil
}

// GetAuthURL is the page where the user grants access to token.
func (c *Client) GetAuthURL(token string) string {
	q := url.Values{"api_key": {c.apiKey}, "token": {token}}
	return authURL + "?" + q.Encode()
}

// GetSession exchanges a granted token for a session key. The username is
// "unknown" when the profile lookup fails, the key is still valid then.
func (c *Client) GetSession(token string) (username, sessionKey string, err error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return "", "", fmt.Errorf("auth.getSession: %w", err)
	}
	c.sessionKey = c.api.GetSessionKey()

	username = "unknown"
	if info, err := c.api.User.GetInfo(nil); err == nil {
		username = info.Name
	}
	return username, c.sessionKey, nil
}

func (c *Client) ready(ctx context.Context) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return ctx.Err()
}

// NowPlaying sends track.updateNowPlaying.
func (c *Client) NowPlaying(ctx context.Context, t track.PlayingTrack) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := c.api.Track.UpdateNowPlaying(lastfm.P(FromPlayingTrack(t).params())); err != nil {
		return fmt.Errorf("track.updateNowPlaying: %w", err)
	}
	return nil
}

// Submit scrobbles one completed listen.
func (c *Client) Submit(ctx context.Context, t track.PlayingTrack) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	s := FromPlayingTrack(t)
	p := lastfm.P(s.params())
	p["timestamp"] = s.Timestamp.Unix()
	if _, err := c.api.Track.Scrobble(p); err != nil {
		return fmt.Errorf("track.scrobble: %w", err)
	}
	return nil
}

// SubmitBatch scrobbles completed listens, maxScrobbles per request.
func (c *Client) SubmitBatch(ctx context.Context, tracks []track.PlayingTrack) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	for len(tracks) > 0 {
		n := min(len(tracks), maxScrobbles)
		if _, err := c.api.Track.Scrobble(batchParams(tracks[:n])); err != nil {
			return fmt.Errorf("track.scrobble (%d listens): %w", n, err)
		}
		tracks = tracks[n:]
		if err := ctx.Err(); err != nil && len(tracks) > 0 {
			return err
		}
	}
	return nil
}

// batchParams builds the array form of track.scrobble, which lastfm-go
// expands into artist[0], artist[1] and so on.
func batchParams(tracks []track.PlayingTrack) lastfm.P {
	artists := make([]string, len(tracks))
	titles := make([]string, len(tracks))
	albums := make([]string, len(tracks))
	timestamps := make([]int64, len(tracks))
	for i, t := range tracks {
		artists[i], titles[i], albums[i] = t.Artist, t.Title, t.ReleaseName
		timestamps[i] = t.TimestampSeconds()
	}
	return lastfm.P{"artist": artists, "track": titles, "album": albums, "timestamp": timestamps}
}
