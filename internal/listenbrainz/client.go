// Package listenbrainz is a client for the ListenBrainz listen API.
package listenbrainz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/llehouerou/nowplaying/internal/track"
)

const (
	BaseURL = "https://api.listenbrainz.org"

	submitPath        = "/1/submit-listens"
	validateTokenPath = "/1/validate-token"
	playingNowPath    = "/1/user/%s/playing-now"

	// MaxListensPerRequest is the API limit for one submission.
	MaxListensPerRequest = 1000

	submissionClient = "nowplaying"
)

var (
	ErrListenBrainz = errors.New("listenbrainz error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrNoToken      = errors.New("no user token configured")
)

// Version is reported as submission_client_version.
var Version = "dev"

// Client talks to one ListenBrainz instance on behalf of one user token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

// New creates a client using http.DefaultClient.
func New(baseURL, token string) *Client {
	return NewWithHTTPClient(baseURL, token, http.DefaultClient)
}

// NewWithHTTPClient creates a client using the given HTTP client.
func NewWithHTTPClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		// Stay well under the server's per-token budget.
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
	}
}

// Name identifies the service in logs and the pending queue.
func (c *Client) Name() string {
	return "listenbrainz"
}

// HasToken reports whether submissions are possible.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// NowPlaying sends a playing_now listen for t.
func (c *Client) NowPlaying(ctx context.Context, t track.PlayingTrack) error {
	return c.SubmitListens(ctx, ListenTypePlayingNow, []Listen{FromTrack(t, false)})
}

// Submit sends a single listen for t, stamped with its start time.
func (c *Client) Submit(ctx context.Context, t track.PlayingTrack) error {
	return c.SubmitListens(ctx, ListenTypeSingle, []Listen{FromTrack(t, true)})
}

// SubmitBatch imports completed listens, MaxListensPerRequest per request.
// It stops at the first failed chunk.
func (c *Client) SubmitBatch(ctx context.Context, tracks []track.PlayingTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	if len(tracks) == 1 {
		return c.Submit(ctx, tracks[0])
	}
	for chunk := range slices.Chunk(tracks, MaxListensPerRequest) {
		if err := ctx.Err(); err != nil {
			return err
		}
		listens := make([]Listen, 0, len(chunk))
		for _, t := range chunk {
			listens = append(listens, FromTrack(t, true))
		}
		if err := c.SubmitListens(ctx, ListenTypeImport, listens); err != nil {
			return err
		}
	}
	return nil
}

// SubmitListens posts listens with the given listen type.
func (c *Client) SubmitListens(ctx context.Context, listenType ListenType, listens []Listen) error {
	if !c.HasToken() {
		return ErrNoToken
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(submission{ListenType: listenType, Payload: listens}); err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, submitPath, &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetPlayingNow returns the user's current playing_now listen, or nil if
// they are not playing anything.
func (c *Client) GetPlayingNow(ctx context.Context, username string) (*Listen, error) {
	path := fmt.Sprintf(playingNowPath, url.PathEscape(username))
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out listensResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode playing now: %w", err)
	}
	if len(out.Payload.Listens) == 0 {
		return nil, nil //nolint:nilnil // nil listen means nothing playing, not an error
	}
	l := out.Payload.Listens[0]
	return &l, nil
}

// ValidateToken checks the configured token and returns its user name.
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	if !c.HasToken() {
		return "", ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodGet, validateTokenPath, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out validateTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token validation: %w", err)
	}
	if !out.Valid {
		return "", fmt.Errorf("%s: %w: %w", out.Message, ErrUnauthorized, ErrListenBrainz)
	}
	return out.UserName, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", strings.ToLower(method), path, err)
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	var apiErr errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrListenBrainz)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, ErrListenBrainz)
	case apiErr.Error != "":
		return nil, fmt.Errorf("%d: %s: %w", resp.StatusCode, apiErr.Error, ErrListenBrainz)
	default:
		return nil, fmt.Errorf(">= 400: %d: %w", resp.StatusCode, ErrListenBrainz)
	}
}

// FromTrack converts a descriptor into a listen. Completed listens carry
// listened_at; playing_now listens must not.
func FromTrack(t track.PlayingTrack, completed bool) Listen {
	info := &AdditionalInfo{
		RecordingMBID:           t.RecordingMBID,
		MediaPlayer:             t.Source,
		SubmissionClient:        submissionClient,
		SubmissionClientVersion: Version,
	}
	if t.AlbumArtist != "" && t.AlbumArtist != t.Artist {
		info.ReleaseArtistName = t.AlbumArtist
	}
	if t.IsDurationPresent() {
		d := t.Duration
		info.DurationMs = &d
	}

	l := Listen{
		TrackMetadata: TrackMetadata{
			ArtistName:     t.Artist,
			TrackName:      t.Title,
			ReleaseName:    t.ReleaseName,
			AdditionalInfo: info,
		},
	}
	if completed {
		ts := t.TimestampSeconds()
		l.ListenedAt = &ts
	}
	return l
}

// CoverArtURL returns the Cover Art Archive thumbnail for a listen, or "" if
// the listen is not mapped to a release with artwork.
func CoverArtURL(l *Listen, size int) string {
	if l == nil || l.TrackMetadata.MBIDMapping == nil {
		return ""
	}
	m := l.TrackMetadata.MBIDMapping
	if m.CAAReleaseMBID == "" || m.CAAID == nil {
		return ""
	}
	return fmt.Sprintf("https://coverartarchive.org/release/%s/%d-%d.jpg", m.CAAReleaseMBID, *m.CAAID, size)
}
