package palette

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// maxArtworkBytes caps downloaded artwork.
const maxArtworkBytes = 16 << 20

// Loader fetches artwork and computes its palette. The last decoded image is
// kept, so asking for the palette and the image of one URL fetches it once.
type Loader struct {
	client *http.Client

	mu      sync.Mutex
	lastURL string
	last    image.Image
}

// NewLoader creates a loader; a nil client uses http.DefaultClient.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client}
}

// Load reads the image at rawURL (http, https or file) and returns its palette.
func (l *Loader) Load(ctx context.Context, rawURL string) (*Palette, error) {
	img, err := l.Image(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// Image returns the decoded image at rawURL.
func (l *Loader) Image(ctx context.Context, rawURL string) (image.Image, error) {
	l.mu.Lock()
	if rawURL == l.lastURL && l.last != nil {
		img := l.last
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	img, err := l.decode(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.lastURL, l.last = rawURL, img
	l.mu.Unlock()
	return img, nil
}

func (l *Loader) decode(ctx context.Context, rawURL string) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse artwork url: %w", err)
	}

	var r io.ReadCloser
	switch u.Scheme {
	case "file":
		r, err = os.Open(u.Path)
	case "http", "https":
		r, err = l.fetch(ctx, rawURL)
	default:
		err = fmt.Errorf("unsupported artwork scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := imaging.Decode(io.LimitReader(r, maxArtworkBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch artwork: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
