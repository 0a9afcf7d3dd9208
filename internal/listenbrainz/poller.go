package listenbrainz

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often Poller asks for the playing-now listen.
const DefaultPollInterval = 15 * time.Second

// Poller turns the playing-now endpoint into a stream of listens. A listen is
// emitted when it differs from the previous one; an empty result resets the
// comparison so a replay after a gap is emitted again.
type Poller struct {
	client   *Client
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a poller. interval <= 0 uses DefaultPollInterval.
func NewPoller(client *Client, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: client, interval: interval, logger: logger}
}

// Listen polls until ctx is done, then closes the returned channel.
func (p *Poller) Listen(ctx context.Context, username string) <-chan *Listen {
	out := make(chan *Listen)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var lastKey string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			l, err := p.client.GetPlayingNow(ctx, username)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Debug().Err(err).Str("user", username).Msg("poll playing now")
				}
				continue
			}
			if l == nil {
				lastKey = ""
				continue
			}

			key := l.Key()
			if key == lastKey {
				continue
			}
			lastKey = key

			select {
			case out <- l:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
