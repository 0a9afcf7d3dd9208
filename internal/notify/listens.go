package notify

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/submission"
	"github.com/llehouerou/nowplaying/internal/track"
)

const (
	defaultIcon    = "audio-x-generic"
	defaultTimeout = 5000
)

// Options selects which tracker events become notifications.
type Options struct {
	NowPlaying bool
	Submitted  bool
	Failures   bool
}

// Forward turns tracker events into desktop notifications until ctx is done
// or the subscription closes. Each notification replaces the previous one.
func Forward(ctx context.Context, n Notifier, sub *submission.Subscription, opts Options, logger zerolog.Logger) {
	var lastID uint32
	send := func(notif Notification) {
		notif.ReplacesID = lastID
		id, err := n.Notify(notif)
		if err != nil {
			logger.Debug().Err(err).Msg("send notification")
			return
		}
		lastID = id
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.NowPlaying:
			if opts.NowPlaying {
				send(NowPlayingNotification(e))
			}
		case e := <-sub.Submitted:
			switch {
			case e.Err != nil && opts.Failures:
				send(Notification{
					Title:    "Listen queued for " + e.Service,
					Body:     describe(e.Track) + "\n" + errmsg.Format(errmsg.OpListenSubmit, e.Err),
					Icon:     "dialog-warning",
					Timeout:  defaultTimeout,
					Urgency:  UrgencyNormal,
					Category: CategoryFailed,
				})
			case e.Err == nil && opts.Submitted:
				send(Notification{
					Title:     "Listen submitted to " + e.Service,
					Body:      describe(e.Track),
					Icon:      defaultIcon,
					Timeout:   defaultTimeout,
					Urgency:   UrgencyLow,
					Category:  CategorySubmitted,
					Transient: true,
				})
			}
		}
	}
}

// NowPlayingNotification builds the notification for a new listen.
func NowPlayingNotification(e submission.NowPlayingEvent) Notification {
	body := e.Track.Artist
	if e.Track.ReleaseName != "" {
		body += "\n" + e.Track.ReleaseName
	}
	return Notification{
		Title:     e.Track.Title,
		Body:      body,
		Icon:      iconFor(e.ArtURL),
		Timeout:   defaultTimeout,
		Urgency:   UrgencyLow,
		Category:  CategoryTrack,
		Transient: true,
	}
}

func describe(t track.PlayingTrack) string {
	return t.Artist + " - " + t.Title
}

// iconFor returns a local path for file:// artwork and the generic audio icon
// otherwise; notification servers do not fetch remote images.
func iconFor(artURL string) string {
	if !strings.HasPrefix(artURL, "file://") {
		return defaultIcon
	}
	u, err := url.Parse(artURL)
	if err != nil || u.Path == "" {
		return defaultIcon
	}
	return u.Path
}
