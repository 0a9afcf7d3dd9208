package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/listeningnow"
	"github.com/llehouerou/nowplaying/internal/log"
	"github.com/llehouerou/nowplaying/internal/palette"
	"github.com/llehouerou/nowplaying/internal/stderr"
	"github.com/llehouerou/nowplaying/internal/ui/albumart"
	"github.com/llehouerou/nowplaying/internal/ui/nowplaying"
)

func runWatch(ctx context.Context, cfg *config.Config, args []string) error {
	lb := cfg.GetListenBrainzConfig()

	fs := flagSet("watch")
	user := fs.String("user", lb.Username, "ListenBrainz user to watch")
	noArt := fs.Bool("no-art", false, "do not draw cover art")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// The card owns the terminal, so logs go to the state file.
	f, err := log.OpenFile()
	if err != nil {
		return errmsg.Wrap(errmsg.OpLogOpen, err)
	}
	defer f.Close()
	log.Configure(log.Config{Level: cfg.Log.Level, Output: f})

	restore, err := stderr.Capture(log.WithComponent("stderr"))
	if err != nil {
		logger := log.WithComponent("watch")
		logger.Debug().Err(err).Msg("stderr capture unavailable")
	} else {
		defer restore()
	}

	client := listenbrainz.New(lb.BaseURL, lb.Token)
	poller := listenbrainz.NewPoller(client, lb.PollInterval, log.WithComponent("poller"))
	loader := palette.NewLoader(nil)
	source := listeningnow.New(client, poller, loader, log.WithComponent("listeningnow"))

	var protocol albumart.Protocol
	if !*noArt {
		protocol = albumart.Detect()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	usernames := make(chan string, 1)
	card := nowplaying.New(ctx, nowplaying.Options{
		Source:    source,
		Images:    loader,
		Protocol:  protocol,
		Usernames: usernames,
		Username:  *user,
		Logger:    log.WithComponent("card"),
	})
	defer card.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Follow(ctx, usernames)
	})
	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(card, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}
