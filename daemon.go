package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/lastfm"
	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/log"
	"github.com/llehouerou/nowplaying/internal/metrics"
	"github.com/llehouerou/nowplaying/internal/mpris"
	"github.com/llehouerou/nowplaying/internal/notify"
	"github.com/llehouerou/nowplaying/internal/players"
	"github.com/llehouerou/nowplaying/internal/retry"
	"github.com/llehouerou/nowplaying/internal/state"
	"github.com/llehouerou/nowplaying/internal/status"
	"github.com/llehouerou/nowplaying/internal/submission"
	"github.com/llehouerou/nowplaying/internal/tags"
	"github.com/llehouerou/nowplaying/internal/track"
)

func runDaemon(ctx context.Context, cfg *config.Config, args []string) error {
	if err := flagSet("run").Parse(args); err != nil {
		return err
	}

	if cfg.LogToFile() {
		f, err := log.OpenFile()
		if err != nil {
			return errmsg.Wrap(errmsg.OpLogOpen, err)
		}
		defer f.Close()
		log.Configure(log.Config{Level: cfg.Log.Level, Output: f})
	}
	logger := log.WithComponent("daemon")

	store, err := state.Open()
	if err != nil {
		return errmsg.Wrap(errmsg.OpStateOpen, err)
	}
	defer store.Close()

	services := listenServices(ctx, cfg, store, logger)
	if len(services) == 0 {
		logger.Warn().Msg("no listen service configured, observing only")
	}
	submitters := make([]submission.Submitter, 0, len(services))
	batchers := make([]retry.BatchSubmitter, 0, len(services))
	for _, s := range services {
		submitters = append(submitters, s)
		batchers = append(batchers, s)
	}

	registry := players.New(store, players.Options{
		SubmitListens:    cfg.SubmitListens(),
		ListenNewPlayers: cfg.ListenNewPlayers(),
		Allowed:          cfg.Players.Allowed,
	}, log.WithComponent("players"))
	if err := registry.Seed(ctx); err != nil {
		logger.Warn().Msg(errmsg.Format(errmsg.OpPlayersList, err))
	}

	tracker := submission.NewTracker(submission.Options{
		Submitters: submitters,
		Queue:      store,
		Gate:       registry,
		Enrich:     tags.NewEnricher().Enrich,
		Logger:     log.WithComponent("tracker"),
	})

	observer, err := mpris.NewObserver(log.WithComponent("mpris"))
	if err != nil {
		return errmsg.Wrap(errmsg.OpSessionBus, err)
	}
	defer observer.Close()

	g, ctx := errgroup.WithContext(ctx)

	if notifyOpts := notificationOptions(cfg); notifyOpts != (notify.Options{}) {
		if n, err := notify.New(); err != nil {
			logger.Warn().Err(err).Msg("desktop notifications disabled")
		} else {
			sub := tracker.Subscribe()
			g.Go(func() error {
				notify.Forward(ctx, n, sub, notifyOpts, log.WithComponent("notify"))
				return nil
			})
		}
	}

	if cfg.StatusFile != "" {
		sub := tracker.Subscribe()
		w := status.NewWriter(cfg.StatusFile, tracker, status.DefaultInterval, log.WithComponent("status"))
		g.Go(func() error {
			w.Run(ctx, sub)
			return nil
		})
	}

	g.Go(func() error {
		return tracker.Run(ctx)
	})

	g.Go(func() error {
		err := observer.Run(ctx, func(obs track.Observation) {
			metrics.RecordObservation(players.ShortName(obs.Source), obs.Status)
			if err := tracker.Observe(ctx, obs); err != nil && !errors.Is(err, submission.ErrStopped) && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("forward observation")
			}
		})
		return errmsg.Wrap(errmsg.OpObserve, err)
	})

	if len(batchers) > 0 {
		rc := cfg.GetRetryConfig()
		loop := retry.New(store, batchers, retry.Options{
			Interval:    rc.Interval,
			MaxAttempts: rc.MaxAttempts,
			MaxAge:      rc.MaxAge(),
			Logger:      log.WithComponent("retry"),
		})
		g.Go(func() error {
			return loop.Run(ctx)
		})
	}

	if cfg.HasMetricsConfig() {
		handler, err := metrics.Handler(metrics.NewPendingCollector(store))
		if err != nil {
			return errmsg.Wrap(errmsg.OpMetricsServe, err)
		}
		g.Go(func() error {
			return errmsg.Wrap(errmsg.OpMetricsServe,
				metrics.Serve(ctx, cfg.Metrics.Listen, handler, log.WithComponent("metrics")))
		})
	}

	logger.Info().Int("services", len(services)).Msg("watching media players")
	err = g.Wait()
	logger.Info().Msg("stopped")
	return err
}

// listenServices builds the configured clients. A Last.fm key without a
// linked session is skipped.
func listenServices(ctx context.Context, cfg *config.Config, store state.Interface, logger zerolog.Logger) []metrics.Service {
	var out []metrics.Service

	if cfg.HasListenBrainzConfig() {
		lb := cfg.GetListenBrainzConfig()
		client := listenbrainz.New(lb.BaseURL, lb.Token)
		if user, err := client.ValidateToken(ctx); err != nil {
			logger.Warn().Msg(errmsg.Format(errmsg.OpTokenValidate, err))
		} else {
			logger.Info().Str("user", user).Msg("ListenBrainz token accepted")
		}
		out = append(out, metrics.Instrument(client))
	}

	if cfg.HasLastfmConfig() {
		session, err := store.LinkedLastfm(ctx)
		switch {
		case err != nil:
			logger.Warn().Msg(errmsg.Format(errmsg.OpLastfmSession, err))
		case session == nil:
			logger.Info().Msg("Last.fm is configured but not linked, run `nowplaying lastfm-link`")
		default:
			client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
			client.SetSessionKey(session.SessionKey)
			logger.Info().Str("user", session.Username).Msg("scrobbling to Last.fm")
			out = append(out, metrics.Instrument(client))
		}
	}

	return out
}

func notificationOptions(cfg *config.Config) notify.Options {
	return notify.Options{
		NowPlaying: cfg.NotifyNowPlaying(),
		Submitted:  cfg.NotifySubmitted(),
		Failures:   cfg.NotifyFailures(),
	}
}

func runFlush(ctx context.Context, cfg *config.Config, args []string) error {
	if err := flagSet("flush").Parse(args); err != nil {
		return err
	}
	logger := log.WithComponent("flush")

	store, err := state.Open()
	if err != nil {
		return errmsg.Wrap(errmsg.OpStateOpen, err)
	}
	defer store.Close()

	services := listenServices(ctx, cfg, store, logger)
	batchers := make([]retry.BatchSubmitter, 0, len(services))
	for _, s := range services {
		batchers = append(batchers, s)
	}

	rc := cfg.GetRetryConfig()
	loop := retry.New(store, batchers, retry.Options{
		MaxAttempts: rc.MaxAttempts,
		MaxAge:      rc.MaxAge(),
		Logger:      logger,
	})
	if err := loop.Flush(ctx); err != nil {
		return errmsg.Wrap(errmsg.OpPendingFlush, err)
	}

	counts, err := store.PendingCounts(ctx)
	if err != nil {
		return errmsg.Wrap(errmsg.OpPendingFlush, err)
	}
	for service, n := range counts {
		logger.Info().Str("service", service).Int("count", n).Msg("still pending")
	}
	return nil
}
