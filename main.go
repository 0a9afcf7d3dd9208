package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/listenbrainz"
	"github.com/llehouerou/nowplaying/internal/log"
)

const usage = `Usage: nowplaying <command> [flags]

Commands:
  run                   observe media players and submit listens (default)
  watch [-user NAME]    show what a ListenBrainz user is listening to
  flush                 resubmit queued listens once and exit
  lastfm-link           authorize scrobbling to Last.fm
  lastfm-unlink         forget the Last.fm session
  players               list known players
  players allow NAME    submit listens from a player
  players deny NAME     ignore a player
  version               print the version
`

type command func(ctx context.Context, cfg *config.Config, args []string) error

var commands = map[string]command{
	"run":           runDaemon,
	"watch":         runWatch,
	"flush":         runFlush,
	"lastfm-link":   runLastfmLink,
	"lastfm-unlink": runLastfmUnlink,
	"players":       runPlayers,
}

func main() {
	name := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	switch name {
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	case "version":
		fmt.Println("nowplaying", listenbrainz.Version)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		os.Exit(1)
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Console: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, args); err != nil && !errors.Is(err, flag.ErrHelp) {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	return fs
}
