package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/log"
	"github.com/llehouerou/nowplaying/internal/players"
	"github.com/llehouerou/nowplaying/internal/state"
)

func runPlayers(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flagSet("players")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := state.Open()
	if err != nil {
		return errmsg.Wrap(errmsg.OpStateOpen, err)
	}
	defer store.Close()

	registry := players.New(store, players.Options{
		SubmitListens:    cfg.SubmitListens(),
		ListenNewPlayers: cfg.ListenNewPlayers(),
		Allowed:          cfg.Players.Allowed,
	}, log.WithComponent("players"))

	switch fs.NArg() {
	case 0:
		return listPlayers(ctx, registry)
	case 2:
		var allowed bool
		switch fs.Arg(0) {
		case "allow":
			allowed = true
		case "deny":
		default:
			return fmt.Errorf("unknown players action %q", fs.Arg(0))
		}
		name := fs.Arg(1)
		if err := registry.SetAllowed(ctx, name, allowed); err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPlayersUpdate, name, err))
		}
		return listPlayers(ctx, registry)
	default:
		return errors.New("usage: nowplaying players [allow|deny NAME]")
	}
}

func listPlayers(ctx context.Context, registry *players.Registry) error {
	list, err := registry.List(ctx)
	if err != nil {
		return errmsg.Wrap(errmsg.OpPlayersList, err)
	}
	if len(list) == 0 {
		fmt.Println("No player seen yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tLISTENS\tLAST SEEN")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, allowedLabel(p.Allowed), humanize.Time(p.LastSeen))
	}
	return w.Flush()
}

func allowedLabel(allowed bool) string {
	if allowed {
		return "submitted"
	}
	return "ignored"
}
