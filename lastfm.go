package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/lastfm"
	"github.com/llehouerou/nowplaying/internal/state"
)

var errLastfmNotConfigured = errors.New("set [lastfm] api_key and api_secret in config.toml first")

func runLastfmLink(ctx context.Context, cfg *config.Config, args []string) error {
	if err := flagSet("lastfm-link").Parse(args); err != nil {
		return err
	}
	if !cfg.HasLastfmConfig() {
		return errLastfmNotConfigured
	}

	store, err := state.Open()
	if err != nil {
		return errmsg.Wrap(errmsg.OpStateOpen, err)
	}
	defer store.Close()

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	token, err := client.GetToken()
	if err != nil {
		return errmsg.Wrap(errmsg.OpLastfmToken, err)
	}

	authURL := client.GetAuthURL(token)
	fmt.Println("Authorize nowplaying on Last.fm:")
	fmt.Println("  " + authURL)
	if err := lastfm.OpenBrowser(ctx, authURL); err != nil {
		fmt.Println("(open the link above in a browser)")
	}
	fmt.Print("Press Enter once access is granted... ")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return err
	}

	username, sessionKey, err := client.GetSession(token)
	if err != nil {
		return errmsg.Wrap(errmsg.OpLastfmSession, err)
	}
	if err := store.LinkLastfm(ctx, state.LastfmSession{Username: username, SessionKey: sessionKey}); err != nil {
		return errmsg.Wrap(errmsg.OpLastfmSave, err)
	}

	fmt.Printf("Linked to Last.fm as %s.\n", username)
	return nil
}

func runLastfmUnlink(ctx context.Context, _ *config.Config, args []string) error {
	if err := flagSet("lastfm-unlink").Parse(args); err != nil {
		return err
	}

	store, err := state.Open()
	if err != nil {
		return errmsg.Wrap(errmsg.OpStateOpen, err)
	}
	defer store.Close()

	session, err := store.UnlinkLastfm(ctx)
	if err != nil {
		return errmsg.Wrap(errmsg.OpLastfmUnlink, err)
	}
	if session == nil {
		fmt.Println("Last.fm is not linked.")
		return nil
	}

	fmt.Printf("Unlinked Last.fm user %s.\n", session.Username)
	return nil
}
