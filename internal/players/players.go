// Package players decides which media players may have their listens
// submitted.
package players

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/state"
)

const busPrefix = "org.mpris.MediaPlayer2."

// Store is the persistence the registry needs.
type Store interface {
	ListPlayers(ctx context.Context) ([]state.Player, error)
	SeePlayer(ctx context.Context, name string, allowNew bool, at time.Time) (state.Player, error)
	SetPlayerAllowed(ctx context.Context, name string, allowed bool) error
}

// Options mirrors the [players] config section.
type Options struct {
	// SubmitListens is the master switch; when false nothing is allowed.
	SubmitListens bool
	// ListenNewPlayers allows players the first time they are seen.
	ListenNewPlayers bool
	// Allowed players are allowed on startup regardless of stored choice.
	Allowed []string
}

// Registry answers allow checks from the store on every call, so a choice
// made by another process sharing the database applies at once.
type Registry struct {
	store  Store
	opts   Options
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	announced map[string]bool
}

// New creates a registry.
func New(store Store, opts Options, logger zerolog.Logger) *Registry {
	return &Registry{
		store:     store,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		announced: make(map[string]bool),
	}
}

// ShortName turns an MPRIS bus name such as
// "org.mpris.MediaPlayer2.vlc.instance4242" into "vlc".
func ShortName(source string) string {
	name := strings.TrimPrefix(source, busPrefix)
	if i := strings.Index(name, ".instance"); i > 0 {
		name = name[:i]
	}
	return name
}

// Seed applies the configured allow list.
func (r *Registry) Seed(ctx context.Context) error {
	for _, name := range r.opts.Allowed {
		if err := r.SetAllowed(ctx, name, true); err != nil {
			return err
		}
	}
	return nil
}

// Allowed reports whether listens from source should be submitted and
// records the sighting.
func (r *Registry) Allowed(ctx context.Context, source string) bool {
	if !r.opts.SubmitListens {
		return false
	}
	name := ShortName(source)
	if name == "" {
		return false
	}

	p, err := r.store.SeePlayer(ctx, name, r.opts.ListenNewPlayers, r.now())
	if err != nil {
		r.logger.Warn().Err(err).Str("player", name).Msg("record player")
		return r.opts.ListenNewPlayers
	}
	if p.FirstSeen.Equal(p.LastSeen) && r.announce(name) {
		r.logger.Info().Str("player", name).Bool("allowed", p.Allowed).Msg("new player")
	}
	return p.Allowed
}

// announce reports whether name has not been announced yet, marking it.
func (r *Registry) announce(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.announced[name] {
		return false
	}
	r.announced[name] = true
	return true
}

// SetAllowed stores the allow flag for a player.
func (r *Registry) SetAllowed(ctx context.Context, name string, allowed bool) error {
	return r.store.SetPlayerAllowed(ctx, ShortName(name), allowed)
}

// List returns every player ever seen.
func (r *Registry) List(ctx context.Context) ([]state.Player, error) {
	return r.store.ListPlayers(ctx)
}
