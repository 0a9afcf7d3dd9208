package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/llehouerou/nowplaying/internal/track"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB

	AddPendingListen(ctx context.Context, service string, t track.PlayingTrack, lastErr string) (int64, error)
	PendingListens(ctx context.Context, service string, maxAttempts, limit int) ([]PendingListen, error)
	DeletePendingListens(ctx context.Context, ids []int64) error
	MarkPendingListensFailed(ctx context.Context, ids []int64, errMsg string) error
	PrunePendingListens(ctx context.Context, cutoff time.Time) (int64, error)
	PendingCounts(ctx context.Context) (map[string]int, error)

	ListPlayers(ctx context.Context) ([]Player, error)
	GetPlayer(ctx context.Context, name string) (*Player, error)
	SeePlayer(ctx context.Context, name string, allowNew bool, at time.Time) (Player, error)
	SetPlayerAllowed(ctx context.Context, name string, allowed bool) error

	LinkedLastfm(ctx context.Context) (*LastfmSession, error)
	LinkLastfm(ctx context.Context, s LastfmSession) error
	UnlinkLastfm(ctx context.Context) (*LastfmSession, error)

	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
