//go:build !linux

package mpris

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/track"
)

// ErrUnsupported is returned on platforms without a D-Bus session bus.
var ErrUnsupported = errors.New("mpris: only supported on linux")

// Observer is unavailable on non-Linux platforms.
type Observer struct{}

// NewObserver always fails on non-Linux platforms.
func NewObserver(_ zerolog.Logger) (*Observer, error) {
	return nil, ErrUnsupported
}

func (o *Observer) Close() error { return nil }

func (o *Observer) Run(_ context.Context, _ func(track.Observation)) error {
	return ErrUnsupported
}
