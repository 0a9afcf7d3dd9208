//go:build linux

package mpris

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/track"
)

const (
	dbusInterface       = "org.freedesktop.DBus"
	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesChanged   = propertiesInterface + ".PropertiesChanged"
	nameOwnerChanged    = dbusInterface + ".NameOwnerChanged"
)

// ErrDisconnected is returned by Run when the session bus goes away.
var ErrDisconnected = errors.New("session bus disconnected")

// Observer reports the state of every MPRIS player on the session bus.
type Observer struct {
	conn   *dbus.Conn
	logger zerolog.Logger

	// unique bus name -> well-known player name
	owners  map[string]string
	players map[string]*playerState
}

// NewObserver connects to the session bus.
func NewObserver(logger zerolog.Logger) (*Observer, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Observer{
		conn:    conn,
		logger:  logger,
		owners:  make(map[string]string),
		players: make(map[string]*playerState),
	}, nil
}

// Close releases the bus connection.
func (o *Observer) Close() error {
	return o.conn.Close()
}

// Run calls emit for every player change until ctx is done. Players already
// running are reported first.
func (o *Observer) Run(ctx context.Context, emit func(track.Observation)) error {
	signals := make(chan *dbus.Signal, 64)
	o.conn.Signal(signals)
	defer o.conn.RemoveSignal(signals)

	if err := o.subscribe(); err != nil {
		return err
	}
	if err := o.scan(emit); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return ErrDisconnected
			}
			o.handle(sig, emit)
		}
	}
}

func (o *Observer) subscribe() error {
	if err := o.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("match PropertiesChanged: %w", err)
	}
	if err := o.conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusInterface),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchOption("arg0namespace", "org.mpris.MediaPlayer2"),
	); err != nil {
		return fmt.Errorf("match NameOwnerChanged: %w", err)
	}
	return nil
}

func (o *Observer) scan(emit func(track.Observation)) error {
	var names []string
	if err := o.conn.BusObject().Call(dbusInterface+".ListNames", 0).Store(&names); err != nil {
		return fmt.Errorf("list bus names: %w", err)
	}
	for _, name := range names {
		if !IsPlayerName(name) {
			continue
		}
		var owner string
		if err := o.conn.BusObject().Call(dbusInterface+".GetNameOwner", 0, name).Store(&owner); err != nil {
			o.logger.Debug().Err(err).Str("player", name).Msg("get name owner")
			continue
		}
		o.track(name, owner, emit)
	}
	return nil
}

// track starts following a player and reports its current state.
func (o *Observer) track(name, owner string, emit func(track.Observation)) {
	o.owners[owner] = name

	obj := o.conn.Object(name, objectPath)
	p := &playerState{status: track.StatusStopped}
	changed := make(map[string]dbus.Variant, 2)
	for _, prop := range []string{propStatus, propMetadata} {
		v, err := obj.GetProperty(playerInterface + "." + prop)
		if err != nil {
			o.logger.Debug().Err(err).Str("player", name).Str("property", prop).Msg("get property")
			continue
		}
		changed[prop] = v
	}
	p.apply(changed)
	o.players[name] = p

	o.logger.Debug().Str("player", name).Stringer("status", p.status).Msg("player appeared")
	emit(p.observation(name, time.Now()))
}

func (o *Observer) handle(sig *dbus.Signal, emit func(track.Observation)) {
	switch sig.Name {
	case propertiesChanged:
		if len(sig.Body) < 2 {
			return
		}
		iface, _ := sig.Body[0].(string)
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		if iface != playerInterface || changed == nil {
			return
		}
		name, ok := o.owners[sig.Sender]
		if !ok {
			return
		}
		p := o.players[name]
		if p.apply(changed) {
			emit(p.observation(name, time.Now()))
		}

	case nameOwnerChanged:
		if len(sig.Body) < 3 {
			return
		}
		name, _ := sig.Body[0].(string)
		oldOwner, _ := sig.Body[1].(string)
		newOwner, _ := sig.Body[2].(string)
		if !IsPlayerName(name) {
			return
		}
		if oldOwner != "" {
			delete(o.owners, oldOwner)
		}
		if newOwner == "" {
			o.vanish(name, emit)
			return
		}
		o.track(name, newOwner, emit)
	}
}

func (o *Observer) vanish(name string, emit func(track.Observation)) {
	if _, ok := o.players[name]; !ok {
		return
	}
	delete(o.players, name)
	o.logger.Debug().Str("player", name).Msg("player vanished")
	emit(track.Observation{Source: name, Status: track.StatusStopped, At: time.Now()})
}
