// Package notify shows desktop notifications for listens through the
// freedesktop notification service.
package notify

import (
	"html"

	"github.com/godbus/dbus/v5"
)

const appName = "nowplaying"

// Urgency is the freedesktop urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification categories.
const (
	CategoryTrack     = "x-nowplaying.track"
	CategorySubmitted = "transfer.complete"
	CategoryFailed    = "transfer.error"
)

type Notification struct {
	Title      string
	Body       string // plain text, escaped before sending
	Icon       string // icon name or local path
	Timeout    int32  // ms; -1 server default, 0 never
	ReplacesID uint32
	Urgency    Urgency
	Category   string
	// Transient notifications skip the server's history.
	Transient bool
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its server ID.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Notification) (uint32, error) { return 0, nil }
func (Nop) Close(uint32) error                  { return nil }

// hints builds the Notify hints dictionary for n.
func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(appName),
	}
	if n.Category != "" {
		h["category"] = dbus.MakeVariant(n.Category)
	}
	if n.Transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}

// escapedBody escapes the markup subset servers may interpret.
func escapedBody(n Notification) string {
	return html.EscapeString(n.Body)
}
