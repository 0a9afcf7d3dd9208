//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyIface = "org.freedesktop.Notifications"
)

type dbusNotifier struct {
	obj dbus.BusObject
}

// New connects to the notification service on the session bus.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return &dbusNotifier{obj: conn.Object(notifyDest, notifyPath)}, nil
}

// Notify calls Notify(app_name, replaces_id, app_icon, summary, body,
// actions, hints, expire_timeout).
func (d *dbusNotifier) Notify(n Notification) (uint32, error) {
	var id uint32
	err := d.obj.Call(notifyIface+".Notify", 0,
		appName, n.ReplacesID, n.Icon, n.Title, escapedBody(n),
		[]string{}, hints(n), n.Timeout,
	).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (d *dbusNotifier) Close(id uint32) error {
	return d.obj.Call(notifyIface+".CloseNotification", 0, id).Err
}
