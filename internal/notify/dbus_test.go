//go:build linux

package notify

import (
	"os"
	"testing"
)

func TestDBusNotifier_RoundTrip(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}

	n, err := New()
	if err != nil {
		t.Skipf("notification service unavailable: %v", err)
	}

	id, err := n.Notify(Notification{
		Title:     "nowplaying test",
		Body:      "Song & Artist",
		Timeout:   1000,
		Category:  CategoryTrack,
		Transient: true,
	})
	if err != nil {
		t.Skipf("no notification server: %v", err)
	}

	replaced, err := n.Notify(Notification{Title: "nowplaying test", ReplacesID: id, Timeout: 1000})
	if err != nil {
		t.Fatalf("Notify(replace) error = %v", err)
	}
	if replaced != id {
		t.Errorf("replacing notification got id %d, want %d", replaced, id)
	}
	if err := n.Close(id); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
