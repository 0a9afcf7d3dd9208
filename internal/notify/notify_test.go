package notify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHints(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want map[string]any
	}{
		{
			name: "defaults",
			n:    Notification{},
			want: map[string]any{"urgency": byte(0), "desktop-entry": appName},
		},
		{
			name: "category and transient",
			n:    Notification{Urgency: UrgencyNormal, Category: CategoryTrack, Transient: true},
			want: map[string]any{
				"urgency":       byte(1),
				"desktop-entry": appName,
				"category":      CategoryTrack,
				"transient":     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := map[string]any{}
			for k, v := range hints(tt.n) {
				got[k] = v.Value()
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("hints() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBodyIsEscaped(t *testing.T) {
	n := Notification{Body: "Simon & Garfunkel <live>"}
	if got := escapedBody(n); got != "Simon &amp; Garfunkel &lt;live&gt;" {
		t.Errorf("escapedBody() = %q", got)
	}
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	id, err := n.Notify(Notification{Title: "x"})
	if id != 0 || err != nil {
		t.Errorf("Notify() = %d, %v", id, err)
	}
	if err := n.Close(1); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
