package state

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/llehouerou/nowplaying/internal/track"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu      sync.Mutex
	nextID  int64
	pending []PendingListen
	players map[string]Player
	session *LastfmSession
	closed  bool

	// AddErr, when set, is returned by AddPendingListen.
	AddErr error
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{players: make(map[string]Player)}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) AddPendingListen(_ context.Context, service string, t track.PlayingTrack, lastErr string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	m.nextID++
	t.PlayingNowSubmitted = true
	t.Submitted = true
	m.pending = append(m.pending, PendingListen{
		ID:        m.nextID,
		Service:   service,
		Track:     t,
		LastError: lastErr,
		CreatedAt: time.Now(),
	})
	return m.nextID, nil
}

func (m *Mock) PendingListens(_ context.Context, service string, maxAttempts, limit int) ([]PendingListen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PendingListen
	for _, p := range m.pending {
		if p.Service == service && p.Attempts < maxAttempts {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b PendingListen) int {
		return cmp.Compare(a.Track.Timestamp, b.Track.Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mock) DeletePendingListens(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = slices.DeleteFunc(m.pending, func(p PendingListen) bool {
		return slices.Contains(ids, p.ID)
	})
	return nil
}

func (m *Mock) MarkPendingListensFailed(_ context.Context, ids []int64, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pending {
		if slices.Contains(ids, m.pending[i].ID) {
			m.pending[i].Attempts++
			m.pending[i].LastError = errMsg
		}
	}
	return nil
}

func (m *Mock) PrunePendingListens(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.pending)
	m.pending = slices.DeleteFunc(m.pending, func(p PendingListen) bool {
		return p.CreatedAt.Before(cutoff)
	})
	return int64(before - len(m.pending)), nil
}

func (m *Mock) PendingCounts(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range m.pending {
		counts[p.Service]++
	}
	return counts, nil
}

func (m *Mock) ListPlayers(_ context.Context) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b Player) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return players, nil
}

func (m *Mock) GetPlayer(_ context.Context, name string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[name]
	if !ok {
		return nil, nil //nolint:nilnil // nil player means never seen
	}
	return &p, nil
}

func (m *Mock) SeePlayer(_ context.Context, name string, allowNew bool, at time.Time) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[name]
	if !ok {
		p = Player{Name: name, Allowed: allowNew, FirstSeen: at}
	}
	p.LastSeen = at
	m.players[name] = p
	return p, nil
}

func (m *Mock) SetPlayerAllowed(_ context.Context, name string, allowed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[name]
	if !ok {
		now := time.Now()
		p = Player{Name: name, FirstSeen: now, LastSeen: now}
	}
	p.Allowed = allowed
	m.players[name] = p
	return nil
}

func (m *Mock) LinkedLastfm(context.Context) (*LastfmSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *Mock) LinkLastfm(_ context.Context, s LastfmSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.LinkedAt.IsZero() {
		s.LinkedAt = time.Now()
	}
	m.session = &s
	return nil
}

func (m *Mock) UnlinkLastfm(context.Context) (*LastfmSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	m.session = nil
	return s, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Pending returns a copy of every queued listen.
func (m *Mock) Pending() []PendingListen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.pending)
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
