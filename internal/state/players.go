package state

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Player is a media player that has been observed on the session bus.
type Player struct {
	Name      string
	Allowed   bool
	FirstSeen time.Time
	LastSeen  time.Time
}

// ListPlayers returns every player seen so far, most recent first.
func (m *Manager) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT name, allowed, first_seen, last_seen FROM players
		ORDER BY last_seen DESC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayer returns the named player, or nil if it was never seen.
func (m *Manager) GetPlayer(ctx context.Context, name string) (*Player, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT name, allowed, first_seen, last_seen FROM players WHERE name = ?
	`, name)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil player means never seen
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SeePlayer records that name was observed at at. A player seen for the first
// time is stored with allowed set to allowNew; known players keep their flag.
func (m *Manager) SeePlayer(ctx context.Context, name string, allowNew bool, at time.Time) (Player, error) {
	row := m.db.QueryRowContext(ctx, `
		INSERT INTO players (name, allowed, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET last_seen = excluded.last_seen
		RETURNING name, allowed, first_seen, last_seen
	`, name, allowNew, at.Unix(), at.Unix())
	return scanPlayer(row)
}

// SetPlayerAllowed sets whether listens from name are submitted. Unknown
// players are created.
func (m *Manager) SetPlayerAllowed(ctx context.Context, name string, allowed bool) error {
	now := time.Now().Unix()
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO players (name, allowed, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET allowed = excluded.allowed
	`, name, allowed, now, now)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(r rowScanner) (Player, error) {
	var p Player
	var firstSeen, lastSeen int64
	if err := r.Scan(&p.Name, &p.Allowed, &firstSeen, &lastSeen); err != nil {
		return Player{}, err
	}
	p.FirstSeen = time.Unix(firstSeen, 0)
	p.LastSeen = time.Unix(lastSeen, 0)
	return p, nil
}
