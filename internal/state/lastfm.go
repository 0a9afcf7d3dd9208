package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/nowplaying/internal/db"
)

// LastfmSession is the session key granted by `lastfm-link`.
type LastfmSession struct {
	Username   string
	SessionKey string
	LinkedAt   time.Time
}

const selectLastfmSession = `SELECT username, session_key, linked_at FROM lastfm_session WHERE id = 1`

func scanLastfmSession(row rowScanner) (*LastfmSession, error) {
	var s LastfmSession
	var linkedAt int64
	switch err := row.Scan(&s.Username, &s.SessionKey, &linkedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil //nolint:nilnil // not linked
	case err != nil:
		return nil, err
	}
	s.LinkedAt = time.Unix(linkedAt, 0)
	return &s, nil
}

// LinkedLastfm returns the stored session, or nil when Last.fm is not linked.
func (m *Manager) LinkedLastfm(ctx context.Context) (*LastfmSession, error) {
	return scanLastfmSession(m.db.QueryRowContext(ctx, selectLastfmSession))
}

// LinkLastfm stores s, replacing any previous session. A zero LinkedAt is
// set to now.
func (m *Manager) LinkLastfm(ctx context.Context, s LastfmSession) error {
	if s.LinkedAt.IsZero() {
		s.LinkedAt = time.Now()
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO lastfm_session (id, username, session_key, linked_at)
		VALUES (1, ?, ?, ?)`,
		s.Username, s.SessionKey, s.LinkedAt.Unix())
	return err
}

// UnlinkLastfm removes the stored session and returns it, or nil when there
// was none.
func (m *Manager) UnlinkLastfm(ctx context.Context) (*LastfmSession, error) {
	var removed *LastfmSession
	err := db.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		s, err := scanLastfmSession(tx.QueryRowContext(ctx, selectLastfmSession))
		if err != nil || s == nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lastfm_session WHERE id = 1`); err != nil {
			return err
		}
		removed = s
		return nil
	})
	return removed, err
}
