package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/llehouerou/nowplaying/internal/db"
	"github.com/llehouerou/nowplaying/internal/track"
)

// PendingListen is a completed listen that could not be delivered to a service.
type PendingListen struct {
	ID        int64
	Service   string
	Track     track.PlayingTrack
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// AddPendingListen queues t for a later retry against service.
func (m *Manager) AddPendingListen(ctx context.Context, service string, t track.PlayingTrack, lastErr string) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
		INSERT INTO pending_listens
			(service, artist, title, release_name, album_artist, recording_mbid, source,
			 started_at_ms, duration_ms, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, service, t.Artist, t.Title,
		db.Null(t.ReleaseName), db.Null(t.AlbumArtist), db.Null(t.RecordingMBID),
		db.Null(t.Source), t.Timestamp, t.Duration,
		db.Null(lastErr), time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PendingListens returns up to limit queued listens for service with fewer
// than maxAttempts attempts, oldest first.
func (m *Manager) PendingListens(ctx context.Context, service string, maxAttempts, limit int) ([]PendingListen, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, service, artist, title, release_name, album_artist, recording_mbid, source,
		       started_at_ms, duration_ms, attempts, last_error, created_at
		FROM pending_listens
		WHERE service = ? AND attempts < ?
		ORDER BY started_at_ms ASC, id ASC
		LIMIT ?
	`, service, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingListen
	for rows.Next() {
		var p PendingListen
		var release, albumArtist, mbid, source, lastErr sql.Null[string]
		var createdAt int64
		if err := rows.Scan(
			&p.ID, &p.Service, &p.Track.Artist, &p.Track.Title,
			&release, &albumArtist, &mbid, &source,
			&p.Track.Timestamp, &p.Track.Duration, &p.Attempts, &lastErr, &createdAt,
		); err != nil {
			return nil, err
		}
		p.Track.ReleaseName = release.V
		p.Track.AlbumArtist = albumArtist.V
		p.Track.RecordingMBID = mbid.V
		p.Track.Source = source.V
		p.Track.PlayingNowSubmitted = true
		p.Track.Submitted = true
		p.LastError = lastErr.V
		p.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePendingListens removes delivered listens.
func (m *Manager) DeletePendingListens(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM pending_listens WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkPendingListensFailed bumps the attempt counter of ids and records errMsg.
func (m *Manager) MarkPendingListensFailed(ctx context.Context, ids []int64, errMsg string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE pending_listens SET attempts = attempts + 1, last_error = ? WHERE id = ?
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, db.Null(errMsg), id); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrunePendingListens drops listens queued before cutoff and returns how many
// were removed.
func (m *Manager) PrunePendingListens(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM pending_listens WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingCounts returns the number of queued listens per service.
func (m *Manager) PendingCounts(ctx context.Context) (map[string]int, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT service, COUNT(*) FROM pending_listens GROUP BY service
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var service string
		var n int
		if err := rows.Scan(&service, &n); err != nil {
			return nil, err
		}
		counts[service] = n
	}
	return counts, rows.Err()
}
