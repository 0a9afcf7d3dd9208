package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/llehouerou/nowplaying/internal/db"
)

// migrations run in order, each once. PRAGMA user_version records how many
// have been applied.
var migrations = []string{
	`CREATE TABLE lastfm_session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		username TEXT NOT NULL,
		session_key TEXT NOT NULL,
		linked_at INTEGER NOT NULL
	);

	CREATE TABLE pending_listens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service TEXT NOT NULL,
		artist TEXT NOT NULL,
		title TEXT NOT NULL,
		release_name TEXT,
		album_artist TEXT,
		recording_mbid TEXT,
		source TEXT,
		started_at_ms INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX idx_pending_listens_service ON pending_listens(service, created_at);

	CREATE TABLE players (
		name TEXT PRIMARY KEY,
		allowed INTEGER NOT NULL DEFAULT 0,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);`,
}

func schemaVersion(ctx context.Context, sqldb *sql.DB) (int, error) {
	var v int
	err := sqldb.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v)
	return v, err
}

func migrate(ctx context.Context, sqldb *sql.DB) error {
	version, err := schemaVersion(ctx, sqldb)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		err := db.WithTx(ctx, sqldb, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1))
			return err
		})
		if err != nil {
			return fmt.Errorf("schema migration %d: %w", i+1, err)
		}
	}
	return nil
}
