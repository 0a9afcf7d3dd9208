// Package state persists tracker state in a local SQLite database.
package state

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const appName = "nowplaying"

// pragmas apply to every pooled connection.
const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

type Manager struct {
	db *sql.DB
}

// Open opens $XDG_DATA_HOME/nowplaying/nowplaying.db, creating it if needed.
func Open() (*Manager, error) {
	path, err := xdg.DataFile(filepath.Join(appName, appName+".db"))
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath opens the database at path, or a private in-memory one for
// ":memory:", and brings its schema up to date.
func OpenPath(path string) (*Manager, error) {
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error { return m.db.Close() }

func (m *Manager) DB() *sql.DB { return m.db }
