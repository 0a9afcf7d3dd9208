// Package log configures the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const appName = "nowplaying"

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // "debug", "info", ...; falls back to NOWPLAYING_LOG_LEVEL
	Output  io.Writer // defaults to os.Stderr
	Console bool      // human-readable output instead of JSON
}

var (
	mu   sync.Mutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Configure replaces the base logger. Safe to call more than once; the last
// call wins.
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	raw := cfg.Level
	if raw == "" {
		raw = os.Getenv("NOWPLAYING_LOG_LEVEL")
	}
	if raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.TimeOnly}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	mu.Lock()
	base = zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", appName).
		Logger()
	mu.Unlock()
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	l := Base()
	return l.With().Str("component", component).Logger()
}

// OpenFile opens (appending) the log file under the XDG state directory.
// Used by commands that own the terminal, where stderr output would corrupt
// the display.
func OpenFile() (*os.File, error) {
	path, err := xdg.StateFile(filepath.Join(appName, appName+".log"))
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
