// Package status mirrors the current listen into a JSON file that status
// bars can read.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nowplaying/internal/players"
	"github.com/llehouerou/nowplaying/internal/submission"
	"github.com/llehouerou/nowplaying/internal/track"
)

// DefaultInterval is how often the file is refreshed while something plays.
const DefaultInterval = 5 * time.Second

// Document is the file's content.
type Document struct {
	Status     string    `json:"status"`
	Text       string    `json:"text"`
	Artist     string    `json:"artist,omitempty"`
	Title      string    `json:"title,omitempty"`
	Album      string    `json:"album,omitempty"`
	Player     string    `json:"player,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	PlayedMs   int64     `json:"played_ms,omitempty"`
	Submitted  bool      `json:"submitted"`
}

// FromSnapshot describes s. A snapshot with nothing playing reads as stopped.
func FromSnapshot(s submission.Snapshot) Document {
	t := s.Track
	if t.IsNothing() {
		return Document{Status: track.StatusStopped.String()}
	}
	return Document{
		Status:     s.Status.String(),
		Text:       t.Artist + " - " + t.Title,
		Artist:     t.Artist,
		Title:      t.Title,
		Album:      t.ReleaseName,
		Player:     players.ShortName(t.Source),
		StartedAt:  t.StartedAt().UTC(),
		DurationMs: t.Duration,
		PlayedMs:   s.Played.Milliseconds(),
		Submitted:  t.Submitted,
	}
}

// Write replaces the file at path with doc atomically.
func Write(path string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending status file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}

// Source provides the current listen.
type Source interface {
	Current() submission.Snapshot
}

// Writer keeps a status file in sync with a tracker.
type Writer struct {
	path     string
	src      Source
	interval time.Duration
	logger   zerolog.Logger
}

// NewWriter creates a writer. interval <= 0 uses DefaultInterval.
func NewWriter(path string, src Source, interval time.Duration, logger zerolog.Logger) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Writer{path: path, src: src, interval: interval, logger: logger}
}

// Run rewrites the file on every tracker event and on every tick where the
// content changed. It leaves a stopped document behind when it returns.
func (w *Writer) Run(ctx context.Context, sub *submission.Subscription) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last Document
	update := func() {
		doc := FromSnapshot(w.src.Current())
		if doc == last {
			return
		}
		if err := Write(w.path, doc); err != nil {
			w.logger.Warn().Err(err).Str("path", w.path).Msg("write status file")
			return
		}
		last = doc
	}
	defer func() {
		if err := Write(w.path, Document{Status: track.StatusStopped.String()}); err != nil {
			w.logger.Debug().Err(err).Msg("clear status file")
		}
	}()

	update()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case <-sub.NowPlaying:
		case <-sub.Submitted:
		case <-ticker.C:
		}
		update()
	}
}
