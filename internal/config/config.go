package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// ListenBrainz submission and the watch card
	ListenBrainz ListenBrainzConfig `koanf:"listenbrainz"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Which media players may submit listens
	Players PlayersConfig `koanf:"players"`

	// Desktop notifications
	Notifications NotificationsConfig `koanf:"notifications"`

	// Pending listen resubmission
	Retry RetryConfig `koanf:"retry"`

	Log LogConfig `koanf:"log"`

	// Prometheus endpoint (disabled when listen is empty)
	Metrics MetricsConfig `koanf:"metrics"`

	// JSON file describing the current listen, for status bars
	StatusFile string `koanf:"status_file"`
}

// ListenBrainzConfig holds ListenBrainz configuration.
type ListenBrainzConfig struct {
	Token        string        `koanf:"token"`         // user token from listenbrainz.org/settings
	Username     string        `koanf:"username"`      // default user for `watch`
	BaseURL      string        `koanf:"base_url"`      // custom instance (default: api.listenbrainz.org)
	PollInterval time.Duration `koanf:"poll_interval"` // playing-now poll period for `watch` (default: 15s)
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// PlayersConfig controls the player allow-list.
type PlayersConfig struct {
	SubmitListens    *bool    `koanf:"submit_listens"`     // master switch (default: true)
	ListenNewPlayers *bool    `koanf:"listen_new_players"` // allow players seen for the first time (default: true)
	Allowed          []string `koanf:"allowed"`            // always allowed, by short name (e.g. "mpv")
}

// NotificationsConfig selects which events raise a desktop notification.
type NotificationsConfig struct {
	NowPlaying *bool `koanf:"now_playing"` // default: true
	Submitted  *bool `koanf:"submitted"`   // default: false
	Failures   *bool `koanf:"failures"`    // default: true
}

// RetryConfig tunes the pending listen queue.
type RetryConfig struct {
	Interval    time.Duration `koanf:"interval"`     // default: 5m
	MaxAttempts int           `koanf:"max_attempts"` // default: 10
	MaxAgeDays  int           `koanf:"max_age_days"` // default: 14
}

// LogConfig selects the log level and destination.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  *bool  `koanf:"file"`  // write to the XDG state log file instead of stderr (default: false)
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `koanf:"listen"` // e.g. "127.0.0.1:9464"
}

func Load() (*Config, error) {
	return LoadFiles(getConfigPaths()...)
}

// LoadFiles loads the given files in order, skipping missing ones. Later
// files override earlier ones.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.ListenBrainz.BaseURL = strings.TrimSuffix(cfg.ListenBrainz.BaseURL, "/")
	cfg.StatusFile = expandPath(cfg.StatusFile)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/nowplaying/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nowplaying", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// HasListenBrainzConfig returns true if a ListenBrainz token is configured.
func (c *Config) HasListenBrainzConfig() bool {
	return c.ListenBrainz.Token != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// HasMetricsConfig returns true if the Prometheus endpoint is enabled.
func (c *Config) HasMetricsConfig() bool {
	return c.Metrics.Listen != ""
}

// GetListenBrainzConfig returns the ListenBrainz configuration with defaults applied.
func (c *Config) GetListenBrainzConfig() ListenBrainzConfig {
	cfg := c.ListenBrainz
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.listenbrainz.org"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	return cfg
}

// SubmitListens reports the master switch.
func (c *Config) SubmitListens() bool {
	return boolOr(c.Players.SubmitListens, true)
}

// ListenNewPlayers reports whether unseen players are allowed on sight.
func (c *Config) ListenNewPlayers() bool {
	return boolOr(c.Players.ListenNewPlayers, true)
}

// NotifyNowPlaying reports whether a notification is shown for a new track.
func (c *Config) NotifyNowPlaying() bool {
	return boolOr(c.Notifications.NowPlaying, true)
}

// NotifySubmitted reports whether a notification is shown for a submitted listen.
func (c *Config) NotifySubmitted() bool {
	return boolOr(c.Notifications.Submitted, false)
}

// NotifyFailures reports whether a notification is shown for a failed submission.
func (c *Config) NotifyFailures() bool {
	return boolOr(c.Notifications.Failures, true)
}

// LogToFile reports whether the daemon logs to the XDG state file.
func (c *Config) LogToFile() bool {
	return boolOr(c.Log.File, false)
}

// GetRetryConfig returns the retry configuration with defaults applied.
func (c *Config) GetRetryConfig() RetryConfig {
	cfg := c.Retry

	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 14
	}

	return cfg
}

// MaxAge returns MaxAgeDays as a duration.
func (r RetryConfig) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeDays) * 24 * time.Hour
}
