package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the headless-Chromium PNG export of the grid page.
type CaptureConfig struct {
	// Enabled gates the /api/export/png endpoint; disable on hosts without
	// a Chromium binary.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Width and Height are the capture viewport in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone activities and exports are anchored in
	// (e.g. "Asia/Taipei").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekdayLabels are the seven display labels, Monday first. Injected
	// rather than hardcoded so the UI can be re-localized without a build.
	WeekdayLabels []string `yaml:"weekday_labels" json:"weekday_labels"`

	// SessionTTLMinutes bounds how long a generated schedule stays
	// available for export after its last submission.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" json:"session_ttl_minutes"`

	// SweepCron is a cron-style schedule for evicting expired schedules
	// from the in-memory store (e.g. "*/10 * * * *").
	SweepCron string `yaml:"sweep" json:"sweep"`

	// SessionSecret signs the session cookie. Usually supplied via the
	// WEEKCAL_SESSION_SECRET environment variable instead of the file.
	SessionSecret string `yaml:"session_secret,omitempty" json:"-"`

	// RedisAddr, if set, switches the schedule store from in-memory to
	// Redis (host:port).
	RedisAddr string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`

	// Capture configures PNG export.
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultWeekdayLabels matches the DSL's weekday tokens, Monday first.
var DefaultWeekdayLabels = []string{"一", "二", "三", "四", "五", "六", "日"}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Asia/Taipei",
		WeekdayLabels:     append([]string(nil), DefaultWeekdayLabels...),
		SessionTTLMinutes: 24 * 60,
		SweepCron:         "*/10 * * * *",
		Capture: CaptureConfig{
			Enabled: false,
			Width:   1280,
			Height:  1600,
		},
		LogLevel:  "info",
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Taipei"
	}
	if len(c.WeekdayLabels) != 7 {
		c.WeekdayLabels = append([]string(nil), DefaultWeekdayLabels...)
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 24 * 60
	}
	if c.SweepCron == "" {
		c.SweepCron = "*/10 * * * *"
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = 1280
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 1600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	// Environment wins for the cookie secret so it never has to live in
	// the config file.
	if env := os.Getenv("WEEKCAL_SESSION_SECRET"); env != "" {
		c.SessionSecret = env
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".weekcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
