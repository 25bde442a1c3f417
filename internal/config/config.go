package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the panel.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the panel.
	Listen string `yaml:"listen" json:"listen"`

	// Endpoint is the script API base URL (the deployed web app URL).
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Token is the opaque API token the script backend expects.
	Token string `yaml:"token" json:"token"`

	// Timezone is the IANA zone used for day keys and labels
	// (e.g. "Europe/Berlin"). Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule for background refreshes
	// (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// FetchTimeoutSeconds bounds one round trip to the script endpoint.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`

	// PreviewLines caps the per-cell event preview in month view.
	PreviewLines int `yaml:"preview_lines" json:"preview_lines"`

	// WeekPreviewLines caps the per-cell preview in week view;
	// 0 shows every event.
	WeekPreviewLines int `yaml:"week_preview_lines" json:"week_preview_lines"`

	// SlideshowIntervalSeconds is the photo rotation period.
	SlideshowIntervalSeconds int `yaml:"slideshow_interval_seconds" json:"slideshow_interval_seconds"`

	// BasicAuth, if non-nil, guards all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration. Endpoint and
// Token stay empty on purpose; the panel renders a setup hint until they are
// filled in.
func DefaultConfig() *Config {
	return &Config{
		Listen:                   "127.0.0.1:8080",
		RefreshCron:              "*/15 * * * *",
		FetchTimeoutSeconds:      12,
		PreviewLines:             3,
		WeekPreviewLines:         0,
		SlideshowIntervalSeconds: 30,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 12
	}
	if c.PreviewLines <= 0 {
		c.PreviewLines = 3
	}
	if c.WeekPreviewLines < 0 {
		c.WeekPreviewLines = 0
	}
	if c.SlideshowIntervalSeconds <= 0 {
		c.SlideshowIntervalSeconds = 30
	}
}

// ApplyEnv overrides endpoint and token from the environment, so the secret
// token can stay out of the config file. CALPANE_ENDPOINT / CALPANE_TOKEN.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CALPANE_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("CALPANE_TOKEN"); v != "" {
		c.Token = v
	}
}

// FetchTimeout returns the transport timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// SlideshowInterval returns the photo rotation period as a duration.
func (c *Config) SlideshowInterval() time.Duration {
	return time.Duration(c.SlideshowIntervalSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to host local on
// empty or invalid values.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write a
//     default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
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

// Save writes the given configuration to the specified path. The file holds
// the API token, so it is written atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".calpane-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
