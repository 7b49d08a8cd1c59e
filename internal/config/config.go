// Package config loads and saves chemviz configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all chemviz configuration.
type Config struct {
	API       APIConfig      `toml:"api"`
	Downloads DownloadConfig `toml:"downloads"`
	TUI       TUIConfig      `toml:"tui"`
}

// APIConfig holds backend connection settings. The password is deliberately
// not a config field: the secret lives only in memory for the session.
type APIConfig struct {
	BaseURL  string `toml:"base_url,omitempty"`
	Username string `toml:"username,omitempty"`
}

// DownloadConfig holds report download settings.
type DownloadConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// TUIConfig holds dashboard preferences.
type TUIConfig struct {
	Theme              string `toml:"theme"`
	AutoRefresh        bool   `toml:"auto_refresh"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TUI: TUIConfig{
			Theme:              "flexoki-dark",
			RefreshIntervalSec: 30,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chemviz")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "chemviz")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// BaseURL returns the backend base URL from the API_BASE env var or config,
// in that order. Empty means the client's built-in default.
func BaseURL(cfg Config) string {
	if base := os.Getenv("API_BASE"); base != "" {
		return base
	}
	return cfg.API.BaseURL
}

// Username returns the default identity from env var or config, in that order.
func Username(cfg Config) string {
	if u := os.Getenv("CHEMVIZ_USER"); u != "" {
		return u
	}
	return cfg.API.Username
}

// Password returns the secret from the environment only; it is never stored.
func Password() string {
	return os.Getenv("CHEMVIZ_PASS")
}

// DownloadDir returns the report download directory, defaulting to the
// current directory.
func DownloadDir(cfg Config) string {
	if cfg.Downloads.Dir != "" {
		return cfg.Downloads.Dir
	}
	return "."
}
