// Package config holds the persisted settings for the importer. Values are
// layered: built-in defaults, then config.json, then environment, then
// command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"playlist-importer/internal/shared"
)

const (
	DefaultMarket        = "FR"
	DefaultAutoAccept    = 0.92
	DefaultMaxCandidates = 5
	DefaultRedirectURL   = "http://127.0.0.1:8888/callback"
)

// Config is the persisted importer configuration.
type Config struct {
	ClientID      string   `json:"SpotifyClientID"`
	RedirectURL   string   `json:"SpotifyRedirectURL"`
	Market        string   `json:"Market"`
	AutoAccept    float64  `json:"AutoAcceptThreshold"`
	AutoDeny      float64  `json:"AutoDenyThreshold"` // negative disables
	MaxCandidates int      `json:"MaxCandidates"`
	Extensions    []string `json:"Extensions"`
	CacheDir      string   `json:"CacheDir"`
	ReportDir     string   `json:"ReportDir"`
	LogDir        string   `json:"LogDir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RedirectURL:   DefaultRedirectURL,
		Market:        DefaultMarket,
		AutoAccept:    DefaultAutoAccept,
		AutoDeny:      -1,
		MaxCandidates: DefaultMaxCandidates,
		Extensions:    shared.DefaultExtensions,
		CacheDir:      ".cache",
		ReportDir:     "reports",
		LogDir:        "logs",
	}
}

// Load reads config.json over the defaults, then applies environment
// variables. A missing file is not an error; a corrupt one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional and only fills variables not already set.
	godotenv.Load()
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.RedirectURL = v
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := shared.CreateDirIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID is not set (flag, config.json or environment)")
	}
	if c.AutoAccept < 0 || c.AutoAccept > 1 {
		return fmt.Errorf("auto-accept threshold %v out of range [0,1]", c.AutoAccept)
	}
	if c.AutoDeny > 1 {
		return fmt.Errorf("auto-deny threshold %v out of range", c.AutoDeny)
	}
	if c.AutoDeny >= 0 && c.AutoDeny >= c.AutoAccept {
		return fmt.Errorf("auto-deny threshold %v must be below auto-accept %v", c.AutoDeny, c.AutoAccept)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max candidates must be at least 1")
	}
	return nil
}
