package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment
type Config struct {
	Port             string        `env:"SERVER_PORT" envDefault:"8080"`
	GinMode          string        `env:"GIN_MODE" envDefault:"release"`
	DownloadLocation string        `env:"DOWNLOAD_LOCATION"`
	HistoryPath      string        `env:"HISTORY_PATH"`
	YouTubeAPIKey    string        `env:"YOUTUBE_API_KEY"`
	GeniusAPIKey     string        `env:"GENIUS_API_KEY"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	SearchRateLimit  float64       `env:"SEARCH_RATE_LIMIT" envDefault:"5"`
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
	YouTubeAPIBase   string        `env:"YOUTUBE_API_BASE" envDefault:"https://www.googleapis.com/youtube/v3"`
	GeniusAPIBase    string        `env:"GENIUS_API_BASE" envDefault:"https://api.genius.com"`

	settingsPath string
}

// Load reads an optional .env file and parses the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using system environment")
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(homeDir(), ".songfetch", "history.json")
	}
	cfg.settingsPath = filepath.Join(homeDir(), ".songfetch-settings.json")
	return &cfg, nil
}

// SettingsPath returns the user settings file location
func (c *Config) SettingsPath() string {
	return c.settingsPath
}

// WithSettingsPath returns a copy of c reading settings from path
func (c *Config) WithSettingsPath(path string) *Config {
	cp := *c
	cp.settingsPath = path
	return &cp
}

// DownloadDir resolves the download location: settings file first, then
// DOWNLOAD_LOCATION, then ~/Music/songfetch
func (c *Config) DownloadDir() string {
	if settings, err := LoadSettings(c.settingsPath); err == nil && settings.DownloadLocation != "" {
		return settings.DownloadLocation
	}
	if c.DownloadLocation != "" {
		return c.DownloadLocation
	}
	return DefaultDownloadLocation()
}

// DefaultDownloadLocation is the OS-appropriate fallback download folder
func DefaultDownloadLocation() string {
	home := homeDir()
	if home == "." {
		return filepath.Join(".", "downloads")
	}
	return filepath.Join(home, "Music", "songfetch")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
