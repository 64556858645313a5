package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UserSettings represents the user's personal settings
type UserSettings struct {
	DownloadLocation string `json:"downloadLocation"`
}

// LoadSettings reads the settings file. A missing file yields zero settings.
func LoadSettings(path string) (UserSettings, error) {
	var settings UserSettings
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// SaveSettings validates and writes the settings file
func SaveSettings(path string, settings UserSettings) error {
	loc := strings.TrimSpace(settings.DownloadLocation)
	if loc != "" {
		if !filepath.IsAbs(loc) {
			return fmt.Errorf("download location must be an absolute path")
		}
		if err := os.MkdirAll(loc, 0755); err != nil {
			return fmt.Errorf("create download location: %w", err)
		}
		settings.DownloadLocation = filepath.Clean(loc)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
