// Package config resolves the sr data directory and loads user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Dir resolves the sr data directory, which holds catalog.db, settings.toml,
// and per-scheduler state. Resolution order:
//
//  1. The SR_DIR environment variable.
//  2. A "DIR=" line in ~/.config/sr/config.
//  3. ~/.local/share/sr.
func Dir() (string, error) {
	if dir := os.Getenv("SR_DIR"); dir != "" {
		return dir, nil
	}

	var home, err = os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	if text, err := os.ReadFile(filepath.Join(home, ".config", "sr", "config")); err == nil {
		for _, line := range strings.Split(string(text), "\n") {
			line = strings.TrimSpace(line)
			if dir, ok := strings.CutPrefix(line, "DIR="); ok {
				return strings.TrimSpace(dir), nil
			}
		}
	}
	return filepath.Join(home, ".local", "share", "sr"), nil
}

// EnsureDir resolves the data directory and creates it if absent.
func EnsureDir() (string, error) {
	var dir, err = Dir()
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %q: %w", dir, err)
	}
	return dir, nil
}

// Settings are the user's preferences, from settings.toml in the data
// directory.
type Settings struct {
	// Scheduler names the scheduling policy driving reviews.
	Scheduler string `toml:"scheduler"`
	// ReviewPort is the review server's port; browse and decks servers
	// bind the two ports above it.
	ReviewPort int `toml:"review_port"`
	// EditCommand launches an editor on a card's source, with {file} and
	// {line} placeholders. Empty disables edit actions.
	EditCommand string `toml:"edit_command"`
}

// DefaultSettings returns the settings used when settings.toml is absent.
func DefaultSettings() Settings {
	return Settings{
		Scheduler:  "sm2",
		ReviewPort: 8791,
	}
}

// LoadSettings reads settings.toml from the data directory, applying
// defaults for keys the file omits. A missing file yields pure defaults.
func LoadSettings(dir string) (Settings, error) {
	var settings = DefaultSettings()

	var text, err = os.ReadFile(filepath.Join(dir, "settings.toml"))
	if os.IsNotExist(err) {
		return settings, nil
	} else if err != nil {
		return settings, fmt.Errorf("reading settings.toml: %w", err)
	}

	if err = toml.Unmarshal(text, &settings); err != nil {
		return settings, fmt.Errorf("parsing settings.toml: %w", err)
	}
	if settings.Scheduler == "" {
		settings.Scheduler = "sm2"
	}
	if settings.ReviewPort == 0 {
		settings.ReviewPort = DefaultSettings().ReviewPort
	}
	return settings, nil
}
