package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDir = "murmur"

// ResolvePath applies CLI/XDG/home fallback rules for the config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir, "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", appDir, "config.jsonc"), nil
}

// StateDir returns $XDG_STATE_HOME/murmur, falling back to ~/.local/state/murmur.
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state", appDir), nil
}

// ResolvedPath returns the configured history directory or the state default.
func (c HistoryConfig) ResolvedPath() (string, error) {
	if path := strings.TrimSpace(c.Path); path != "" {
		return path, nil
	}
	stateDir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "history"), nil
}
