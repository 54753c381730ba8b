package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// A missing file yields defaults plus a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	content, mode, err := readConfigFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return loaded, nil
	case err != nil:
		return Loaded{}, err
	}

	cfg, warnings, err := Parse(content, loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if strings.TrimSpace(cfg.Refinement.APIKey) != "" && mode&0o077 != 0 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config holds refinement.api_key but is readable by other users (mode %04o); consider chmod 600 or refinement.api_key_env", mode),
		})
	}

	loaded.Config = cfg
	loaded.Warnings = warnings
	loaded.Exists = true
	return loaded, nil
}

func readConfigFile(path string) (string, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("stat config %q: %w", path, err)
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("config path %q is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read config %q: %w", path, err)
	}
	return string(content), info.Mode().Perm(), nil
}
