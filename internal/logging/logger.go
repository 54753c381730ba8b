// Package logging configures the runtime JSONL log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/murmur/internal/config"
)

// Runtime bundles the logger, its adjustable level, and the open file.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	level  *slog.LevelVar
	closer io.Closer
}

// Close closes the log file.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// SetLevel applies a config level name (debug, info, warn, error).
func (r Runtime) SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	if r.level != nil {
		r.level.Set(level)
	}
	return nil
}

// New opens <state dir>/log.jsonl at info level.
func New() (Runtime, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return Runtime{}, err
	}
	path := filepath.Join(stateDir, "log.jsonl")
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return Runtime{Logger: logger, Path: path, level: level, closer: f}, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
