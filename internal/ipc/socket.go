package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning reports a live daemon on the socket.
var ErrAlreadyRunning = errors.New("murmur daemon already running")

const socketName = "murmur.sock"

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/murmur.sock. Without a runtime
// dir (macOS) it uses a per-user directory under the system temp dir.
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketName), nil
	}
	uid := os.Getuid()
	if uid < 0 {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("murmur-%d", uid), socketName), nil
}

// AcquireOptions tunes how Acquire treats an occupied socket path.
type AcquireOptions struct {
	// ProbeTimeout bounds the status probe sent to an existing socket.
	ProbeTimeout time.Duration
	// Retries is the number of extra listen attempts after clearing a stale socket.
	Retries int
	// OnStale runs after a stale socket file is removed.
	OnStale func(path string)
}

func (o AcquireOptions) withDefaults() AcquireOptions {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 180 * time.Millisecond
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	return o
}

// Acquire listens on path so that exactly one daemon owns it. A live owner
// yields ErrAlreadyRunning. A stale socket is unlinked and listening is
// retried with a linear backoff. A socket whose owner neither answers nor
// refuses is left in place.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	opts = opts.withDefaults()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, opts.ProbeTimeout)
		switch {
		case alive:
			return nil, ErrAlreadyRunning
		case probeErr != nil:
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		if opts.OnStale != nil {
			opts.OnStale(path)
		}

		if attempt >= opts.Retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
		}
	}
}
