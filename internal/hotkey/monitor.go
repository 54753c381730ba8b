package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable reports that the chord could not be grabbed.
var ErrUnavailable = errors.New("global hotkey unavailable")

// Handlers receive debounced press and release edges.
type Handlers struct {
	OnPress   func()
	OnRelease func()
}

// Monitor debounces a Source into hold-to-talk edges.
type Monitor struct {
	source   Source
	debounce time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewMonitor(source Source, debounce time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{source: source, debounce: debounce, logger: logger, now: time.Now}
}

// Run registers the chord and dispatches edges until ctx is done.
//
// A repeated keydown while held is ignored, as is a keyup with no matching
// press. A press within debounce of the previous release is dropped together
// with its release.
func (m *Monitor) Run(ctx context.Context, h Handlers) error {
	if err := m.source.Register(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := m.source.Unregister(); err != nil && m.logger != nil {
			m.logger.Debug("hotkey unregister failed", "error", err.Error())
		}
	}()

	var (
		held        bool
		suppressed  bool
		lastRelease time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.source.Keydown():
			if held || suppressed {
				continue
			}
			if !lastRelease.IsZero() && m.now().Sub(lastRelease) < m.debounce {
				suppressed = true
				continue
			}
			held = true
			if h.OnPress != nil {
				h.OnPress()
			}
		case <-m.source.Keyup():
			if suppressed {
				suppressed = false
				continue
			}
			if !held {
				continue
			}
			held = false
			lastRelease = m.now()
			if h.OnRelease != nil {
				h.OnRelease()
			}
		}
	}
}
