package output

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/murmur/internal/hypr"
)

func hyprPaste(ctx context.Context, shortcut string) error {
	window, err := activeWindowWithRetry(ctx, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, shortcut, window.Address)
}

func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.Window, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		window, err := hypr.ActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return hypr.Window{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return hypr.Window{}, fmt.Errorf("resolve active window: %w", lastErr)
}
