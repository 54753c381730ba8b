package indicator

import (
	"context"

	"github.com/gen2brain/beeep"
	"github.com/rbright/murmur/internal/hypr"
)

var toneColors = map[tone]string{
	toneRecording:  "rgb(89b4fa)",
	toneFinalizing: "rgb(cba6f7)",
	toneError:      "rgb(f38ba8)",
}

type hyprSurface struct{}

func (hyprSurface) notify(ctx context.Context, kind tone, timeoutMS int, text string) error {
	icon := hypr.IconInfo
	if kind == toneError {
		icon = hypr.IconError
	}
	return hypr.Notify(ctx, icon, timeoutMS, toneColors[kind], text)
}

func (hyprSurface) dismiss(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}

// desktopSurface posts freedesktop/OS notifications. They expire on their own,
// so dismiss is a no-op.
type desktopSurface struct {
	appName string
	send    func(title string, message string) error
}

func newDesktopSurface(appName string) desktopSurface {
	if appName == "" {
		appName = "murmur"
	}
	beeep.AppName = appName
	return desktopSurface{
		appName: appName,
		send: func(title string, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (d desktopSurface) notify(ctx context.Context, _ tone, _ int, text string) error {
	done := make(chan error, 1)
	go func() { done <- d.send(d.appName, text) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (desktopSurface) dismiss(context.Context) error { return nil }

type noSurface struct{}

func (noSurface) notify(context.Context, tone, int, string) error { return nil }
func (noSurface) dismiss(context.Context) error                   { return nil }
