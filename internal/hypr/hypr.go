// Package hypr wraps the hyprctl calls murmur needs on Hyprland sessions.
package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// NotifyIcon selects the glyph hyprctl notify renders.
type NotifyIcon int

const (
	IconWarning NotifyIcon = 0
	IconInfo    NotifyIcon = 1
	IconHint    NotifyIcon = 2
	IconError   NotifyIcon = 3
	IconConfuse NotifyIcon = 4
	IconOK      NotifyIcon = 5
)

const defaultNotifyColor = "rgb(89b4fa)"

// Window is the subset of `hyprctl -j activewindow` used for paste targeting.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
}

// Session reports whether the process runs inside a Hyprland session.
func Session() bool {
	return strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) != ""
}

// ActiveWindow returns the focused window. An empty address is an error.
func ActiveWindow(ctx context.Context) (Window, error) {
	out, err := hyprctl(ctx, "-j", "activewindow")
	if err != nil {
		return Window{}, err
	}

	var window Window
	if err := json.Unmarshal(out, &window); err != nil {
		return Window{}, fmt.Errorf("decode activewindow: %w", err)
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.Title = strings.TrimSpace(window.Title)
	if window.Address == "" {
		return Window{}, fmt.Errorf("activewindow has empty address")
	}
	return window, nil
}

// SendShortcut dispatches "MODS,KEY" to the window at address.
func SendShortcut(ctx context.Context, shortcut string, address string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return fmt.Errorf("shortcut must not be empty")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("window address must not be empty")
	}
	_, err := hyprctl(ctx, "--quiet", "dispatch", "sendshortcut", shortcut+",address:"+address)
	return err
}

// Notify shows a compositor notification for timeoutMS.
func Notify(ctx context.Context, icon NotifyIcon, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = defaultNotifyColor
	}
	_, err := hyprctl(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(int(icon)), strconv.Itoa(timeoutMS), color, text)
	return err
}

// DismissNotify clears every visible notification.
func DismissNotify(ctx context.Context) error {
	_, err := hyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	detail := strings.TrimSpace(string(out))
	if detail == "" {
		return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
	}
	return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
}
