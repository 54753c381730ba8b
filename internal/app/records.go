package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/history"
)

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) openHistory(cfg config.Config) (*history.Store, bool) {
	if !cfg.History.Enable {
		fmt.Fprintln(r.Stderr, "error: history is disabled (history.enable=false)")
		return nil, false
	}
	dir, err := cfg.History.ResolvedPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, false
	}
	store, err := history.Open(dir)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: open history: %v\n", err)
		return nil, false
	}
	return store, true
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, limit int) int {
	store, ok := r.openHistory(cfg)
	if !ok {
		return 1
	}
	defer store.Close()

	entries, err := store.List(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no dictations recorded")
		return 0
	}

	renderer := lipgloss.NewRenderer(r.Stdout)
	stampStyle := renderer.NewStyle().Foreground(lipgloss.Color("241"))
	tagStyle := renderer.NewStyle().Foreground(lipgloss.Color("208"))

	for _, entry := range entries {
		var tags []string
		if entry.UsedRefinement {
			tags = append(tags, "refined")
		}
		if entry.TimedOut {
			tags = append(tags, "timeout")
		}
		line := stampStyle.Render(entry.Timestamp.Local().Format("2006-01-02 15:04:05")) + " " + entry.Preview()
		if len(tags) > 0 {
			line += " " + tagStyle.Render("["+strings.Join(tags, ",")+"]")
		}
		fmt.Fprintln(r.Stdout, line)
	}
	return 0
}

func (r Runner) commandStats(ctx context.Context, cfg config.Config) int {
	store, ok := r.openHistory(cfg)
	if !ok {
		return 1
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	renderer := lipgloss.NewRenderer(r.Stdout)
	labelStyle := renderer.NewStyle().Bold(true).Width(10)

	rows := [][2]string{
		{"sessions", fmt.Sprintf("%d", stats.Sessions)},
		{"words", fmt.Sprintf("%d", stats.Words)},
		{"refined", fmt.Sprintf("%d", stats.Refined)},
		{"timeouts", fmt.Sprintf("%d", stats.TimedOut)},
	}
	if stats.Sessions > 0 {
		rows = append(rows,
			[2]string{"first", stats.First.Local().Format(time.RFC3339)},
			[2]string{"last", stats.Last.Local().Format(time.RFC3339)},
		)
	}
	for _, row := range rows {
		fmt.Fprintln(r.Stdout, labelStyle.Render(row[0])+row[1])
	}
	return 0
}
