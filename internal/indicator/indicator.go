// Package indicator shows session state to the user through notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/config"
)

const (
	opTimeout         = 400 * time.Millisecond
	stickyTimeoutMS   = 300000
	defaultErrTimeout = 1200
)

// Indicator is the session-facing lifecycle signal contract.
type Indicator interface {
	ShowRecording(context.Context)
	ShowFinalizing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

type tone int

const (
	toneRecording tone = iota + 1
	toneFinalizing
	toneError
)

// surface is one notification backend.
type surface interface {
	notify(ctx context.Context, kind tone, timeoutMS int, text string) error
	dismiss(ctx context.Context) error
}

// Notifier routes lifecycle signals to the configured backend and cue player.
type Notifier struct {
	cfg     config.IndicatorConfig
	logger  *slog.Logger
	texts   texts
	surface surface

	play    func(cueKind) error
	soundMu sync.Mutex
	cues    sync.WaitGroup
}

// New builds a Notifier for cfg.Backend ("desktop", "hypr", or "none").
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{
		cfg:     cfg,
		logger:  logger,
		texts:   resolveTexts(cfg),
		surface: newSurface(cfg),
	}
	n.play = func(kind cueKind) error { return emitCue(kind, cfg) }
	return n
}

func newSurface(cfg config.IndicatorConfig) surface {
	if !cfg.Enable {
		return noSurface{}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "hypr":
		return hyprSurface{}
	case "none":
		return noSurface{}
	default:
		return newDesktopSurface(cfg.AppName)
	}
}

// ShowRecording plays the start cue and shows the recording notice.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.playCue(cueStart)
	n.run(ctx, func(ctx context.Context) error {
		return n.surface.notify(ctx, toneRecording, stickyTimeoutMS, n.texts.recording)
	})
}

// ShowFinalizing replaces the recording notice while the transcript settles.
func (n *Notifier) ShowFinalizing(ctx context.Context) {
	n.run(ctx, func(ctx context.Context) error {
		return n.surface.notify(ctx, toneFinalizing, stickyTimeoutMS, n.texts.finalizing)
	})
}

// ShowError shows text, or the configured error text when empty.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		text = n.texts.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrTimeout
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.surface.notify(ctx, toneError, timeout, text)
	})
}

func (n *Notifier) CueStop(context.Context)     { n.playCue(cueStop) }
func (n *Notifier) CueComplete(context.Context) { n.playCue(cueComplete) }
func (n *Notifier) CueCancel(context.Context)   { n.playCue(cueCancel) }

// Hide dismisses the current notice.
func (n *Notifier) Hide(ctx context.Context) {
	n.run(ctx, n.surface.dismiss)
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue plays asynchronously; cues never overlap.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.play(kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}

// Nop discards every signal.
type Nop struct{}

func (Nop) ShowRecording(context.Context)     {}
func (Nop) ShowFinalizing(context.Context)    {}
func (Nop) ShowError(context.Context, string) {}
func (Nop) CueStop(context.Context)           {}
func (Nop) CueComplete(context.Context)       {}
func (Nop) CueCancel(context.Context)         {}
func (Nop) Hide(context.Context)              {}
