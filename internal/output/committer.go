// Package output delivers finished text to the focused application.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/config"
)

const (
	clipboardTimeout = 2 * time.Second
	pasteTimeout     = 1200 * time.Millisecond
)

// Committer sets the clipboard and then triggers a paste in the focused window.
type Committer struct {
	config config.Config
	logger *slog.Logger

	writeClipboard func(ctx context.Context, text string) error
	pasteKeys      func(ctx context.Context) error
	pasteHypr      func(ctx context.Context, shortcut string) error
}

// NewCommitter constructs a committer from runtime config.
func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	c := &Committer{
		config:    cfg,
		logger:    logger,
		pasteKeys: sendPasteKeys,
		pasteHypr: hyprPaste,
	}
	c.writeClipboard = c.clipboard
	return c
}

// Commit places text on the clipboard and pastes it. Only a clipboard failure
// is returned; paste failures are logged and leave the clipboard set.
func (c *Committer) Commit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.config.Transcript.TrailingSpace && !strings.HasSuffix(text, " ") {
		text += " "
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := c.writeClipboard(clipboardCtx, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !c.config.Paste.Enable {
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, pasteTimeout)
	defer pasteCancel()
	if err := c.paste(pasteCtx); err != nil {
		c.logPasteFailure(err)
	}
	return nil
}

func (c *Committer) paste(ctx context.Context) error {
	if len(c.config.PasteCmd.Argv) > 0 {
		return runCommandWithInput(ctx, c.config.PasteCmd.Argv, "")
	}

	switch c.config.Paste.Backend {
	case "hypr":
		return c.pasteHypr(ctx, c.config.Paste.Shortcut)
	default:
		return c.pasteKeys(ctx)
	}
}

func (c *Committer) logPasteFailure(err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("paste dispatch failed; clipboard remains set",
		"backend", c.config.Paste.Backend,
		"error", err.Error(),
	)
}
