package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/hotkey"
	"github.com/rbright/murmur/internal/indicator"
	"github.com/rbright/murmur/internal/ipc"
	"github.com/rbright/murmur/internal/output"
	"github.com/rbright/murmur/internal/pipeline"
	"github.com/rbright/murmur/internal/refine"
	"github.com/rbright/murmur/internal/session"
	"github.com/rbright/murmur/internal/transcript"
)

// commandRun owns the IPC socket, registers the hotkey, and serves sessions
// until ctx is done.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		Retries: 8,
		OnStale: func(path string) { logger.Warn("removed stale socket", "socket", path) },
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v (control it with `murmur toggle`)\n", err)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	deps, closeDeps, err := buildDeps(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeDeps()

	controller := session.NewController(logger, deps)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &ipc.Server{Handler: controller, Logger: logger}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Serve(runCtx, listener)
	}()

	hotkeyDone := make(chan struct{})
	go func() {
		defer close(hotkeyDone)
		runHotkey(runCtx, cfg.Hotkey, controller, logger)
	}()

	logger.Info("daemon ready", "socket", socketPath, "hotkey", cfg.Hotkey.Binding, "hotkey_enabled", cfg.Hotkey.Enable)
	fmt.Fprintf(r.Stdout, "murmur listening on %s\n", socketPath)

	runErr := controller.Run(runCtx)
	cancel()
	<-hotkeyDone

	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

// runHotkey registers the hold-to-talk chord. Registration failures are
// logged and leave IPC as the only trigger.
func runHotkey(ctx context.Context, cfg config.HotkeyConfig, controller *session.Controller, logger *slog.Logger) {
	if !cfg.Enable {
		return
	}
	binding, err := hotkey.ParseBinding(cfg.Binding)
	if err != nil {
		logger.Error("hotkey disabled", "error", err.Error())
		return
	}
	source, err := hotkey.NewSource(binding)
	if err != nil {
		logger.Error("hotkey disabled", "binding", binding.String(), "error", err.Error())
		return
	}

	monitor := hotkey.NewMonitor(source, cfg.Debounce(), logger)
	err = monitor.Run(ctx, hotkey.Handlers{
		OnPress:   controller.Press,
		OnRelease: controller.Release,
	})
	if err != nil {
		logger.Error("hotkey disabled", "binding", binding.String(), "error", err.Error())
	}
}

// buildDeps assembles the session collaborators from config. The returned
// closer releases the history store and waits for in-flight cues.
func buildDeps(cfg config.Config, logger *slog.Logger) (session.Deps, func(), error) {
	transcriber := pipeline.NewTranscriber(cfg, logger)
	notifier := indicator.New(cfg.Indicator, logger)

	deps := session.Deps{
		Transcriber: transcriber,
		Meter:       transcriber.LevelMeter(),
		Committer:   output.NewCommitter(cfg, logger),
		Indicator:   notifier,
	}

	if cfg.Transcript.CapitalizeSentences {
		deps.Normalize = func(raw string) string {
			return transcript.Normalize(raw, transcript.Options{CapitalizeSentences: true})
		}
	}

	if cfg.Refinement.Enable {
		deps.Refiner = newRefiner(cfg.Refinement, logger)
	}

	var store *history.Store
	if cfg.History.Enable {
		dir, err := cfg.History.ResolvedPath()
		if err != nil {
			return session.Deps{}, nil, err
		}
		store, err = history.Open(dir)
		if err != nil {
			return session.Deps{}, nil, fmt.Errorf("open history: %w", err)
		}
		deps.History = store
	}

	closeDeps := func() {
		notifier.Wait()
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("close history failed", "error", err.Error())
			}
		}
	}
	return deps, closeDeps, nil
}

func newRefiner(cfg config.RefinementConfig, logger *slog.Logger) *refine.Refiner {
	prefs := refine.DefaultPreferences()
	prefs.RemoveFillerWords = cfg.RemoveFiller
	prefs.AutoFormat = cfg.AutoFormat
	if style, err := refine.ParseWritingStyle(cfg.WritingStyle); err == nil {
		prefs.Style = style
	} else {
		logger.Warn("refinement style ignored", "error", err.Error())
	}
	if formality, err := refine.ParseFormality(cfg.Formality); err == nil {
		prefs.Formality = formality
	} else {
		logger.Warn("refinement formality ignored", "error", err.Error())
	}

	client := refine.NewClient(cfg.BaseURL, cfg.ResolvedAPIKey(), nil)
	return refine.NewRefiner(client, prefs, cfg.Model, cfg.Timeout())
}
