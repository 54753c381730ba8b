// Package session coordinates the dictation lifecycle: capture, finalize,
// refine, paste, and record.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/murmur/internal/fsm"
	"github.com/rbright/murmur/internal/history"
)

const (
	defaultLevelInterval = time.Second / 60
	actionBuffer         = 4
)

// Result describes one finished (or abandoned) session.
type Result struct {
	State           fsm.State
	Entry           history.Entry
	TimedOut        bool
	Empty           bool
	Cancelled       bool
	Err             error
	PasteErr        error
	HistoryErr      error
	AudioDevice     string
	BytesCaptured   int64
	FinalizeLatency time.Duration
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Deps wires the controller's collaborators. Nil Refiner disables refinement
// and nil History disables persistence.
type Deps struct {
	Transcriber Transcriber
	Meter       LevelMeter
	Refiner     Refiner
	Committer   Committer
	History     HistoryAppender
	// Normalize, when set, rewrites the raw transcript before refinement and
	// paste. History keeps the recognizer text untouched.
	Normalize     func(string) string
	Indicator     Indicator
	OnResult      func(Result)
	OnLevel       func(float64)
	LevelInterval time.Duration
}

// Controller owns the session state machine. Start, StopAndFinalize, and
// Cancel are serialized; Run executes queued hotkey and IPC requests.
type Controller struct {
	logger *slog.Logger
	deps   Deps
	now    func() time.Time

	opMu      sync.Mutex
	poller    *levelPoller
	startedAt time.Time

	mu             sync.RWMutex
	state          fsm.State
	pendingStart   bool
	cancelFinalize context.CancelFunc

	level   atomic.Uint64
	actions chan action
}

// NewController constructs a controller with no-op fallbacks for optional deps.
func NewController(logger *slog.Logger, deps Deps) *Controller {
	if deps.Committer == nil {
		deps.Committer = CommitFunc(func(context.Context, string) error { return nil })
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.LevelInterval <= 0 {
		deps.LevelInterval = defaultLevelInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		logger:  logger,
		deps:    deps,
		now:     time.Now,
		state:   fsm.StateIdle,
		actions: make(chan action, actionBuffer),
	}
}

// State returns the current state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Level returns the smoothed input level, zero when not recording.
func (c *Controller) Level() float64 {
	return math.Float64frombits(c.level.Load())
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Start begins recording. It is a no-op unless idle, and it never waits
// behind an operation already holding the controller.
func (c *Controller) Start(ctx context.Context) error {
	if c.State() != fsm.StateIdle || !c.opMu.TryLock() {
		return nil
	}
	defer c.opMu.Unlock()

	if c.State() != fsm.StateIdle {
		return nil
	}
	if c.deps.Transcriber == nil {
		return fmt.Errorf("%w: no transcriber configured", ErrRecognizerUnavailable)
	}

	if err := c.deps.Transcriber.Start(ctx); err != nil {
		c.logger.Error("session start failed", "error", err.Error())
		c.deps.Indicator.ShowError(ctx, startErrorText(err))
		return err
	}
	if err := c.transition(fsm.EventStart); err != nil {
		_ = c.deps.Transcriber.Cancel(context.Background())
		return err
	}

	c.startedAt = c.now()
	c.deps.Indicator.ShowRecording(ctx)
	c.startPoller()
	c.logger.Info("recording started")
	return nil
}

// StopAndFinalize ends capture and delivers the transcript. Outside the
// recording state it returns a result carrying ErrNotRecording.
func (c *Controller) StopAndFinalize(ctx context.Context) Result {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	result := Result{StartedAt: c.startedAt}
	if state := c.State(); state != fsm.StateRecording {
		result.State = state
		result.Err = ErrNotRecording
		result.FinishedAt = c.now()
		return result
	}

	c.stopPoller()
	if err := c.transition(fsm.EventStop); err != nil {
		result.Err = err
		return c.finish(result)
	}

	finalizeCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFinalize = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelFinalize = nil
		c.mu.Unlock()
		cancel()
	}()

	c.deps.Indicator.ShowFinalizing(ctx)
	c.deps.Indicator.CueStop(ctx)

	stop, err := c.deps.Transcriber.StopAndTranscribe(finalizeCtx)
	result.AudioDevice = stop.AudioDevice
	result.BytesCaptured = stop.BytesCaptured
	result.FinalizeLatency = stop.FinalizeLatency
	result.TimedOut = stop.TimedOut

	if finalizeCtx.Err() != nil {
		return c.abandon(result)
	}
	if err != nil {
		c.logger.Error("finalize failed", "error", err.Error())
		c.deps.Indicator.ShowError(context.Background(), "Speech recognition failed")
		_ = c.transition(fsm.EventFail)
		result.Err = err
		return c.finish(result)
	}

	raw := stop.Transcript
	if strings.TrimSpace(raw) == "" {
		c.deps.Indicator.Hide(context.Background())
		_ = c.transition(fsm.EventFinalized)
		result.Empty = true
		return c.finish(result)
	}

	text := raw
	if c.deps.Normalize != nil {
		text = c.deps.Normalize(raw)
	}
	final, used := c.refine(finalizeCtx, text)
	if finalizeCtx.Err() != nil {
		return c.abandon(result)
	}

	entry := history.NewEntry(raw, final, used)
	entry.TimedOut = stop.TimedOut
	if c.deps.Refiner != nil {
		prefs := c.deps.Refiner.Preferences()
		entry.Model = c.deps.Refiner.Model()
		entry.WritingStyle = string(prefs.Style)
		entry.Formality = string(prefs.Formality)
	}

	if err := c.deps.Committer.Commit(ctx, final); err != nil {
		c.logger.Error("paste failed", "error", err.Error())
		result.PasteErr = err
	}

	if c.deps.History != nil {
		stored, err := c.deps.History.Append(ctx, entry)
		if err != nil {
			result.HistoryErr = fmt.Errorf("%w: %w", ErrPersistence, err)
			c.logger.Error("history append failed", "error", err.Error())
		} else {
			entry = stored
		}
	}

	if result.PasteErr != nil {
		c.deps.Indicator.ShowError(context.Background(), "Paste failed")
	} else {
		c.deps.Indicator.CueComplete(context.Background())
		c.deps.Indicator.Hide(context.Background())
	}
	_ = c.transition(fsm.EventFinalized)
	result.Entry = entry
	return c.finish(result)
}

// refine returns the text to paste and whether refinement produced it.
func (c *Controller) refine(ctx context.Context, raw string) (string, bool) {
	if c.deps.Refiner == nil {
		return raw, false
	}
	refined, err := c.deps.Refiner.Refine(ctx, raw)
	if err != nil {
		c.logger.Warn("refinement failed; using raw transcript", "error", err.Error())
		return raw, false
	}
	if strings.TrimSpace(refined) == "" {
		c.logger.Warn("refinement returned empty text; using raw transcript")
		return raw, false
	}
	return refined, true
}

// abandon ends a finalization whose context was cancelled.
func (c *Controller) abandon(result Result) Result {
	c.deps.Indicator.CueCancel(context.Background())
	c.deps.Indicator.Hide(context.Background())
	_ = c.transition(fsm.EventCancel)
	result.Cancelled = true
	result.Err = nil
	return c.finish(result)
}

func (c *Controller) finish(result Result) Result {
	result.State = c.State()
	result.FinishedAt = c.now()
	c.logResult(result)
	if c.deps.OnResult != nil {
		c.deps.OnResult(result)
	}
	return result
}

// Cancel discards the current session. While finalizing it cancels the
// in-flight finalization instead.
func (c *Controller) Cancel(ctx context.Context) error {
	if c.interruptFinalize() {
		return nil
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() != fsm.StateRecording {
		return nil
	}
	c.stopPoller()
	err := c.deps.Transcriber.Cancel(ctx)
	_ = c.transition(fsm.EventCancel)
	c.deps.Indicator.CueCancel(ctx)
	c.deps.Indicator.Hide(ctx)
	c.logger.Info("recording cancelled")
	if err != nil {
		return fmt.Errorf("cancel transcriber: %w", err)
	}
	return nil
}

// interruptFinalize cancels an in-flight finalization, if any.
func (c *Controller) interruptFinalize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != fsm.StateFinalizing || c.cancelFinalize == nil {
		return false
	}
	c.cancelFinalize()
	return true
}

// shutdown releases an active recording when the coordinator exits.
func (c *Controller) shutdown() {
	c.interruptFinalize()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.State() != fsm.StateRecording {
		return
	}
	c.stopPoller()
	if err := c.deps.Transcriber.Cancel(context.Background()); err != nil {
		c.logger.Warn("transcriber cancel on shutdown failed", "error", err.Error())
	}
	_ = c.transition(fsm.EventCancel)
	c.deps.Indicator.Hide(context.Background())
}

func (c *Controller) logResult(result Result) {
	attrs := []any{
		"state", string(result.State),
		"empty", result.Empty,
		"cancelled", result.Cancelled,
		"timed_out", result.TimedOut,
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"finalize_latency_ms", result.FinalizeLatency.Milliseconds(),
		"word_count", result.Entry.WordCount,
		"refined", result.Entry.UsedRefinement,
	}
	if result.Err != nil {
		c.logger.Error("session failed", append(attrs, "error", result.Err.Error())...)
		return
	}
	c.logger.Info("session complete", attrs...)
}

func startErrorText(err error) string {
	switch {
	case errors.Is(err, ErrDeviceUnavailable):
		return "Microphone unavailable"
	case errors.Is(err, ErrRecognizerUnavailable):
		return "Speech recognizer unavailable"
	default:
		return "Unable to start recording"
	}
}

type levelPoller struct {
	stop chan struct{}
	done chan struct{}
}

// startPoller samples the level meter until stopPoller. Caller holds opMu.
func (c *Controller) startPoller() {
	if c.deps.Meter == nil {
		return
	}
	c.deps.Meter.Reset()

	p := &levelPoller{stop: make(chan struct{}), done: make(chan struct{})}
	c.poller = p
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(c.deps.LevelInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				level := c.deps.Meter.Tick()
				c.level.Store(math.Float64bits(level))
				if c.deps.OnLevel != nil {
					c.deps.OnLevel(level)
				}
			}
		}
	}()
}

// stopPoller stops the poller and waits for it. Caller holds opMu.
func (c *Controller) stopPoller() {
	if c.poller == nil {
		return
	}
	close(c.poller.stop)
	<-c.poller.done
	c.poller = nil
	c.level.Store(0)
}
