// Package pipeline binds audio capture to the streaming recognizer for one
// dictation session at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/murmur/internal/asr"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/session"
)

const (
	sendBuffer  = 64
	meterBuffer = 8
)

type captureClient interface {
	Subscribe(buffer int) <-chan audio.Block
	Close() error
	BytesCaptured() int64
	RawPCM() []byte
}

type streamClient interface {
	Send(pcm []byte) error
	CloseSend() error
	Updates() <-chan asr.Update
	Err() error
	Cancel() error
}

// Transcriber owns one capture -> recognizer session at a time.
type Transcriber struct {
	cfg    config.Config
	logger *slog.Logger
	meter  *audio.LevelMeter

	selectDevice func(ctx context.Context, input string, fallback string) (audio.Selection, error)
	dialStream   func(ctx context.Context, cfg asr.StreamConfig) (streamClient, error)
	openCapture  func(ctx context.Context, device audio.Device) (captureClient, error)
	now          func() time.Time

	mu        sync.Mutex
	started   bool
	selection audio.Selection
	capture   captureClient
	stream    streamClient
	hyp       *hypothesis
	sendDone  chan error
	meterDone chan struct{}

	debugGRPCFile *os.File
}

// NewTranscriber constructs a transcriber from runtime config.
func NewTranscriber(cfg config.Config, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		cfg:          cfg,
		logger:       logger,
		meter:        audio.NewLevelMeter(),
		selectDevice: audio.SelectDevice,
		dialStream: func(ctx context.Context, cfg asr.StreamConfig) (streamClient, error) {
			return asr.Dial(ctx, cfg)
		},
		openCapture: func(ctx context.Context, device audio.Device) (captureClient, error) {
			return audio.Open(ctx, device)
		},
		now: time.Now,
	}
}

// LevelMeter is fed by the active capture and polled by the session.
func (t *Transcriber) LevelMeter() *audio.LevelMeter {
	return t.meter
}

// Start selects the input, opens the recognizer stream, and starts capture.
// The stream and capture live until Stop or Cancel, or until ctx is done.
func (t *Transcriber) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("transcriber already started")
	}

	selection, err := t.selectDevice(ctx, t.cfg.Audio.Input, t.cfg.Audio.Fallback)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrDeviceUnavailable, err)
	}
	if selection.Warning != "" {
		t.logWarn(selection.Warning)
	}

	phrases, _, err := config.BuildSpeechPhrases(t.cfg)
	if err != nil {
		return fmt.Errorf("build speech contexts: %w", err)
	}
	asrPhrases := make([]asr.SpeechPhrase, 0, len(phrases))
	for _, phrase := range phrases {
		asrPhrases = append(asrPhrases, asr.SpeechPhrase{Phrase: phrase.Phrase, Boost: phrase.Boost})
	}

	streamCfg := asr.StreamConfig{
		Endpoint:             t.cfg.Recognizer.GRPC,
		LanguageCode:         t.cfg.Recognizer.LanguageCode,
		Model:                t.cfg.Recognizer.Model,
		AutomaticPunctuation: t.cfg.Recognizer.AutomaticPunctuation,
		SpeechPhrases:        asrPhrases,
		DialTimeout:          t.cfg.Recognizer.DialTimeout(),
	}
	if t.cfg.Debug.EnableGRPCDump {
		file, ferr := createDebugFile("grpc", "jsonl")
		if ferr != nil {
			return ferr
		}
		t.debugGRPCFile = file
		streamCfg.DebugResponseSinkJSON = file
	}

	stream, err := t.dialStream(ctx, streamCfg)
	if err != nil {
		t.closeDebugArtifactsLocked()
		return fmt.Errorf("%w: %w", session.ErrRecognizerUnavailable, err)
	}

	capture, err := t.openCapture(ctx, selection.Device)
	if err != nil {
		_ = stream.Cancel()
		t.closeDebugArtifactsLocked()
		return fmt.Errorf("%w: %w", session.ErrDeviceUnavailable, err)
	}

	t.selection = selection
	t.stream = stream
	t.capture = capture
	t.hyp = watchUpdates(stream.Updates())
	t.sendDone = make(chan error, 1)
	t.meterDone = make(chan struct{})
	t.meter.Reset()

	go t.sendLoop(capture.Subscribe(sendBuffer), stream, t.sendDone)
	go t.meterLoop(capture.Subscribe(meterBuffer), t.meterDone)

	t.started = true
	return nil
}

// StopAndTranscribe ends capture, half-closes the stream, and waits for the
// final hypothesis. It settles on the first of: a final update, the end of
// the stream, the finalize timeout (TimedOut), or ctx cancellation.
func (t *Transcriber) StopAndTranscribe(ctx context.Context) (session.StopResult, error) {
	t.mu.Lock()
	started := t.started
	capture, stream, hyp := t.capture, t.stream, t.hyp
	sendDone, meterDone := t.sendDone, t.meterDone
	selection := t.selection
	t.mu.Unlock()

	if !started {
		return session.StopResult{}, session.ErrNotRecording
	}
	defer t.reset()

	stopAt := t.now()
	deadline := time.NewTimer(t.finalizeTimeout())
	defer deadline.Stop()

	closeErr := capture.Close()
	if closeErr != nil {
		t.logWarn(fmt.Sprintf("capture close: %v", closeErr))
	}

	result := session.StopResult{
		AudioDevice:   describeDevice(selection.Device),
		BytesCaptured: capture.BytesCaptured(),
	}
	defer func() {
		t.writeDebugAudio(capture.RawPCM())
		t.closeDebugArtifacts()
	}()

	timedOut, err := awaitSender(ctx, stream, sendDone, deadline.C)
	<-meterDone
	if err == nil && !timedOut {
		if err := stream.CloseSend(); err != nil {
			t.logWarn(fmt.Sprintf("close recognizer send: %v", err))
		}
		timedOut, err = awaitFinal(ctx, hyp, result.BytesCaptured, deadline.C)
	}
	_ = stream.Cancel()
	<-hyp.ended
	result.FinalizeLatency = t.now().Sub(stopAt)
	result.TimedOut = timedOut
	if err != nil {
		return result, err
	}

	latest := hyp.latest()
	if streamErr := stream.Err(); streamErr != nil {
		if latest.Text == "" {
			return result, fmt.Errorf("%w: %w", session.ErrRecognizerUnavailable, streamErr)
		}
		t.logWarn(fmt.Sprintf("recognizer stream ended with error; keeping partial transcript: %v", streamErr))
	}

	result.Transcript = latest.Text
	return result, nil
}

func (t *Transcriber) finalizeTimeout() time.Duration {
	if timeout := t.cfg.Recognizer.FinalizeTimeout(); timeout > 0 {
		return timeout
	}
	return 2 * time.Second
}

// awaitSender waits for the send loop to flush the closed capture. A
// recognizer that stops reading stalls Send on flow control; the deadline or
// ctx then cancels the stream, which unblocks Send, and the loop is drained.
func awaitSender(ctx context.Context, stream streamClient, sendDone <-chan error, deadline <-chan time.Time) (bool, error) {
	select {
	case sendErr := <-sendDone:
		if sendErr != nil {
			return false, fmt.Errorf("%w: send audio stream: %w", session.ErrRecognizerUnavailable, sendErr)
		}
		return false, nil
	case <-deadline:
		_ = stream.Cancel()
		<-sendDone
		return true, nil
	case <-ctx.Done():
		_ = stream.Cancel()
		<-sendDone
		return false, ctx.Err()
	}
}

// awaitFinal blocks until the hypothesis settles or the shared finalize
// deadline fires. A session with no audio and no updates settles immediately.
func awaitFinal(ctx context.Context, hyp *hypothesis, bytesCaptured int64, deadline <-chan time.Time) (bool, error) {
	if bytesCaptured == 0 && !hyp.received() {
		return false, nil
	}

	select {
	case <-hyp.final:
		return false, nil
	case <-hyp.ended:
		return false, nil
	case <-deadline:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Cancel discards the active session without a transcript.
func (t *Transcriber) Cancel(_ context.Context) error {
	t.mu.Lock()
	started := t.started
	capture, stream := t.capture, t.stream
	sendDone, meterDone := t.sendDone, t.meterDone
	t.mu.Unlock()

	if !started {
		return nil
	}
	defer t.reset()

	var errs []error
	if err := capture.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close capture: %w", err))
	}
	if err := stream.Cancel(); err != nil {
		errs = append(errs, fmt.Errorf("cancel stream: %w", err))
	}
	<-sendDone
	<-meterDone

	t.writeDebugAudio(capture.RawPCM())
	t.closeDebugArtifacts()
	return errors.Join(errs...)
}

func (t *Transcriber) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.capture = nil
	t.stream = nil
	t.hyp = nil
	t.sendDone = nil
	t.meterDone = nil
}

// sendLoop forwards blocks until the capture closes the subscription and
// reports the first send failure. After a failure it keeps draining.
func (t *Transcriber) sendLoop(blocks <-chan audio.Block, stream streamClient, done chan<- error) {
	var sendErr error
	for block := range blocks {
		if sendErr != nil {
			continue
		}
		if err := stream.Send(block.PCM16()); err != nil {
			sendErr = err
		}
	}
	done <- sendErr
}

func (t *Transcriber) meterLoop(blocks <-chan audio.Block, done chan<- struct{}) {
	defer close(done)
	for block := range blocks {
		t.meter.Observe(block.Samples)
	}
}

// hypothesis keeps the latest recognizer update and pins the first final
// one. The watch goroutine is its only writer.
type hypothesis struct {
	current   atomic.Pointer[asr.Update]
	settled   atomic.Pointer[asr.Update]
	final     chan struct{}
	finalOnce sync.Once
	ended     chan struct{}
}

func watchUpdates(updates <-chan asr.Update) *hypothesis {
	h := &hypothesis{final: make(chan struct{}), ended: make(chan struct{})}
	go func() {
		defer close(h.ended)
		for update := range updates {
			u := update
			h.current.Store(&u)
			if u.IsFinal {
				h.finalOnce.Do(func() {
					h.settled.Store(&u)
					close(h.final)
				})
			}
		}
	}()
	return h
}

func (h *hypothesis) latest() asr.Update {
	if u := h.settled.Load(); u != nil {
		return *u
	}
	if u := h.current.Load(); u != nil {
		return *u
	}
	return asr.Update{}
}

func (h *hypothesis) received() bool {
	return h.current.Load() != nil
}

// describeDevice formats device metadata for logs and results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

func (t *Transcriber) logWarn(message string) {
	if t.logger == nil {
		return
	}
	t.logger.Warn(message)
}

// createDebugFile creates a timestamped artifact under <state dir>/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

func (t *Transcriber) closeDebugArtifacts() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeDebugArtifactsLocked()
}

func (t *Transcriber) closeDebugArtifactsLocked() {
	if t.debugGRPCFile != nil {
		_ = t.debugGRPCFile.Close()
		t.debugGRPCFile = nil
	}
}

// writeDebugAudio dumps the session's PCM as WAV when debug.audio_dump is set.
func (t *Transcriber) writeDebugAudio(rawPCM []byte) {
	if !t.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		t.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if err := audio.WriteWAV(file, rawPCM, audio.SampleRate, audio.Channels); err != nil {
		t.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}
