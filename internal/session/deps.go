package session

import (
	"context"
	"time"

	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/refine"
)

// StopResult is what the transcriber hands back once input is finalized.
type StopResult struct {
	Transcript      string
	TimedOut        bool
	AudioDevice     string
	BytesCaptured   int64
	FinalizeLatency time.Duration
}

// Transcriber binds audio capture to the recognizer for one session at a time.
type Transcriber interface {
	Start(context.Context) error
	StopAndTranscribe(context.Context) (StopResult, error)
	Cancel(context.Context) error
}

// LevelMeter is polled while recording.
type LevelMeter interface {
	Tick() float64
	Reset()
}

// Refiner rewrites a raw transcript.
type Refiner interface {
	Refine(ctx context.Context, raw string) (string, error)
	Model() string
	Preferences() refine.Preferences
}

// Committer delivers final text to the focused application.
type Committer interface {
	Commit(ctx context.Context, text string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, string) error

func (f CommitFunc) Commit(ctx context.Context, text string) error { return f(ctx, text) }

// HistoryAppender persists finished sessions.
type HistoryAppender interface {
	Append(context.Context, history.Entry) (history.Entry, error)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowFinalizing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) ShowFinalizing(context.Context)    {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}
