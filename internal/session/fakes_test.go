package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/murmur/internal/fsm"
	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/refine"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	startErr error
	stop     StopResult
	stopErr  error
	// block makes StopAndTranscribe wait for its context.
	block bool

	starts  atomic.Int32
	stops   atomic.Int32
	cancels atomic.Int32
}

func (f *fakeTranscriber) Start(context.Context) error {
	f.starts.Add(1)
	return f.startErr
}

func (f *fakeTranscriber) StopAndTranscribe(ctx context.Context) (StopResult, error) {
	f.stops.Add(1)
	if f.block {
		<-ctx.Done()
		return StopResult{AudioDevice: f.stop.AudioDevice}, ctx.Err()
	}
	return f.stop, f.stopErr
}

func (f *fakeTranscriber) Cancel(context.Context) error {
	f.cancels.Add(1)
	return nil
}

type fakeRefiner struct {
	out   string
	err   error
	calls atomic.Int32
}

func (f *fakeRefiner) Refine(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	return f.out, f.err
}

func (f *fakeRefiner) Model() string { return "gpt-4o-mini" }

func (f *fakeRefiner) Preferences() refine.Preferences {
	return refine.Preferences{Style: refine.StyleProfessional, Formality: refine.FormalityNeutral}
}

type fakeCommitter struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeCommitter) Commit(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeCommitter) committed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Append(_ context.Context, entry history.Entry) (history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return history.Entry{}, f.err
	}
	entry.ID = "entry-1"
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeHistory) appended() []history.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]history.Entry(nil), f.entries...)
}

type fakeIndicator struct {
	recording    atomic.Int32
	finalizing   atomic.Int32
	stopCues     atomic.Int32
	completeCues atomic.Int32
	cancelCues   atomic.Int32
	hides        atomic.Int32

	mu     sync.Mutex
	errors []string
}

func (f *fakeIndicator) ShowRecording(context.Context)  { f.recording.Add(1) }
func (f *fakeIndicator) ShowFinalizing(context.Context) { f.finalizing.Add(1) }
func (f *fakeIndicator) ShowError(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, text)
}
func (f *fakeIndicator) CueStop(context.Context)     { f.stopCues.Add(1) }
func (f *fakeIndicator) CueComplete(context.Context) { f.completeCues.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)   { f.cancelCues.Add(1) }
func (f *fakeIndicator) Hide(context.Context)        { f.hides.Add(1) }

func (f *fakeIndicator) errorTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}

type fakeMeter struct {
	level  float64
	ticks  atomic.Int32
	resets atomic.Int32
}

func (f *fakeMeter) Tick() float64 {
	f.ticks.Add(1)
	return f.level
}

func (f *fakeMeter) Reset() { f.resets.Add(1) }

var errBoom = errors.New("boom")

func waitForState(t *testing.T, ctrl *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool { return ctrl.State() == want }, 2*time.Second, time.Millisecond)
}
