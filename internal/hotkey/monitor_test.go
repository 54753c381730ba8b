package hotkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	keydown     chan struct{}
	keyup       chan struct{}
	registerErr error

	mu           sync.Mutex
	unregistered bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{keydown: make(chan struct{}), keyup: make(chan struct{})}
}

func (f *fakeSource) Register() error { return f.registerErr }
func (f *fakeSource) Unregister() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregistered = true
	return nil
}
func (f *fakeSource) Keydown() <-chan struct{} { return f.keydown }
func (f *fakeSource) Keyup() <-chan struct{}   { return f.keyup }

type edgeLog struct {
	mu    sync.Mutex
	edges []string
}

func (l *edgeLog) handlers() Handlers {
	return Handlers{
		OnPress:   func() { l.add("press") },
		OnRelease: func() { l.add("release") },
	}
}

func (l *edgeLog) add(edge string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges = append(l.edges, edge)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func startMonitor(t *testing.T, source *fakeSource, debounce time.Duration, clock *fakeClock) (*edgeLog, func()) {
	t.Helper()

	monitor := NewMonitor(source, debounce, nil)
	monitor.now = clock.Now
	log := &edgeLog{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx, log.handlers()) }()

	return log, func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not stop")
		}
	}
}

func TestMonitorPressRelease(t *testing.T) {
	source := newFakeSource()
	clock := &fakeClock{now: time.Unix(0, 0)}
	log, stop := startMonitor(t, source, 50*time.Millisecond, clock)

	source.keydown <- struct{}{}
	source.keyup <- struct{}{}
	stop()

	require.Equal(t, []string{"press", "release"}, log.edges)
	require.True(t, source.unregistered)
}

func TestMonitorIgnoresRepeatAndStrayRelease(t *testing.T) {
	source := newFakeSource()
	clock := &fakeClock{now: time.Unix(0, 0)}
	log, stop := startMonitor(t, source, 50*time.Millisecond, clock)

	source.keyup <- struct{}{}
	source.keydown <- struct{}{}
	source.keydown <- struct{}{}
	source.keydown <- struct{}{}
	source.keyup <- struct{}{}
	source.keyup <- struct{}{}
	stop()

	require.Equal(t, []string{"press", "release"}, log.edges)
}

func TestMonitorDebouncesQuickRepress(t *testing.T) {
	source := newFakeSource()
	clock := &fakeClock{now: time.Unix(0, 0)}
	log, stop := startMonitor(t, source, 50*time.Millisecond, clock)

	source.keydown <- struct{}{}
	source.keyup <- struct{}{}

	clock.Advance(10 * time.Millisecond)
	source.keydown <- struct{}{}
	source.keyup <- struct{}{}

	clock.Advance(100 * time.Millisecond)
	source.keydown <- struct{}{}
	source.keyup <- struct{}{}
	stop()

	require.Equal(t, []string{"press", "release", "press", "release"}, log.edges)
}

func TestMonitorRegisterFailure(t *testing.T) {
	source := newFakeSource()
	source.registerErr = errors.New("BadAccess")

	err := NewMonitor(source, 0, nil).Run(context.Background(), Handlers{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Contains(t, err.Error(), "BadAccess")
}
