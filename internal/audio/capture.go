package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

const closeTimeout = time.Second

var (
	// ErrDeviceUnavailable reports that no capture stream could be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrCloseTimeout reports that the backend did not release within closeTimeout.
	ErrCloseTimeout = errors.New("audio capture close timed out")
)

// source is the platform stream feeding a Capture.
type source interface {
	Close() error
}

// Capture fans out fixed-size blocks from one capture source to subscribers.
// The backend callback never blocks: a subscriber whose buffer is full misses
// that block.
type Capture struct {
	device    Device
	src       source
	closeWait time.Duration

	mu      sync.Mutex
	subs    []chan Block
	pending []byte
	rawPCM  []byte
	seq     uint64
	stopped bool

	closeOnce sync.Once
	closeErr  error

	bytes   atomic.Int64
	dropped atomic.Int64
}

// Open starts capture on the selected device.
func Open(ctx context.Context, selected Device) (*Capture, error) {
	capture := &Capture{device: selected, closeWait: closeTimeout}

	src, err := openSource(selected, capture.onPCM)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, selected.ID, err)
	}
	capture.src = src

	go func() {
		<-ctx.Done()
		_ = capture.Close()
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// Subscribe registers a consumer. The channel is closed by Close.
func (c *Capture) Subscribe(buffer int) <-chan Block {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Block, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

// BytesCaptured reports total PCM bytes accepted from the backend.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Dropped reports how many block deliveries were skipped for slow subscribers.
func (c *Capture) Dropped() int64 {
	return c.dropped.Load()
}

// RawPCM returns a snapshot of all captured PCM16 bytes.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.rawPCM))
	copy(out, c.rawPCM)
	return out
}

// Close stops delivery, flushes the trailing partial block, closes every
// subscriber channel, and releases the backend. Safe to call repeatedly.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		if len(c.pending) > 0 {
			c.publishLocked(c.pending)
			c.pending = nil
		}
		for _, ch := range c.subs {
			close(ch)
		}
		c.subs = nil
		c.mu.Unlock()

		c.closeErr = c.releaseSource()
	})
	return c.closeErr
}

func (c *Capture) releaseSource() error {
	if c.src == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- c.src.Close()
	}()

	wait := c.closeWait
	if wait <= 0 {
		wait = closeTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrCloseTimeout
	}
}

// onPCM receives raw PCM16 frames from the backend and emits whole blocks.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return 0, io.EOF
	}

	c.bytes.Add(int64(len(buffer)))
	c.rawPCM = append(c.rawPCM, buffer...)
	c.pending = append(c.pending, buffer...)

	for len(c.pending) >= blockSizeBytes {
		c.publishLocked(c.pending[:blockSizeBytes])
		c.pending = c.pending[blockSizeBytes:]
	}
	if len(c.pending) == 0 {
		c.pending = nil
	}

	return len(buffer), nil
}

func (c *Capture) publishLocked(pcm []byte) {
	block := Block{Seq: c.seq, Samples: samplesFromPCM16(pcm)}
	c.seq++
	for _, ch := range c.subs {
		select {
		case ch <- block:
		default:
			c.dropped.Add(1)
		}
	}
}

// writerFunc adapts a function to io.Writer for backend sinks.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
