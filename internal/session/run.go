package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/murmur/internal/fsm"
	"github.com/rbright/murmur/internal/ipc"
)

type action int

const (
	actionStart action = iota + 1
	actionStop
	actionCancel
)

func (a action) String() string {
	switch a {
	case actionStart:
		return "start"
	case actionStop:
		return "stop"
	case actionCancel:
		return "cancel"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Run executes queued actions one at a time until ctx is done. An active
// recording is discarded on the way out.
func (c *Controller) Run(ctx context.Context) error {
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-c.actions:
			c.execute(ctx, a)
		}
	}
}

func (c *Controller) execute(ctx context.Context, a action) {
	switch a {
	case actionStart:
		_ = c.Start(ctx)
		c.mu.Lock()
		c.pendingStart = false
		c.mu.Unlock()
	case actionStop:
		result := c.StopAndFinalize(ctx)
		if errors.Is(result.Err, ErrNotRecording) {
			c.logger.Debug("stop ignored", "state", string(result.State))
		}
	case actionCancel:
		if err := c.Cancel(ctx); err != nil {
			c.logger.Warn("cancel failed", "error", err.Error())
		}
	default:
		c.logger.Warn("unknown session action", "action", a.String())
	}
}

// Press is the hotkey keydown entry point.
func (c *Controller) Press() {
	if resp := c.requestStart(); !resp.OK {
		c.logger.Debug("hotkey press ignored", "reason", resp.Error)
	}
}

// Release is the hotkey keyup entry point.
func (c *Controller) Release() {
	if resp := c.requestStop("stop"); !resp.OK {
		c.logger.Debug("hotkey release ignored", "reason", resp.Error)
	}
}

// Handle serves IPC commands.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Level: c.Level(), Message: "status"}
	case ipc.CommandStart:
		return c.requestStart()
	case ipc.CommandStop:
		return c.requestStop("stop")
	case ipc.CommandToggle:
		c.mu.RLock()
		startable := c.state == fsm.StateIdle && !c.pendingStart
		c.mu.RUnlock()
		if startable {
			return c.requestStart()
		}
		return c.requestStop("toggle")
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestStart queues a start only from idle with no start already queued.
func (c *Controller) requestStart() ipc.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if state != fsm.StateIdle {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot start from state %s", state)}
	}
	if c.pendingStart {
		return ipc.Response{OK: true, State: string(state), Message: "start already requested"}
	}
	if !c.enqueue(actionStart) {
		return ipc.Response{OK: false, State: string(state), Error: "session busy"}
	}
	c.pendingStart = true
	return ipc.Response{OK: true, State: string(state), Message: "start requested"}
}

// requestStop queues a stop while recording or while a start is queued.
func (c *Controller) requestStop(source string) ipc.Response {
	c.mu.RLock()
	state := c.state
	pending := c.pendingStart
	c.mu.RUnlock()

	if state == fsm.StateFinalizing {
		return ipc.Response{OK: false, State: string(state), Error: "already finalizing"}
	}
	if state != fsm.StateRecording && !pending {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}
	if !c.enqueue(actionStop) {
		return ipc.Response{OK: false, State: string(state), Error: "session busy"}
	}
	return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
}

// requestCancel interrupts finalization directly and queues a cancel while recording.
func (c *Controller) requestCancel() ipc.Response {
	if c.interruptFinalize() {
		return ipc.Response{OK: true, State: string(fsm.StateFinalizing), Message: "finalize cancelled"}
	}

	c.mu.RLock()
	state := c.state
	pending := c.pendingStart
	c.mu.RUnlock()

	if state != fsm.StateRecording && !pending {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}
	if !c.enqueue(actionCancel) {
		return ipc.Response{OK: false, State: string(state), Error: "session busy"}
	}
	return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
}

func (c *Controller) enqueue(a action) bool {
	select {
	case c.actions <- a:
		return true
	default:
		return false
	}
}
