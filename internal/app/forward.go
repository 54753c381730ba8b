package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/murmur/internal/fsm"
	"github.com/rbright/murmur/internal/ipc"
)

const forwardTimeout = 220 * time.Millisecond

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = string(fsm.StateIdle)
		}
		if resp.State == string(fsm.StateRecording) {
			fmt.Fprintf(r.Stdout, "%s level=%.2f\n", resp.State, resp.Level)
			return 0
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: murmur daemon is not running (start it with `murmur run`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward reports handled=false only when no daemon owns the socket.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Call(ctx, socketPath, command, forwardTimeout)
	switch {
	case err == nil:
		return resp, true, nil
	case errors.Is(err, ipc.ErrUnreachable):
		return ipc.Response{}, false, nil
	case resp.Error != "":
		return resp, true, err
	default:
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
	}
}
