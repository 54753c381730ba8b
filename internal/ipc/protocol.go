package ipc

import (
	"encoding/json"
	"fmt"
	"io"
)

// Commands understood by the daemon.
const (
	CommandStatus = "status"
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandToggle = "toggle"
	CommandCancel = "cancel"
)

// Request is one newline-delimited JSON command sent to the daemon.
type Request struct {
	Command string `json:"command"`
}

// Response answers a Request. Level is the smoothed input level in [0,1].
type Response struct {
	OK      bool    `json:"ok"`
	State   string  `json:"state,omitempty"`
	Level   float64 `json:"level,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Failure builds a non-OK response carrying a formatted error message.
func Failure(format string, args ...any) Response {
	return Response{OK: false, Error: fmt.Sprintf(format, args...)}
}

// writeFrame emits v as a single JSON line. json.Encoder appends the newline.
func writeFrame(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
