package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const defaultReadTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers one request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger

	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout time.Duration
}

// Serve runs a Server with default settings.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	srv := &Server{Handler: handler}
	return srv.Serve(ctx, listener)
}

// Serve accepts clients until ctx is cancelled or listener is closed, then
// waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	timeout := s.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	resp := s.respond(ctx, conn)
	if err := writeFrame(conn, resp); err != nil {
		s.logger().Debug("ipc write response failed", "error", err.Error())
	}
}

func (s *Server) respond(ctx context.Context, conn net.Conn) Response {
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Failure("read request: %v", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Failure("decode request: %v", err)
	}
	req.Command = strings.ToLower(strings.TrimSpace(req.Command))
	if req.Command == "" {
		return Failure("missing command")
	}

	s.logger().Debug("ipc request", "command", req.Command)
	return s.Handler.Handle(ctx, req)
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
