// Package asrtest runs an in-process recognizer for tests.
package asrtest

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/rbright/murmur/internal/asr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Endpoint is the target to pair with Dialer.
const Endpoint = "passthrough:///bufnet"

// Server is a scripted recognizer.
type Server struct {
	// Interim is sent one update per received audio chunk, in order.
	Interim []asr.Update
	// Final is sent after the client half-closes.
	Final []asr.Update
	// Hold keeps the call open after Final until the client cancels.
	Hold bool
	// Err ends the call with this status once Final has been sent.
	Err error
	// Stall never reads from the call, so client sends back up on flow
	// control until the client cancels.
	Stall bool

	mu         sync.Mutex
	config     *asr.RecognitionConfig
	audioBytes int
	chunks     int
	calls      int
}

// Config returns the recognition config of the last call.
func (s *Server) Config() *asr.RecognitionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// AudioBytes returns the audio bytes received across calls.
func (s *Server) AudioBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioBytes
}

// Calls returns how many streams were opened.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Server) StreamingRecognize(stream grpc.BidiStreamingServer[anypb.Any, structpb.Struct]) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Stall {
		<-stream.Context().Done()
		return stream.Context().Err()
	}

	sent := 0
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		req, err := asr.DecodeRequest(msg)
		if err != nil {
			return err
		}
		if req.Config != nil {
			s.mu.Lock()
			s.config = req.Config
			s.mu.Unlock()
			continue
		}

		s.mu.Lock()
		s.audioBytes += len(req.Audio)
		s.chunks++
		s.mu.Unlock()

		if sent < len(s.Interim) {
			if err := stream.Send(asr.EncodeUpdate(s.Interim[sent])); err != nil {
				return err
			}
			sent++
		}
	}

	for _, update := range s.Final {
		if err := stream.Send(asr.EncodeUpdate(update)); err != nil {
			return err
		}
	}
	if s.Hold {
		<-stream.Context().Done()
		return stream.Context().Err()
	}
	return s.Err
}

// Start serves srv over an in-memory listener and returns a dialer for it.
// The server stops when the test ends.
func Start(t testing.TB, srv *Server) func(context.Context, string) (net.Conn, error) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	asr.RegisterRecognizerServer(grpcServer, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(func() {
		grpcServer.Stop()
		_ = lis.Close()
	})

	return func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}
}
