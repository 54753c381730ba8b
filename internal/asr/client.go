package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const updateBuffer = 32

// StreamConfig controls stream initialization and recognition behavior.
type StreamConfig struct {
	Endpoint              string
	LanguageCode          string
	Model                 string
	AutomaticPunctuation  bool
	SpeechPhrases         []SpeechPhrase
	DialTimeout           time.Duration
	DebugResponseSinkJSON io.Writer

	// Dialer overrides the network dialer (in-process transports).
	Dialer func(context.Context, string) (net.Conn, error)
}

// Stream wraps one active StreamingRecognize call.
type Stream struct {
	conn   *grpc.ClientConn
	stream grpc.BidiStreamingClient[anypb.Any, structpb.Struct]
	cancel context.CancelFunc

	updates chan Update
	done    chan struct{}

	sendMu     sync.Mutex
	closedSend bool

	mu            sync.Mutex
	recvErr       error
	debugSinkJSON io.Writer

	cancelOnce sync.Once
}

// Dial establishes a stream, sends the recognition config, and starts the receive loop.
func Dial(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("recognizer endpoint is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}

	conn, err := newConn(endpoint, cfg.Dialer)
	if err != nil {
		return nil, err
	}

	readyCtx, cancelReady := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancelReady()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for recognizer readiness: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	cs, err := openWithTimeout(streamCtx, cfg.DialTimeout, func() (grpc.ClientStream, error) {
		return conn.NewStream(streamCtx, &streamDesc, StreamingRecognizeMethod)
	})
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, fmt.Errorf("open streaming recognizer: %w", err)
	}
	stream := &grpc.GenericClientStream[anypb.Any, structpb.Struct]{ClientStream: cs}

	initial, err := encodeConfig(RecognitionConfig{
		LanguageCode:         cfg.LanguageCode,
		Model:                strings.TrimSpace(cfg.Model),
		SampleRateHertz:      16000,
		Encoding:             EncodingLinear16,
		AutomaticPunctuation: cfg.AutomaticPunctuation,
		InterimResults:       true,
		Phrases:              cfg.SpeechPhrases,
	})
	if err == nil {
		err = runWithTimeout(streamCtx, cfg.DialTimeout, func() error { return stream.Send(initial) })
	}
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, fmt.Errorf("send initial recognition config: %w", err)
	}

	s := &Stream{
		conn:          conn,
		stream:        stream,
		cancel:        cancel,
		updates:       make(chan Update, updateBuffer),
		done:          make(chan struct{}),
		debugSinkJSON: cfg.DebugResponseSinkJSON,
	}
	go s.recvLoop(streamCtx)
	return s, nil
}

func newConn(endpoint string, dialer func(context.Context, string) (net.Conn, error)) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if dialer != nil {
		opts = append(opts, grpc.WithContextDialer(dialer))
	}
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial recognizer grpc %q: %w", endpoint, err)
	}
	return conn, nil
}

// Updates delivers hypotheses in arrival order. Closed when the server ends
// the stream, the stream fails, or Cancel is called.
func (s *Stream) Updates() <-chan Update {
	return s.updates
}

// Done is closed once the receive loop has exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the receive error, if the stream ended abnormally.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvErr
}

func (s *Stream) recvLoop(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)

	for {
		msg, err := s.stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.mu.Lock()
				s.recvErr = err
				s.mu.Unlock()
			}
			return
		}

		s.writeDebug(msg)
		select {
		case s.updates <- decodeUpdate(msg):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) writeDebug(msg *structpb.Struct) {
	sink := s.debugSinkJSON
	if sink == nil {
		return
	}
	b, err := json.Marshal(msg.AsMap())
	if err != nil {
		return
	}
	_, _ = sink.Write(append(b, '\n'))
}

// Send forwards one PCM16 chunk.
func (s *Stream) Send(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("stream receive loop failed: %w", err)
	}

	msg, err := encodeAudio(pcm)
	if err != nil {
		return err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closedSend {
		return errors.New("stream already closed for sending")
	}
	return s.stream.Send(msg)
}

// CloseSend signals end of input. Later calls are no-ops.
func (s *Stream) CloseSend() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closedSend {
		return nil
	}
	s.closedSend = true
	return s.stream.CloseSend()
}

// Cancel aborts the call and closes the connection. It unblocks a Send stuck
// on flow control. Safe to call repeatedly.
func (s *Stream) Cancel() error {
	var err error
	s.cancelOnce.Do(func() {
		s.cancel()

		s.sendMu.Lock()
		s.closedSend = true
		s.sendMu.Unlock()

		err = s.conn.Close()
		<-s.done
	})
	return err
}
